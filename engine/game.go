package engine

import (
	"github.com/spaghettifunk/cinder/engine/assets"
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer"
)

// Game is the application plugged into the Engine. The engine fills in
// Renderer, Events, Assets and Buckets before FnInitialize is called.
type Game struct {
	ApplicationConfig *ApplicationConfig
	Renderer          *renderer.Renderer
	Events            *core.EventBus
	// nil when no asset directory is configured
	Assets *assets.AssetManager
	// one bucket per configured view
	Buckets      map[uint8]*renderer.Bucket
	State        any
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render records the commands of the frame into the game's buckets.
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error

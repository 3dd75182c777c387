package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/cinder/engine/assets"
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything
	EngineStageShutdown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig
	isRunning    atomic.Bool
	isSuspended  atomic.Bool
	backend      backend.Backend
	renderer     *renderer.Renderer
	assetManager *assets.AssetManager
	events       *core.EventBus
	clock        *core.Clock
	lastTime     float64
	frames       uint64
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		return nil, err
	}
	if g.ApplicationConfig.Logging.Level != "" {
		if err := core.SetLogLevel(g.ApplicationConfig.Logging.Level); err != nil {
			return nil, err
		}
	}

	b, err := NewBackend(g.ApplicationConfig.Renderer.Backend)
	if err != nil {
		core.LogError("%s", err.Error())
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.ApplicationConfig,
		backend:      b,
		events:       core.NewEventBus(),
		clock:        core.NewClock(),
	}
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, onApplicationQuit)
	return e, nil
}

func onApplicationQuit(code core.SystemEventCode, sender any, listener any, data core.EventContext) bool {
	core.LogInfo("quit requested, stopping after the current frame")
	listener.(*Engine).isRunning.Store(false)
	// other listeners still get to see it
	return false
}

// Backend returns the backend picked from the configuration.
func (e *Engine) Backend() backend.Backend {
	return e.backend
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Events returns the bus the engine fires its system events on.
func (e *Engine) Events() *core.EventBus {
	return e.events
}

// Frames returns the number of frames run so far.
func (e *Engine) Frames() uint64 {
	return e.frames
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing

	rc, err := e.config.RendererConfig(0)
	if err != nil {
		return err
	}
	r, err := renderer.New(e.backend, rc)
	if err != nil {
		return err
	}
	e.renderer = r

	for _, v := range e.config.Views {
		vc, err := v.ViewConfig()
		if err != nil {
			return err
		}
		if err := r.RegisterView(vc); err != nil {
			return err
		}
	}
	buckets := make(map[uint8]*renderer.Bucket)
	for _, b := range e.config.Buckets {
		if _, ok := buckets[b.View]; ok {
			return fmt.Errorf("bucket for view %d declared twice", b.View)
		}
		buckets[b.View] = r.NewBucket(b.View, b.Capacity)
	}

	if e.config.Assets.Dir != "" {
		am, err := assets.NewAssetManager(e.config.Assets.Dir, e.config.Assets.Watch)
		if err != nil {
			return err
		}
		am.SetEventBus(e.events)
		e.assetManager = am
	}

	e.gameInstance.Renderer = r
	e.gameInstance.Events = e.events
	e.gameInstance.Assets = e.assetManager
	e.gameInstance.Buckets = buckets

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			core.LogError("game failed to initialize: %s", err)
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", e.config.Application.Name)
	return nil
}

// Run drives update, render and EndFrame until Stop is called, a hook fails
// or the configured frame limit is reached.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if e.config.Application.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(e.config.Application.TargetFPS)
	}

	for e.isRunning.Load() {
		if e.isSuspended.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		frameStart := time.Now()

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				e.isRunning.Store(false)
				return err
			}
		}
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(delta); err != nil {
				core.LogError("game render failed, shutting down: %s", err)
				e.isRunning.Store(false)
				return err
			}
		}
		if err := e.renderer.EndFrame(); err != nil {
			e.isRunning.Store(false)
			return err
		}
		e.frames++

		if e.frames%600 == 0 {
			stats := e.renderer.Stats()
			core.LogDebug("frame %d: %d draws, %d skipped, %.1f fps, %.2f ms", stats.Frames, stats.Draws, stats.Skipped, stats.FPS, stats.FrameTime)
		}
		if limit := e.config.Application.MaxFrames; limit > 0 && e.frames >= limit {
			e.isRunning.Store(false)
		}

		// If there is time left, give it back to the OS.
		if remaining := targetFrameSeconds - time.Since(frameStart).Seconds(); remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}
		e.lastTime = currentTime
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Stop fires EVENT_CODE_APPLICATION_QUIT, which makes Run return after the
// current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
}

// Suspend pauses or resumes the frame loop, e.g. while the window is minimized.
func (e *Engine) Suspend(suspended bool) {
	e.isSuspended.Store(suspended)
}

// OnResize resizes the framebuffer from the next frame on. Must be called
// from the goroutine running Run, or while it is not running.
func (e *Engine) OnResize(width, height uint32) error {
	if e.renderer == nil {
		return fmt.Errorf("engine is not initialized")
	}
	e.renderer.Reset(width, height)
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			return err
		}
	}
	var ctx core.EventContext
	ctx.Data.U32[0] = width
	ctx.Data.U32[1] = height
	e.events.Fire(core.EVENT_CODE_RESIZED, e, ctx)
	return nil
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var firstErr error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			firstErr = err
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.events.Shutdown()
	e.currentStage = EngineStageShutdown
	return firstErr
}

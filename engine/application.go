package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

type ApplicationConfig struct {
	Application ApplicationSection `toml:"application"`
	Renderer    RendererSection    `toml:"renderer"`
	Views       []ViewSection      `toml:"views"`
	Buckets     []BucketSection    `toml:"buckets"`
	Assets      AssetsSection      `toml:"assets"`
	Logging     LoggingSection     `toml:"logging"`
}

type ApplicationSection struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// TargetFPS > 0 sleeps away the rest of every frame.
	TargetFPS int `toml:"target_fps"`
	// MaxFrames > 0 stops the engine after that many frames.
	MaxFrames uint64 `toml:"max_frames"`
}

type RendererSection struct {
	// Backend is the name of the graphics backend, e.g. "headless".
	Backend string `toml:"backend"`
	// MinimumVersion such as "3.3" overrides the per family default.
	MinimumVersion  string `toml:"minimum_version"`
	SortWorkers     int    `toml:"sort_workers"`
	BufferCapacity  int    `toml:"buffer_capacity"`
	ProgramCapacity int    `toml:"program_capacity"`
	TextureCapacity int    `toml:"texture_capacity"`
	SamplerCapacity int    `toml:"sampler_capacity"`
}

type ViewSection struct {
	ID   uint8  `toml:"id"`
	Name string `toml:"name"`
	// x, y, width, height. Missing or zero size covers the framebuffer.
	Viewport []int32 `toml:"viewport"`
	Scissor  []int32 `toml:"scissor"`
	// any of "colour", "depth", "stencil"
	Clear       []string   `toml:"clear"`
	ClearColour [4]float32 `toml:"clear_colour"`
	ClearDepth  float32    `toml:"clear_depth"`
	// Ortho: left, right, bottom, top, near, far. Empty keeps identity.
	Ortho []float32 `toml:"ortho"`
}

type BucketSection struct {
	View     uint8 `toml:"view"`
	Capacity int   `toml:"capacity"`
}

type AssetsSection struct {
	// Dir is the asset root. Empty disables the asset manager.
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type LoggingSection struct {
	Level string `toml:"level"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	rc := renderer.DefaultConfig()
	return &ApplicationConfig{
		Application: ApplicationSection{
			Name:        "Cinder",
			StartWidth:  rc.Width,
			StartHeight: rc.Height,
			TargetFPS:   60,
		},
		Renderer: RendererSection{
			Backend:         "headless",
			BufferCapacity:  rc.BufferCapacity,
			ProgramCapacity: rc.ProgramCapacity,
			TextureCapacity: rc.TextureCapacity,
			SamplerCapacity: rc.SamplerCapacity,
		},
		Logging: LoggingSection{Level: "info"},
	}
}

// LoadApplicationConfig reads a TOML file on top of the defaults.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseApplicationConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseApplicationConfig decodes TOML on top of the defaults. Unknown keys are
// an error.
func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	cfg := DefaultApplicationConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("invalid configuration:\n%s", strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("invalid configuration at %d:%d: %w", row, col, err)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return fmt.Errorf("application: invalid start size %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if c.Renderer.SortWorkers < 0 {
		return fmt.Errorf("renderer: sort_workers must not be negative")
	}
	if _, err := c.Renderer.minimumVersion(); err != nil {
		return err
	}
	seen := make(map[uint8]bool)
	for _, v := range c.Views {
		if seen[v.ID] {
			return fmt.Errorf("view %d declared twice: %w", v.ID, core.ErrInvalidView)
		}
		seen[v.ID] = true
		if _, err := v.ViewConfig(); err != nil {
			return err
		}
	}
	for _, b := range c.Buckets {
		if b.Capacity <= 0 {
			return fmt.Errorf("bucket for view %d: capacity must be positive", b.View)
		}
	}
	if c.Logging.Level != "" {
		if _, err := core.ParseLogLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}
	return nil
}

// RendererConfig converts the renderer section.
func (c *ApplicationConfig) RendererConfig(window uintptr) (renderer.Config, error) {
	minimum, err := c.Renderer.minimumVersion()
	if err != nil {
		return renderer.Config{}, err
	}
	return renderer.Config{
		Window:          window,
		Width:           c.Application.StartWidth,
		Height:          c.Application.StartHeight,
		BufferCapacity:  c.Renderer.BufferCapacity,
		ProgramCapacity: c.Renderer.ProgramCapacity,
		TextureCapacity: c.Renderer.TextureCapacity,
		SamplerCapacity: c.Renderer.SamplerCapacity,
		SortWorkers:     c.Renderer.SortWorkers,
		MinimumVersion:  minimum,
	}, nil
}

func (r RendererSection) minimumVersion() (*backend.Version, error) {
	if r.MinimumVersion == "" {
		return nil, nil
	}
	var v backend.Version
	if _, err := fmt.Sscanf(r.MinimumVersion, "%d.%d", &v.Major, &v.Minor); err != nil {
		return nil, fmt.Errorf("renderer: invalid minimum_version %q", r.MinimumVersion)
	}
	return &v, nil
}

// ViewConfig converts a view section.
func (v ViewSection) ViewConfig() (metadata.ViewConfig, error) {
	cfg := metadata.ViewConfig{
		ID:          v.ID,
		Name:        v.Name,
		ClearColour: math.NewVec4Create(v.ClearColour[0], v.ClearColour[1], v.ClearColour[2], v.ClearColour[3]),
		ClearDepth:  v.ClearDepth,
		View:        math.NewMat4Identity(),
		Projection:  math.NewMat4Identity(),
	}
	if len(v.Viewport) > 0 {
		rect, err := parseRect(v.Viewport)
		if err != nil {
			return cfg, fmt.Errorf("view %d viewport: %w", v.ID, err)
		}
		cfg.Viewport = rect
	}
	if len(v.Scissor) > 0 {
		rect, err := parseRect(v.Scissor)
		if err != nil {
			return cfg, fmt.Errorf("view %d scissor: %w", v.ID, err)
		}
		cfg.Scissor = &rect
	}
	for _, c := range v.Clear {
		switch strings.ToLower(c) {
		case "colour", "color":
			cfg.ClearFlags |= metadata.ClearColour
		case "depth":
			cfg.ClearFlags |= metadata.ClearDepth
		case "stencil":
			cfg.ClearFlags |= metadata.ClearStencil
		default:
			return cfg, fmt.Errorf("view %d: unknown clear flag %q: %w", v.ID, c, core.ErrInvalidView)
		}
	}
	switch len(v.Ortho) {
	case 0:
	case 6:
		o := v.Ortho
		cfg.Projection = math.NewMat4Orthographic(o[0], o[1], o[2], o[3], o[4], o[5])
	default:
		return cfg, fmt.Errorf("view %d: ortho needs 6 values, got %d: %w", v.ID, len(v.Ortho), core.ErrInvalidView)
	}
	return cfg, nil
}

func parseRect(values []int32) (math.Rect, error) {
	if len(values) != 4 {
		return math.Rect{}, fmt.Errorf("expected x, y, width, height, got %d values: %w", len(values), core.ErrInvalidView)
	}
	if values[2] < 0 || values[3] < 0 {
		return math.Rect{}, fmt.Errorf("negative size %dx%d: %w", values[2], values[3], core.ErrInvalidView)
	}
	return math.Rect{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}

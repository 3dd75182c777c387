// Package renderer records draw commands into per-view buckets and replays
// them, sorted, on a dedicated render goroutine.
//
// The producer (usually the game loop) fills buckets during the frame and
// calls EndFrame, which sorts and merges the buckets, hands the merged list to
// the render goroutine and waits until it has been drawn. The render goroutine
// is locked to its OS thread and is the only one talking to the backend.
package renderer

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/cache"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
	"github.com/spaghettifunk/cinder/engine/systems"
)

type Config struct {
	// Window is the native window handle passed to the backend context.
	Window uintptr
	Width  uint32
	Height uint32

	BufferCapacity  int
	ProgramCapacity int
	TextureCapacity int
	SamplerCapacity int

	// SortWorkers > 0 sorts buckets in parallel on a job system.
	SortWorkers int
	// MinimumVersion overrides backend.MinimumVersion for the backend family.
	MinimumVersion *backend.Version
}

func DefaultConfig() Config {
	return Config{
		Width:           1280,
		Height:          720,
		BufferCapacity:  4096,
		ProgramCapacity: 256,
		TextureCapacity: 1024,
		SamplerCapacity: 64,
	}
}

type (
	bufferCache  = cache.Cache[metadata.Buffer, *metadata.Buffer, backend.BufferObject]
	programCache = cache.Cache[metadata.ShaderProgram, *metadata.ShaderProgram, backend.ProgramObject]
	textureCache = cache.Cache[metadata.Texture, *metadata.Texture, backend.TextureObject]
	samplerCache = cache.Cache[metadata.Sampler, *metadata.Sampler, backend.SamplerObject]
)

type size struct {
	width, height uint32
}

type viewTable struct {
	configs    [metadata.MaxViews]metadata.ViewConfig
	registered [metadata.MaxViews]bool
}

// frame is what the producer hands to the render goroutine.
type frame struct {
	commands []*Command
	// nil when no view changed since the previous frame
	views  *viewTable
	resize *size
}

type Renderer struct {
	backend backend.Backend
	cfg     Config
	caps    backend.Capabilities

	// producer side, guarded by mu
	mu            sync.Mutex
	buckets       []*Bucket
	merged        []*Command
	views         viewTable
	viewsDirty    bool
	pendingResize *size
	jobs          *systems.JobSystem

	frame      frame
	frameReady chan struct{}
	frameDone  chan struct{}
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	stopped    atomic.Bool

	// render goroutine only
	state       *frameState
	buffers     *bufferCache
	programs    *programCache
	textures    *textureCache
	samplers    *samplerCache
	renderViews viewTable
	cleared     [metadata.MaxViews]bool
	width       uint32
	height      uint32
	counters    FrameStats
	warned      map[string]struct{}
	metrics     *core.Metrics
	clock       *core.Clock
	shutdownErr error

	statsMu sync.Mutex
	stats   FrameStats
}

// New starts the render goroutine and creates the backend context on it.
// An error is returned when the context cannot be created or the backend is
// older than the minimum version of its family.
func New(b backend.Backend, cfg Config) (*Renderer, error) {
	def := DefaultConfig()
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = def.BufferCapacity
	}
	if cfg.ProgramCapacity <= 0 {
		cfg.ProgramCapacity = def.ProgramCapacity
	}
	if cfg.TextureCapacity <= 0 {
		cfg.TextureCapacity = def.TextureCapacity
	}
	if cfg.SamplerCapacity <= 0 {
		cfg.SamplerCapacity = def.SamplerCapacity
	}

	r := &Renderer{
		backend:    b,
		cfg:        cfg,
		frameReady: make(chan struct{}),
		frameDone:  make(chan struct{}),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		state:      newFrameState(),
		buffers:    cache.New[metadata.Buffer, *metadata.Buffer, backend.BufferObject]("buffer", cfg.BufferCapacity),
		programs:   cache.New[metadata.ShaderProgram, *metadata.ShaderProgram, backend.ProgramObject]("program", cfg.ProgramCapacity),
		textures:   cache.New[metadata.Texture, *metadata.Texture, backend.TextureObject]("texture", cfg.TextureCapacity),
		samplers:   cache.New[metadata.Sampler, *metadata.Sampler, backend.SamplerObject]("sampler", cfg.SamplerCapacity),
		width:      cfg.Width,
		height:     cfg.Height,
		metrics:    core.NewMetrics(),
		clock:      core.NewClock(),
		warned:     make(map[string]struct{}),
	}

	if cfg.SortWorkers > 0 {
		jobs, err := systems.NewJobSystem(cfg.SortWorkers, cfg.SortWorkers)
		if err != nil {
			return nil, err
		}
		r.jobs = jobs
	}

	initErr := make(chan error, 1)
	go r.loop(initErr)
	if err := <-initErr; err != nil {
		<-r.done
		r.stopped.Store(true)
		if r.jobs != nil {
			r.jobs.Shutdown()
		}
		return nil, err
	}
	core.LogInfo("renderer started on %s %s (%s)", r.caps.Family, r.caps.Version, r.caps.Renderer)
	return r, nil
}

// Capabilities returns what the backend reported at startup.
func (r *Renderer) Capabilities() backend.Capabilities {
	return r.caps
}

// NewBucket creates a bucket for view. Buckets are merged in the order they
// were created. Must not be called concurrently with EndFrame.
func (r *Renderer) NewBucket(view uint8, capacity int) *Bucket {
	if capacity <= 0 {
		capacity = 1
	}
	b := NewBucket(view, capacity)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets = append(r.buckets, b)
	total := 0
	for _, bucket := range r.buckets {
		total += bucket.Capacity()
	}
	r.merged = make([]*Command, total)
	return b
}

// RegisterView sets the viewport, clear and camera of a view. The change
// applies from the next EndFrame on.
func (r *Renderer) RegisterView(cfg metadata.ViewConfig) error {
	if cfg.Viewport.Width < 0 || cfg.Viewport.Height < 0 {
		return fmt.Errorf("view %d viewport %dx%d: %w", cfg.ID, cfg.Viewport.Width, cfg.Viewport.Height, core.ErrInvalidView)
	}
	if cfg.Scissor != nil {
		if cfg.Scissor.Width < 0 || cfg.Scissor.Height < 0 {
			return fmt.Errorf("view %d scissor %dx%d: %w", cfg.ID, cfg.Scissor.Width, cfg.Scissor.Height, core.ErrInvalidView)
		}
		scissor := *cfg.Scissor
		cfg.Scissor = &scissor
	}
	cfg.ClearDepth = math.Clamp(cfg.ClearDepth, 0, 1)
	var zero math.Mat4
	if cfg.View == zero {
		cfg.View = math.NewMat4Identity()
	}
	if cfg.Projection == zero {
		cfg.Projection = math.NewMat4Identity()
	}

	r.mu.Lock()
	r.views.configs[cfg.ID] = cfg
	r.views.registered[cfg.ID] = true
	r.viewsDirty = true
	r.mu.Unlock()
	return nil
}

// SetViewTransform replaces the view matrix of a registered view, typically
// once per frame from a camera. The projection stays as registered.
func (r *Renderer) SetViewTransform(id uint8, view math.Mat4) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.views.registered[id] {
		return fmt.Errorf("view %d is not registered: %w", id, core.ErrInvalidView)
	}
	cfg := &r.views.configs[id]
	if cfg.View == view {
		return nil
	}
	cfg.View = view
	r.viewsDirty = true
	return nil
}

// Reset resizes the framebuffer on the next frame. Everything the render
// goroutine remembers about bound state is forgotten.
func (r *Renderer) Reset(width, height uint32) {
	r.mu.Lock()
	r.pendingResize = &size{width: width, height: height}
	r.mu.Unlock()
}

// EndFrame sorts and merges every bucket, then blocks until the render
// goroutine has drawn the result. Every command added before the call is
// drawn before it returns. Only one goroutine may call EndFrame.
func (r *Renderer) EndFrame() error {
	if r.stopped.Load() {
		return core.ErrRendererStopped
	}

	r.mu.Lock()
	r.sortBuckets()
	count := 0
	for _, b := range r.buckets {
		count += b.Submit(r.merged, count)
	}
	f := frame{commands: r.merged[:count], resize: r.pendingResize}
	if r.viewsDirty {
		views := r.views
		f.views = &views
		r.viewsDirty = false
	}
	r.pendingResize = nil
	buckets := r.buckets
	r.mu.Unlock()

	r.frame = f
	select {
	case r.frameReady <- struct{}{}:
	case <-r.done:
		return core.ErrRendererStopped
	}
	select {
	case <-r.frameDone:
	case <-r.done:
		return core.ErrRendererStopped
	}
	for _, b := range buckets {
		b.release()
	}
	return nil
}

func (r *Renderer) sortBuckets() {
	if r.jobs == nil || len(r.buckets) < 2 {
		for _, b := range r.buckets {
			b.Sort()
		}
		return
	}
	var wg sync.WaitGroup
	for _, b := range r.buckets {
		wg.Add(1)
		r.jobs.Submit(systems.JobTask{
			Name: fmt.Sprintf("sort view %d", b.View()),
			Run: func() error {
				b.Sort()
				return nil
			},
			OnCompletionCallback: wg.Done,
		})
	}
	wg.Wait()
}

// Shutdown stops the render goroutine. Every backend object still held by a
// cache is disposed before the backend itself is shut down.
func (r *Renderer) Shutdown() error {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
	})
	<-r.done
	if r.jobs != nil {
		r.jobs.Shutdown()
	}
	return r.shutdownErr
}

// Stats returns the statistics of the last drawn frame.
func (r *Renderer) Stats() FrameStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

func (r *Renderer) loop(initErr chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.done)

	if err := r.start(); err != nil {
		initErr <- err
		return
	}
	initErr <- nil

	for {
		select {
		case <-r.stop:
			r.shutdown()
			return
		case <-r.frameReady:
			r.renderFrame(&r.frame)
			r.frame = frame{}
			r.frameDone <- struct{}{}
		}
	}
}

func (r *Renderer) start() error {
	if err := r.backend.CreateContext(r.cfg.Window); err != nil {
		return fmt.Errorf("failed to create backend context: %w", err)
	}
	r.caps = r.backend.Capabilities()

	minimum, ok := backend.MinimumVersion[r.caps.Family]
	if r.cfg.MinimumVersion != nil {
		minimum, ok = *r.cfg.MinimumVersion, true
	}
	if !ok {
		err := fmt.Errorf("backend family %s: %w", r.caps.Family, core.ErrUnsupportedBackend)
		r.backend.Shutdown()
		return err
	}
	if r.caps.Version.Less(minimum) {
		err := fmt.Errorf("%s %s is older than the required %s: %w", r.caps.Family, r.caps.Version, minimum, core.ErrUnsupportedBackend)
		r.backend.Shutdown()
		return err
	}
	r.backend.Resize(r.width, r.height)
	return nil
}

func (r *Renderer) shutdown() {
	disposed := r.buffers.Clean(true) + r.programs.Clean(true) + r.textures.Clean(true) + r.samplers.Clean(true)
	core.LogDebug("renderer shutdown: disposed %d backend objects", disposed)
	if err := r.backend.Shutdown(); err != nil {
		core.LogError("backend shutdown failed: %s", err)
		r.shutdownErr = err
	}
}

// Package headless is a Backend that draws nothing. It records every call it
// receives, which makes it the backend of choice for tests, benchmarks and
// servers without a GPU.
package headless

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

type Op string

const (
	OpCreateContext    Op = "create_context"
	OpResize           Op = "resize"
	OpSetView          Op = "set_view"
	OpUseProgram       Op = "use_program"
	OpSetUniform       Op = "set_uniform"
	OpBindVertexBuffer Op = "bind_vertex_buffer"
	OpBindIndexBuffer  Op = "bind_index_buffer"
	OpSetBlendState    Op = "set_blend_state"
	OpSetDepthState    Op = "set_depth_state"
	OpSetRasterState   Op = "set_raster_state"
	OpBindTexture      Op = "bind_texture"
	OpDrawIndexed      Op = "draw_indexed"
	OpDrawArrays       Op = "draw_arrays"
	OpSwapBuffers      Op = "swap_buffers"
	OpCreateBuffer     Op = "create_buffer"
	OpUpdateBuffer     Op = "update_buffer"
	OpCompileProgram   Op = "compile_program"
	OpCreateTexture    Op = "create_texture"
	OpUpdateTexture    Op = "update_texture"
	OpCreateSampler    Op = "create_sampler"
	OpDispose          Op = "dispose"
	OpShutdown         Op = "shutdown"
)

var primitiveNames = [...]string{
	metadata.PrimitiveTriangles:     "triangles",
	metadata.PrimitiveTriangleStrip: "triangle_strip",
	metadata.PrimitiveLines:         "lines",
	metadata.PrimitiveLineStrip:     "line_strip",
	metadata.PrimitivePoints:        "points",
}

var blendFactorNames = [...]string{
	metadata.BlendZero:             "zero",
	metadata.BlendOne:              "one",
	metadata.BlendSrcColor:         "src_color",
	metadata.BlendOneMinusSrcColor: "one_minus_src_color",
	metadata.BlendSrcAlpha:         "src_alpha",
	metadata.BlendOneMinusSrcAlpha: "one_minus_src_alpha",
	metadata.BlendDstColor:         "dst_color",
	metadata.BlendDstAlpha:         "dst_alpha",
}

var compareNames = [...]string{
	metadata.CompareNever:        "never",
	metadata.CompareLess:         "less",
	metadata.CompareEqual:        "equal",
	metadata.CompareLessEqual:    "lequal",
	metadata.CompareGreater:      "greater",
	metadata.CompareNotEqual:     "notequal",
	metadata.CompareGreaterEqual: "gequal",
	metadata.CompareAlways:       "always",
}

var cullNames = [...]string{
	metadata.CullNone:  "none",
	metadata.CullBack:  "back",
	metadata.CullFront: "front",
}

// Call is one recorded backend call. Draw calls also capture the objects
// bound at the time of the draw.
type Call struct {
	Op     Op
	Object uint64
	Arg    string
	First  uint32
	Count  uint32
	View   backend.ViewState

	Program uint64
	Vertex  uint64
	Index   uint64
}

type Options struct {
	Family          backend.Family
	Version         backend.Version
	MaxTextureSlots int
	// FailCompile makes CompileProgram fail when it returns true.
	FailCompile func(vertexSource, fragmentSource string) bool
}

func DefaultOptions() Options {
	return Options{
		Family:          backend.FamilyHeadless,
		Version:         backend.Version{Major: 1, Minor: 0},
		MaxTextureSlots: metadata.MaxTextureSlots,
	}
}

type Backend struct {
	opts Options

	mu     sync.Mutex
	calls  []Call
	nextID uint64
	live   int
	width  uint32
	height uint32

	program uint64
	vertex  uint64
	index   uint64
}

var _ backend.Backend = (*Backend)(nil)

func New(opts Options) *Backend {
	if opts.MaxTextureSlots == 0 {
		opts.MaxTextureSlots = metadata.MaxTextureSlots
	}
	return &Backend{opts: opts}
}

type object struct {
	b        *Backend
	id       uint64
	disposed bool
}

func (o *object) ID() uint64 {
	return o.id
}

func (o *object) Dispose() {
	if o.disposed {
		core.LogError("headless: object %d disposed twice", o.id)
		return
	}
	o.disposed = true
	o.b.mu.Lock()
	o.b.live--
	o.b.record(Call{Op: OpDispose, Object: o.id})
	o.b.mu.Unlock()
}

type buffer struct {
	object
	kind metadata.BufferKind
	data []byte
}

type program struct {
	object
	uniforms map[string]int32
}

type texture struct {
	object
	width, height uint32
	format        metadata.PixelFormat
}

type sampler struct {
	object
}

// ObjectID returns the id the backend gave to obj, or 0 for foreign objects.
func ObjectID(obj backend.Object) uint64 {
	if o, ok := obj.(interface{ ID() uint64 }); ok {
		return o.ID()
	}
	return 0
}

// newObject must be called with mu held.
func (b *Backend) newObject() object {
	b.nextID++
	b.live++
	return object{b: b, id: b.nextID}
}

// record must be called with mu held.
func (b *Backend) record(c Call) {
	b.calls = append(b.calls, c)
}

func (b *Backend) CreateContext(window uintptr) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpCreateContext, Arg: fmt.Sprintf("%#x", window)})
	return nil
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Family:          b.opts.Family,
		Version:         b.opts.Version,
		MaxTextureSlots: b.opts.MaxTextureSlots,
		Renderer:        "cinder headless",
	}
}

func (b *Backend) Resize(width, height uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	b.record(Call{Op: OpResize, Arg: fmt.Sprintf("%dx%d", width, height)})
}

func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpShutdown})
	if b.live != 0 {
		core.LogWarn("headless: shutting down with %d live objects", b.live)
	}
	return nil
}

func (b *Backend) SetView(view backend.ViewState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpSetView, View: view})
}

func (b *Backend) UseProgram(p backend.ProgramObject) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = ObjectID(p)
	b.record(Call{Op: OpUseProgram, Object: b.program})
}

func (b *Backend) UniformLocation(p backend.ProgramObject, name string) int32 {
	prog, ok := p.(*program)
	if !ok {
		return -1
	}
	if loc, ok := prog.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (b *Backend) SetUniform(location int32, value *metadata.UniformValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpSetUniform, Object: b.program, Arg: fmt.Sprintf("%d", location), Count: uint32(value.Kind.Components())})
}

func (b *Backend) BindVertexBuffer(buf backend.BufferObject, stride uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vertex = ObjectID(buf)
	b.record(Call{Op: OpBindVertexBuffer, Object: b.vertex, Count: stride})
}

func (b *Backend) BindIndexBuffer(buf backend.BufferObject, format metadata.IndexFormat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.index = ObjectID(buf)
	b.record(Call{Op: OpBindIndexBuffer, Object: b.index, Count: format.Size()})
}

func (b *Backend) SetBlendState(s metadata.BlendState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	arg := "off"
	if s.Enabled {
		arg = blendFactorNames[s.Src] + "," + blendFactorNames[s.Dst]
	}
	b.record(Call{Op: OpSetBlendState, Arg: arg})
}

func (b *Backend) SetDepthState(s metadata.DepthState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	arg := "off"
	if s.TestEnabled {
		arg = compareNames[s.Func]
	}
	if s.WriteEnabled {
		arg += ",write"
	}
	b.record(Call{Op: OpSetDepthState, Arg: arg})
}

func (b *Backend) SetRasterState(s metadata.RasterState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	arg := cullNames[s.Cull]
	if s.Wireframe {
		arg += ",wireframe"
	}
	b.record(Call{Op: OpSetRasterState, Arg: arg})
}

func (b *Backend) BindTexture(slot int, t backend.TextureObject, s backend.SamplerObject) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpBindTexture, Object: ObjectID(t), First: uint32(slot), Arg: fmt.Sprintf("%d", ObjectID(s))})
}

func (b *Backend) DrawIndexed(primitive metadata.PrimitiveType, first, count uint32) {
	b.draw(OpDrawIndexed, primitive, first, count)
}

func (b *Backend) DrawArrays(primitive metadata.PrimitiveType, first, count uint32) {
	b.draw(OpDrawArrays, primitive, first, count)
}

func (b *Backend) draw(op Op, primitive metadata.PrimitiveType, first, count uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{
		Op:      op,
		Arg:     primitiveNames[primitive],
		First:   first,
		Count:   count,
		Program: b.program,
		Vertex:  b.vertex,
		Index:   b.index,
	})
}

func (b *Backend) SwapBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpSwapBuffers})
}

func (b *Backend) CreateBuffer(kind metadata.BufferKind, usage metadata.BufferUsage, data []byte) (backend.BufferObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := &buffer{object: b.newObject(), kind: kind, data: append([]byte(nil), data...)}
	b.record(Call{Op: OpCreateBuffer, Object: buf.id, Arg: kind.String(), Count: uint32(len(data))})
	return buf, nil
}

func (b *Backend) UpdateBuffer(obj backend.BufferObject, data []byte) error {
	buf, ok := obj.(*buffer)
	if !ok {
		return errors.New("headless: not a headless buffer")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	buf.data = append(buf.data[:0], data...)
	b.record(Call{Op: OpUpdateBuffer, Object: buf.id, Count: uint32(len(data))})
	return nil
}

func (b *Backend) CompileProgram(vertexSource, fragmentSource string) (backend.ProgramObject, string, error) {
	var diag strings.Builder
	if strings.TrimSpace(vertexSource) == "" {
		diag.WriteString("vertex stage: empty source\n")
	}
	if strings.TrimSpace(fragmentSource) == "" {
		diag.WriteString("fragment stage: empty source\n")
	}
	collectErrors(&diag, "vertex", vertexSource)
	collectErrors(&diag, "fragment", fragmentSource)
	failed := diag.Len() > 0
	if !failed && b.opts.FailCompile != nil && b.opts.FailCompile(vertexSource, fragmentSource) {
		diag.WriteString("link: rejected\n")
		failed = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if failed {
		b.record(Call{Op: OpCompileProgram, Arg: "failed"})
		return nil, diag.String(), core.ErrShaderLink
	}

	prog := &program{object: b.newObject(), uniforms: make(map[string]int32)}
	for _, name := range append(uniformNames(vertexSource), uniformNames(fragmentSource)...) {
		if _, ok := prog.uniforms[name]; !ok {
			prog.uniforms[name] = int32(len(prog.uniforms))
		}
	}
	b.record(Call{Op: OpCompileProgram, Object: prog.id, Arg: "ok"})
	return prog, diag.String(), nil
}

func (b *Backend) CreateTexture(width, height uint32, format metadata.PixelFormat, pixels []byte) (backend.TextureObject, error) {
	if _, err := format.BytesPerPixel(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := &texture{object: b.newObject(), width: width, height: height, format: format}
	b.record(Call{Op: OpCreateTexture, Object: t.id, Arg: fmt.Sprintf("%dx%d", width, height), Count: uint32(len(pixels))})
	return t, nil
}

func (b *Backend) UpdateTexture(obj backend.TextureObject, pixels []byte) error {
	t, ok := obj.(*texture)
	if !ok {
		return errors.New("headless: not a headless texture")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Call{Op: OpUpdateTexture, Object: t.id, Count: uint32(len(pixels))})
	return nil
}

func (b *Backend) CreateSampler(s *metadata.Sampler) (backend.SamplerObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	smp := &sampler{object: b.newObject()}
	b.record(Call{Op: OpCreateSampler, Object: smp.id})
	return smp, nil
}

// Calls returns a copy of every call recorded so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Count returns how many times op was recorded.
func (b *Backend) Count(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Draws returns the recorded draw calls in order.
func (b *Backend) Draws() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var draws []Call
	for _, c := range b.calls {
		if c.Op == OpDrawIndexed || c.Op == OpDrawArrays {
			draws = append(draws, c)
		}
	}
	return draws
}

// Reset forgets the recorded calls. Objects stay alive.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// LiveObjects returns the number of created objects not disposed yet.
func (b *Backend) LiveObjects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// BufferData returns the bytes last uploaded to a buffer object.
func BufferData(obj backend.BufferObject) []byte {
	if buf, ok := obj.(*buffer); ok {
		return buf.data
	}
	return nil
}

// uniformNames extracts the names of "uniform <type> <name>;" declarations.
func uniformNames(source string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(source))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] != "uniform" {
			continue
		}
		name := strings.TrimSuffix(fields[2], ";")
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		names = append(names, name)
	}
	return names
}

func collectErrors(diag *strings.Builder, stage, source string) {
	scanner := bufio.NewScanner(strings.NewReader(source))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(text, "#error") {
			fmt.Fprintf(diag, "%s stage:%d: %s\n", stage, line, strings.TrimSpace(strings.TrimPrefix(text, "#error")))
		}
	}
}

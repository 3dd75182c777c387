package renderer

import (
	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

const noView = -1

type textureSlot struct {
	texture backend.TextureObject
	sampler backend.SamplerObject
	// the sampler uniform of the current program points at this slot
	uniformSet bool
}

// frameState remembers what the backend has bound so redundant calls can be
// skipped. Only backend objects are kept, never wrappers, so holding the state
// across frames does not keep dropped resources alive. Owned by the render
// goroutine.
type frameState struct {
	view int

	program         backend.ProgramObject
	locations       map[string]int32
	uniforms        *metadata.UniformBuffer
	uniformsVersion uint64

	transformKnown    bool
	transformLocation int32
	transformSet      bool
	transform         math.Mat4
	viewProjectionSet bool

	blendKnown  bool
	blend       metadata.BlendState
	depthKnown  bool
	depth       metadata.DepthState
	rasterKnown bool
	raster      metadata.RasterState

	primitive metadata.PrimitiveType

	vertex      backend.BufferObject
	vertexKnown bool
	index       backend.BufferObject
	indexKnown  bool

	textures [metadata.MaxTextureSlots]textureSlot
}

func newFrameState() *frameState {
	fs := &frameState{locations: make(map[string]int32)}
	fs.reset()
	return fs
}

// reset forgets everything; the next draw rebinds all of its state.
func (fs *frameState) reset() {
	fs.view = noView
	fs.program = nil
	fs.invalidateProgram()
	fs.blendKnown = false
	fs.depthKnown = false
	fs.rasterKnown = false
	fs.primitive = metadata.PrimitiveTriangles
	fs.vertex = nil
	fs.vertexKnown = false
	fs.index = nil
	fs.indexKnown = false
	for i := range fs.textures {
		fs.textures[i] = textureSlot{}
	}
}

// invalidateProgram drops every piece of state that belongs to the bound
// program: uniform values and locations.
func (fs *frameState) invalidateProgram() {
	clear(fs.locations)
	fs.uniforms = nil
	fs.uniformsVersion = 0
	fs.transformKnown = false
	fs.transformLocation = -1
	fs.transformSet = false
	fs.viewProjectionSet = false
	for i := range fs.textures {
		fs.textures[i].uniformSet = false
	}
}

// location returns the cached location of a uniform of the bound program.
func (fs *frameState) location(b backend.Backend, name string) int32 {
	if loc, ok := fs.locations[name]; ok {
		return loc
	}
	loc := b.UniformLocation(fs.program, name)
	fs.locations[name] = loc
	return loc
}

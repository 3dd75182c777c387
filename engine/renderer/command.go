package renderer

import (
	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

// TextureBinding is what a command binds to one texture slot. Uniform, when
// set, names the sampler uniform that receives the slot index.
type TextureBinding struct {
	Texture *metadata.Texture
	Sampler *metadata.Sampler
	Uniform string
}

// Command is one recorded draw. Commands are owned by their Bucket and reused
// every other frame; a *Command must not be kept after the EndFrame that
// consumed it.
type Command struct {
	key       uint64
	view      uint8
	program   *metadata.ShaderProgram
	vertex    *metadata.Buffer
	index     *metadata.Buffer
	uniforms  *metadata.UniformBuffer
	blend     *metadata.BlendState
	depth     *metadata.DepthState
	raster    *metadata.RasterState
	primitive metadata.PrimitiveType
	textures  [metadata.MaxTextureSlots]TextureBinding
	// highest bound slot + 1
	textureCount int
	transform    math.Mat4
	first        uint32
	count        uint32
}

func (c *Command) reset(view uint8, key uint64) {
	*c = Command{
		key:       key,
		view:      view,
		transform: math.NewMat4Identity(),
	}
}

func (c *Command) Key() uint64 {
	return c.key
}

func (c *Command) View() uint8 {
	return c.view
}

func (c *Command) SetShaderProgram(p *metadata.ShaderProgram) {
	c.program = p
}

func (c *Command) SetVertexBuffer(b *metadata.Buffer) {
	c.vertex = b
}

// SetIndexBuffer makes the command an indexed draw. Pass nil for a plain draw.
func (c *Command) SetIndexBuffer(b *metadata.Buffer) {
	c.index = b
}

func (c *Command) SetUniformBuffer(u *metadata.UniformBuffer) {
	c.uniforms = u
}

// SetBlendState overrides the renderer default. nil restores the default.
func (c *Command) SetBlendState(s *metadata.BlendState) {
	c.blend = s
}

func (c *Command) SetDepthState(s *metadata.DepthState) {
	c.depth = s
}

func (c *Command) SetRasterState(s *metadata.RasterState) {
	c.raster = s
}

func (c *Command) SetPrimitive(p metadata.PrimitiveType) {
	c.primitive = p
}

// SetTexture binds a texture and sampler to slot. Out of range slots are ignored.
func (c *Command) SetTexture(slot int, t *metadata.Texture, s *metadata.Sampler, uniform string) {
	if slot < 0 || slot >= metadata.MaxTextureSlots {
		return
	}
	c.textures[slot] = TextureBinding{Texture: t, Sampler: s, Uniform: uniform}
	if slot+1 > c.textureCount {
		c.textureCount = slot + 1
	}
}

func (c *Command) SetTransform(m math.Mat4) {
	c.transform = m
}

// SetDrawRange limits the draw to count elements starting at first. A zero
// count draws everything from first to the end of the buffer.
func (c *Command) SetDrawRange(first, count uint32) {
	c.first = first
	c.count = count
}

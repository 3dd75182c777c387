package testbed

import (
	"encoding/binary"
	"errors"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/spaghettifunk/cinder/engine"
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer"
	"github.com/spaghettifunk/cinder/engine/renderer/components"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

const (
	WorldView uint8 = 0
	UIView    uint8 = 1

	spriteCount = 128
)

// fallback used when no asset directory is configured
const (
	basicVertexShader = `#version 330 core
layout(location = 0) in vec2 in_position;
layout(location = 1) in vec2 in_texcoord;
uniform mat4 u_view_projection;
uniform mat4 u_transform;
out vec2 texcoord;
void main() {
    texcoord = in_texcoord;
    gl_Position = u_view_projection * u_transform * vec4(in_position, 0.0, 1.0);
}
`
	basicFragmentShader = `#version 330 core
in vec2 texcoord;
uniform vec4 u_colour;
uniform sampler2D u_diffuse;
out vec4 out_colour;
void main() {
    out_colour = texture(u_diffuse, texcoord) * u_colour;
}
`
)

type TestGame struct {
	*engine.Game
}

type sprite struct {
	x, y     float32
	vx, vy   float32
	size     float32
	layer    uint8
	depth    uint16
	colour   *metadata.UniformBuffer
	blending bool
}

type gameState struct {
	program  *metadata.ShaderProgram
	quad     *metadata.Buffer
	indices  *metadata.Buffer
	checker  *metadata.Texture
	sampler  *metadata.Sampler
	panel    *metadata.UniformBuffer
	sprites  []sprite
	camera   *components.Camera
	elapsed  float64
	width    float32
	height   float32
	warnedUI bool
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// SortKey packs the draw order of a command:
//
//	bits 56-63 layer, drawn in ascending order
//	bit  55    translucent, drawn after the opaque commands of the layer
//	bits 32-47 depth, front to back when opaque and back to front otherwise
//	bits 0-15  program, groups commands sharing state
func SortKey(layer uint8, translucent bool, depth uint16, program uint16) uint64 {
	key := uint64(layer) << 56
	if translucent {
		key |= 1 << 55
		depth = ^depth
	}
	key |= uint64(depth) << 32
	key |= uint64(program)
	return key
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")
	st := g.state()
	st.width = float32(g.ApplicationConfig.Application.StartWidth)
	st.height = float32(g.ApplicationConfig.Application.StartHeight)

	if g.Assets != nil {
		p, err := g.Assets.LoadShader("basic")
		if err != nil {
			return err
		}
		st.program = p
	} else {
		st.program = metadata.NewShaderProgram("basic", basicVertexShader, basicFragmentShader)
	}

	// unit quad: position and texcoord per vertex
	vertices, err := binary.Append(nil, binary.LittleEndian, []float32{
		-0.5, -0.5, 0, 0,
		0.5, -0.5, 1, 0,
		0.5, 0.5, 1, 1,
		-0.5, 0.5, 0, 1,
	})
	if err != nil {
		return err
	}
	indices, err := binary.Append(nil, binary.LittleEndian, []uint16{0, 1, 2, 2, 3, 0})
	if err != nil {
		return err
	}
	st.quad = metadata.NewVertexBuffer("quad", vertices, 16, metadata.BufferUsageStatic)
	st.indices = metadata.NewIndexBuffer("quad_indices", indices, metadata.IndexFormatUint16, metadata.BufferUsageStatic)

	st.checker, err = metadata.NewTexture("checker", 8, 8, metadata.PixelFormatRGBA8, checkerboard(8))
	if err != nil {
		return err
	}
	st.sampler = metadata.NewSampler("nearest", metadata.TextureFilterModeNearest, metadata.TextureFilterModeNearest, metadata.TextureRepeatRepeat, metadata.TextureRepeatRepeat)

	st.camera = components.NewCamera()
	if g.Events != nil {
		g.Events.Register(core.EVENT_CODE_SHADER_RELOADED, g, onShaderReloaded)
	}

	st.panel = metadata.NewUniformBuffer()
	st.panel.Set("u_colour", metadata.Float4(math.NewVec4Create(0.2, 0.2, 0.25, 0.8)))

	rng := rand.New(rand.NewPCG(7, 11))
	palette := make([]*metadata.UniformBuffer, 4)
	for i := range palette {
		palette[i] = metadata.NewUniformBuffer()
		palette[i].Set("u_colour", metadata.Float4(math.NewVec4Create(rng.Float32(), rng.Float32(), rng.Float32(), 1)))
	}
	st.sprites = make([]sprite, spriteCount)
	for i := range st.sprites {
		st.sprites[i] = sprite{
			x:        rng.Float32() * st.width,
			y:        rng.Float32() * st.height,
			vx:       (rng.Float32() - 0.5) * 200,
			vy:       (rng.Float32() - 0.5) * 200,
			size:     16 + rng.Float32()*48,
			layer:    uint8(rng.IntN(3)),
			depth:    uint16(rng.IntN(1 << 16)),
			colour:   palette[i%len(palette)],
			blending: i%5 == 0,
		}
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	st := g.state()
	st.elapsed += deltaTime
	dt := float32(deltaTime)
	for i := range st.sprites {
		s := &st.sprites[i]
		s.x += s.vx * dt
		s.y += s.vy * dt
		if s.x < 0 || s.x > st.width {
			s.vx = -s.vx
		}
		if s.y < 0 || s.y > st.height {
			s.vy = -s.vy
		}
	}

	// slow sway of the world view
	t := float32(st.elapsed)
	st.camera.SetPosition(20*math32.Sin(t*0.5), 10*math32.Cos(t*0.5))
	st.camera.SetZoom(1 + 0.05*math32.Sin(t))
	if g.Renderer == nil {
		return nil
	}
	if err := g.Renderer.SetViewTransform(WorldView, st.camera.GetView()); err != nil && !errors.Is(err, core.ErrInvalidView) {
		return err
	}
	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	st := g.state()
	if world, ok := g.Buckets[WorldView]; ok {
		pulse := 1 + 0.1*math32.Sin(float32(st.elapsed)*2)
		for i := range st.sprites {
			s := &st.sprites[i]
			cmd, err := world.AddCommand(SortKey(s.layer, s.blending, s.depth, uint16(st.program.Handle()+1)))
			if err != nil {
				// the frame keeps what fits
				break
			}
			g.quadCommand(cmd, s.colour)
			size := s.size * pulse
			cmd.SetTransform(math.NewMat4Translation(s.x, s.y, 0).Mul(math.NewMat4Scale(size, size, 1)))
			if s.blending {
				cmd.SetBlendState(metadata.AlphaBlendState())
				cmd.SetDepthState(&metadata.DepthState{TestEnabled: true, Func: metadata.CompareLess})
			}
		}
	}

	ui, ok := g.Buckets[UIView]
	if !ok {
		if !st.warnedUI {
			core.LogWarn("no bucket configured for the ui view")
			st.warnedUI = true
		}
		return nil
	}
	cmd, err := ui.AddCommand(SortKey(0, true, 0, 0))
	if err != nil {
		return err
	}
	g.quadCommand(cmd, st.panel)
	cmd.SetBlendState(metadata.AlphaBlendState())
	cmd.SetTransform(math.NewMat4Translation(st.width/2, 24, 0).Mul(math.NewMat4Scale(st.width-32, 32, 1)))
	return nil
}

// called from the asset watcher goroutine; the renderer picks the new
// source up on its own
func onShaderReloaded(code core.SystemEventCode, sender any, listener any, data core.EventContext) bool {
	core.LogInfo("testbed: shader %q now at version %d", data.Data.C[0], data.Data.U64[0])
	return false
}

func (g *TestGame) quadCommand(cmd *renderer.Command, colour *metadata.UniformBuffer) {
	st := g.state()
	cmd.SetShaderProgram(st.program)
	cmd.SetVertexBuffer(st.quad)
	cmd.SetIndexBuffer(st.indices)
	cmd.SetUniformBuffer(colour)
	cmd.SetTexture(0, st.checker, st.sampler, "u_diffuse")
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	st := g.state()
	st.width, st.height = float32(width), float32(height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed after %.1fs", g.state().elapsed)
	return nil
}

func checkerboard(size int) []byte {
	pixels := make([]byte, 0, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := byte(255)
			if (x+y)%2 == 1 {
				v = 96
			}
			pixels = append(pixels, v, v, v, 255)
		}
	}
	return pixels
}

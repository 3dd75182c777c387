// Package backend defines the narrow interface the renderer drives. One
// implementation exists per graphics API and is picked at startup.
package backend

import (
	"fmt"

	"github.com/spaghettifunk/cinder/engine/math"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

// Family identifies the graphics API behind a Backend.
type Family uint8

const (
	FamilyHeadless Family = iota
	FamilyOpenGL
	FamilyOpenGLES
	FamilyVulkan
)

func (f Family) String() string {
	switch f {
	case FamilyHeadless:
		return "headless"
	case FamilyOpenGL:
		return "opengl"
	case FamilyOpenGLES:
		return "opengles"
	case FamilyVulkan:
		return "vulkan"
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

type Version struct {
	Major, Minor int
}

func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// MinimumVersion is the lowest API version the renderer runs on, per family.
var MinimumVersion = map[Family]Version{
	FamilyHeadless: {1, 0},
	FamilyOpenGL:   {3, 3},
	FamilyOpenGLES: {3, 0},
	FamilyVulkan:   {1, 1},
}

type Capabilities struct {
	Family          Family
	Version         Version
	MaxTextureSlots int
	Renderer        string
}

// Object is a native graphics object. Dispose is only ever called from the
// render goroutine.
type Object interface {
	Dispose()
}

type (
	BufferObject  Object
	ProgramObject Object
	TextureObject Object
	SamplerObject Object
)

// ViewState is everything needed to start drawing into a view.
type ViewState struct {
	Viewport    math.Rect
	Scissor     *math.Rect
	ClearFlags  metadata.ClearFlags
	ClearColour math.Vec4
	ClearDepth  float32
}

// Backend is driven exclusively by the render goroutine.
type Backend interface {
	// CreateContext binds the backend to a native window. Headless backends ignore the handle.
	CreateContext(window uintptr) error
	Capabilities() Capabilities
	Resize(width, height uint32)
	Shutdown() error

	SetView(view ViewState)
	UseProgram(program ProgramObject)
	// UniformLocation returns -1 when the program has no such uniform.
	UniformLocation(program ProgramObject, name string) int32
	SetUniform(location int32, value *metadata.UniformValue)
	BindVertexBuffer(buffer BufferObject, stride uint32)
	BindIndexBuffer(buffer BufferObject, format metadata.IndexFormat)
	SetBlendState(state metadata.BlendState)
	SetDepthState(state metadata.DepthState)
	SetRasterState(state metadata.RasterState)
	BindTexture(slot int, texture TextureObject, sampler SamplerObject)
	DrawIndexed(primitive metadata.PrimitiveType, first, count uint32)
	DrawArrays(primitive metadata.PrimitiveType, first, count uint32)
	SwapBuffers()

	CreateBuffer(kind metadata.BufferKind, usage metadata.BufferUsage, data []byte) (BufferObject, error)
	UpdateBuffer(buffer BufferObject, data []byte) error
	// CompileProgram compiles and links both stages. The returned log holds
	// the compiler diagnostics, also on success.
	CompileProgram(vertexSource, fragmentSource string) (ProgramObject, string, error)
	CreateTexture(width, height uint32, format metadata.PixelFormat, pixels []byte) (TextureObject, error)
	UpdateTexture(texture TextureObject, pixels []byte) error
	CreateSampler(sampler *metadata.Sampler) (SamplerObject, error)
}

package headless

import (
	"testing"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `#version 330 core
uniform mat4 u_view_projection;
uniform mat4 u_transform;
void main() {}
`

const fragmentSource = `#version 330 core
uniform vec4 u_colour;
uniform sampler2D u_textures[4];
void main() {}
`

func TestCompileProgramAssignsUniformLocations(t *testing.T) {
	b := New(DefaultOptions())
	prog, log, err := b.CompileProgram(vertexSource, fragmentSource)
	require.NoError(t, err)
	assert.Empty(t, log)

	assert.Equal(t, int32(0), b.UniformLocation(prog, metadata.ViewProjectionUniform))
	assert.Equal(t, int32(1), b.UniformLocation(prog, metadata.TransformUniform))
	assert.Equal(t, int32(2), b.UniformLocation(prog, "u_colour"))
	assert.Equal(t, int32(3), b.UniformLocation(prog, "u_textures"))
	assert.Equal(t, int32(-1), b.UniformLocation(prog, "u_missing"))
}

func TestCompileProgramReportsDiagnostics(t *testing.T) {
	b := New(DefaultOptions())

	_, log, err := b.CompileProgram("", fragmentSource)
	assert.ErrorIs(t, err, core.ErrShaderLink)
	assert.Contains(t, log, "vertex stage: empty source")

	_, log, err = b.CompileProgram(vertexSource, "void main() {}\n#error missing colour\n")
	assert.ErrorIs(t, err, core.ErrShaderLink)
	assert.Contains(t, log, "fragment stage:2: missing colour")

	opts := DefaultOptions()
	opts.FailCompile = func(vs, fs string) bool { return true }
	_, log, err = New(opts).CompileProgram(vertexSource, fragmentSource)
	assert.ErrorIs(t, err, core.ErrShaderLink)
	assert.Contains(t, log, "link")
}

func TestObjectsAreTrackedUntilDisposed(t *testing.T) {
	b := New(DefaultOptions())
	buf, err := b.CreateBuffer(metadata.BufferKindVertex, metadata.BufferUsageStatic, []byte{1, 2, 3})
	require.NoError(t, err)
	tex, err := b.CreateTexture(1, 1, metadata.PixelFormatRGBA8, make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, b.LiveObjects())

	require.NoError(t, b.UpdateBuffer(buf, []byte{4, 5}))
	assert.Equal(t, []byte{4, 5}, BufferData(buf))

	buf.Dispose()
	tex.Dispose()
	assert.Equal(t, 0, b.LiveObjects())
	assert.Equal(t, 2, b.Count(OpDispose))

	_, err = b.CreateTexture(1, 1, metadata.PixelFormatUnknown, nil)
	assert.ErrorIs(t, err, core.ErrUnknownPixelFormat)
}

func TestDrawCapturesBoundObjects(t *testing.T) {
	b := New(DefaultOptions())
	prog, _, err := b.CompileProgram(vertexSource, fragmentSource)
	require.NoError(t, err)
	vb, _ := b.CreateBuffer(metadata.BufferKindVertex, metadata.BufferUsageStatic, make([]byte, 48))
	ib, _ := b.CreateBuffer(metadata.BufferKindIndex, metadata.BufferUsageStatic, make([]byte, 6))

	b.UseProgram(prog)
	b.BindVertexBuffer(vb, 16)
	b.BindIndexBuffer(ib, metadata.IndexFormatUint16)
	b.DrawIndexed(metadata.PrimitiveTriangles, 0, 3)

	draws := b.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, ObjectID(prog), draws[0].Program)
	assert.Equal(t, ObjectID(vb), draws[0].Vertex)
	assert.Equal(t, ObjectID(ib), draws[0].Index)
	assert.Equal(t, "triangles", draws[0].Arg)
	assert.Equal(t, uint32(3), draws[0].Count)

	b.Reset()
	assert.Empty(t, b.Calls())
}

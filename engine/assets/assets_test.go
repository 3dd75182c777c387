package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/cinder/engine/assets/loaders"
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

const (
	vertexSource   = "#version 330 core\nuniform mat4 u_transform;\nvoid main() {}\n"
	fragmentSource = "#version 330 core\nvoid main() {}\n"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newAssetDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "basic.vert"), []byte(vertexSource))
	writeFile(t, filepath.Join(dir, "shaders", "basic.frag"), []byte(fragmentSource))
	writeFile(t, filepath.Join(dir, "meshes", "triangle.bin"), make([]byte, 36))
	writeFile(t, filepath.Join(dir, "README.txt"), []byte("not an asset"))

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "textures"), 0o755))
	f, err := os.Create(filepath.Join(dir, "textures", "white.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return dir
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, metadata.ResourceTypeShader, determineAssetType("a/b.vert"))
	assert.Equal(t, metadata.ResourceTypeShader, determineAssetType("b.frag"))
	assert.Equal(t, metadata.ResourceTypeImage, determineAssetType("b.webp"))
	assert.Equal(t, metadata.ResourceTypeImage, determineAssetType("b.png"))
	assert.Equal(t, metadata.ResourceTypeBinary, determineAssetType("b.bin"))
	assert.Equal(t, metadata.ResourceTypeNone, determineAssetType("b.txt"))
}

func TestAssetManagerIndexesRoot(t *testing.T) {
	dir := newAssetDir(t)
	am, err := NewAssetManager(dir, false)
	require.NoError(t, err)
	defer am.Shutdown()

	assert.Len(t, am.Assets(), 4)
	info, ok := am.Lookup("shaders/basic.vert")
	require.True(t, ok)
	assert.Equal(t, metadata.ResourceTypeShader, info.Type)
	assert.True(t, info.LastLoaded.IsZero())
	_, ok = am.Lookup("README.txt")
	assert.False(t, ok)
}

func TestAssetManagerMissingRoot(t *testing.T) {
	_, err := NewAssetManager(filepath.Join(t.TempDir(), "missing"), true)
	assert.Error(t, err)
}

func TestLoadShader(t *testing.T) {
	am, err := NewAssetManager(newAssetDir(t), false)
	require.NoError(t, err)
	defer am.Shutdown()

	p, err := am.LoadShader("basic")
	require.NoError(t, err)
	vs, fs, version := p.Source()
	assert.Equal(t, vertexSource, vs)
	assert.Equal(t, fragmentSource, fs)
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, "basic", p.Name())

	info, ok := am.Lookup("shaders/basic.frag")
	require.True(t, ok)
	assert.False(t, info.LastLoaded.IsZero())

	_, err = am.LoadShader("missing")
	assert.Error(t, err)
}

func TestLoadTexture(t *testing.T) {
	am, err := NewAssetManager(newAssetDir(t), false)
	require.NoError(t, err)
	defer am.Shutdown()

	tex, err := am.LoadTexture("white.png", &loaders.TextureParams{FlipY: true})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, metadata.PixelFormatRGBA8, tex.Format)

	pixels, _ := tex.Pixels()
	require.Len(t, pixels, 16)
	// flipped: the blue pixel of the second row comes first
	assert.Equal(t, []byte{0, 0, 255, 255}, pixels[0:4])
}

func TestLoadVertexBuffer(t *testing.T) {
	am, err := NewAssetManager(newAssetDir(t), false)
	require.NoError(t, err)
	defer am.Shutdown()

	vb, err := am.LoadVertexBuffer("triangle.bin", 12, metadata.BufferUsageStatic)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), vb.Count())

	_, err = am.LoadVertexBuffer("triangle.bin", 5, metadata.BufferUsageStatic)
	assert.Error(t, err)
}

func TestLoadAfterShutdown(t *testing.T) {
	am, err := NewAssetManager(newAssetDir(t), true)
	require.NoError(t, err)
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())

	_, err = am.LoadShader("basic")
	assert.ErrorIs(t, err, ErrAssetManagerClosed)
	_, err = am.LoadAsset("x", metadata.ResourceTypeNone, nil)
	assert.Error(t, err)
}

func TestShaderHotReload(t *testing.T) {
	dir := newAssetDir(t)
	am, err := NewAssetManager(dir, true)
	require.NoError(t, err)
	defer am.Shutdown()

	bus := core.NewEventBus()
	reloaded := make(chan string, 4)
	bus.Register(core.EVENT_CODE_SHADER_RELOADED, nil, func(code core.SystemEventCode, sender, listener any, data core.EventContext) bool {
		select {
		case reloaded <- data.Data.C[0]:
		default:
		}
		return true
	})
	am.SetEventBus(bus)

	p, err := am.LoadShader("basic")
	require.NoError(t, err)

	changed := "#version 330 core\nuniform vec4 u_colour;\nvoid main() {}\n"
	writeFile(t, filepath.Join(dir, "shaders", "basic.frag"), []byte(changed))

	require.Eventually(t, func() bool {
		_, fs, _ := p.Source()
		return fs == changed
	}, 5*time.Second, 10*time.Millisecond)
	assert.Greater(t, p.Version(), uint64(1))

	select {
	case name := <-reloaded:
		assert.Equal(t, p.Name(), name)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload event fired")
	}
}

// loadDetachedShader loads a program and keeps only a weak reference to it.
func loadDetachedShader(t *testing.T, am *AssetManager) weak.Pointer[metadata.ShaderProgram] {
	p, err := am.LoadShader("basic")
	require.NoError(t, err)
	return weak.Make(p)
}

func TestDroppedShaderIsCollectable(t *testing.T) {
	for _, watch := range []bool{false, true} {
		dir := newAssetDir(t)
		am, err := NewAssetManager(dir, watch)
		require.NoError(t, err)

		ref := loadDetachedShader(t, am)
		for i := 0; i < 10 && ref.Value() != nil; i++ {
			runtime.GC()
		}
		assert.Nil(t, ref.Value(), "watch=%v", watch)

		am.mutex.RLock()
		tracked := len(am.shaders)
		am.mutex.RUnlock()
		if watch {
			assert.Equal(t, 1, tracked)
			// the next change of the files drops the dead entry
			writeFile(t, filepath.Join(dir, "shaders", "basic.frag"), []byte("void main() {}\n"))
			require.Eventually(t, func() bool {
				am.mutex.RLock()
				defer am.mutex.RUnlock()
				return len(am.shaders) == 0
			}, 5*time.Second, 10*time.Millisecond)
		} else {
			assert.Equal(t, 0, tracked)
		}
		require.NoError(t, am.Shutdown())
	}
}

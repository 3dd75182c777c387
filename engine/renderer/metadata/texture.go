package metadata

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/cinder/engine/core"
)

/** @brief The maximum number of texture slots a single command can bind. */
const MaxTextureSlots = 8

/** @brief The layout of a single texel. */
type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatR8
	PixelFormatRG8
	PixelFormatRGB8
	PixelFormatRGBA8
	PixelFormatRGBA16F
	PixelFormatDepth24Stencil8
	pixelFormatCount
)

var pixelFormatSizes = [pixelFormatCount]int{
	PixelFormatUnknown:         0,
	PixelFormatR8:              1,
	PixelFormatRG8:             2,
	PixelFormatRGB8:            3,
	PixelFormatRGBA8:           4,
	PixelFormatRGBA16F:         8,
	PixelFormatDepth24Stencil8: 4,
}

// BytesPerPixel returns the size of one texel, or ErrUnknownPixelFormat.
func (f PixelFormat) BytesPerPixel() (int, error) {
	if f == PixelFormatUnknown || f >= pixelFormatCount {
		return 0, fmt.Errorf("pixel format %d: %w", f, core.ErrUnknownPixelFormat)
	}
	return pixelFormatSizes[f], nil
}

/**
 * @brief Represents a 2D texture.
 */
type Texture struct {
	ResourceHandle

	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	Format PixelFormat

	mu      sync.Mutex
	pixels  []byte
	version uint64

	// render goroutine only
	uploaded uint64
}

// NewTexture validates the format and the pixel data size. A nil pixel slice
// creates an uninitialised texture.
func NewTexture(name string, width, height uint32, format PixelFormat, pixels []byte) (*Texture, error) {
	bpp, err := format.BytesPerPixel()
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d", name, width, height)
	}
	if pixels != nil && len(pixels) != int(width)*int(height)*bpp {
		return nil, fmt.Errorf("texture %q: expected %d bytes of pixel data, got %d", name, int(width)*int(height)*bpp, len(pixels))
	}
	t := &Texture{
		Width:   width,
		Height:  height,
		Format:  format,
		pixels:  pixels,
		version: 1,
	}
	t.setName(name)
	return t, nil
}

// SetPixels replaces the texel data. The size must match the texture.
func (t *Texture) SetPixels(pixels []byte) error {
	bpp, err := t.Format.BytesPerPixel()
	if err != nil {
		return err
	}
	if len(pixels) != int(t.Width)*int(t.Height)*bpp {
		return fmt.Errorf("texture %q: expected %d bytes of pixel data, got %d", t.Name(), int(t.Width)*int(t.Height)*bpp, len(pixels))
	}
	t.mu.Lock()
	t.pixels = pixels
	t.version++
	t.mu.Unlock()
	return nil
}

func (t *Texture) Pixels() ([]byte, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pixels, t.version
}

func (t *Texture) UploadedVersion() uint64 {
	return t.uploaded
}

func (t *Texture) SetUploadedVersion(v uint64) {
	t.uploaded = v
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = iota
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear
)

type TextureRepeat int

const (
	TextureRepeatRepeat TextureRepeat = iota
	TextureRepeatMirroredRepeat
	TextureRepeatClampToEdge
	TextureRepeatClampToBorder
)

/**
 * @brief Describes how a texture is sampled. Immutable once created.
 */
type Sampler struct {
	ResourceHandle

	/** @brief Texture filtering mode for minification. */
	FilterMinify TextureFilter
	/** @brief Texture filtering mode for magnification. */
	FilterMagnify TextureFilter
	/** @brief The repeat mode on the U axis (or X, or S) */
	RepeatU TextureRepeat
	/** @brief The repeat mode on the V axis (or Y, or T) */
	RepeatV TextureRepeat
}

func NewSampler(name string, minify, magnify TextureFilter, repeatU, repeatV TextureRepeat) *Sampler {
	s := &Sampler{
		FilterMinify:  minify,
		FilterMagnify: magnify,
		RepeatU:       repeatU,
		RepeatV:       repeatV,
	}
	s.setName(name)
	return s
}

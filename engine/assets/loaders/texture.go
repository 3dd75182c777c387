package loaders

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// registered decoders
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

type TextureParams struct {
	// FlipY puts the first row of the image at the bottom of the texture.
	FlipY bool
	// MaxSize > 0 scales larger images down so neither side exceeds it.
	MaxSize int
}

// TextureLoader decodes an image file into an RGBA8 texture.
type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, assetType metadata.ResourceType, params any) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	var opts TextureParams
	if p, ok := params.(*TextureParams); ok && p != nil {
		opts = *p
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	texture, err := NewTextureFromImage(name, img, opts)
	if err != nil {
		return nil, err
	}
	pixels, _ := texture.Pixels()
	return &Resource{
		Name:     name + "." + format,
		FullPath: path,
		Type:     metadata.ResourceTypeImage,
		DataSize: uint64(len(pixels)),
		Data:     texture,
	}, nil
}

func (tl *TextureLoader) Unload(*Resource) error {
	return nil
}

// NewTextureFromImage converts any image to tightly packed RGBA8 texel data.
func NewTextureFromImage(name string, img image.Image, params TextureParams) (*metadata.Texture, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("texture %q: image is empty", name)
	}
	w, h := fitSize(bounds.Dx(), bounds.Dy(), params.MaxSize)
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, bounds, draw.Src, nil)
	}
	if params.FlipY {
		flipRows(rgba)
	}
	return metadata.NewTexture(name, uint32(w), uint32(h), metadata.PixelFormatRGBA8, rgba.Pix)
}

// fitSize keeps the aspect ratio, every side is at least one texel.
func fitSize(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}

func flipRows(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

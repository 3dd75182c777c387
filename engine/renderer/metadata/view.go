package metadata

import "github.com/spaghettifunk/cinder/engine/math"

/** @brief The maximum number of views; view ids are a single byte. */
const MaxViews = 256

type ClearFlags uint8

const (
	ClearNone    ClearFlags = 0x0
	ClearColour  ClearFlags = 0x1
	ClearDepth   ClearFlags = 0x2
	ClearStencil ClearFlags = 0x4
)

/**
 * @brief Describes a render target area and its per-frame clear. A viewport
 * with a zero size covers the whole framebuffer and follows it on resize.
 */
type ViewConfig struct {
	ID          uint8
	Name        string
	Viewport    math.Rect
	Scissor     *math.Rect
	ClearFlags  ClearFlags
	ClearColour math.Vec4
	/** @brief Clamped to [0,1]. */
	ClearDepth float32
	View       math.Mat4
	Projection math.Mat4
}

// Fullscreen reports whether the view follows the framebuffer size.
func (v *ViewConfig) Fullscreen() bool {
	return v.Viewport.Empty()
}

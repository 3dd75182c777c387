package components

import (
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/cinder/engine/math"
)

/**
 * @brief Represents a 2D camera looking down the Z axis. Its view matrix is
 * what a view uses as ViewConfig.View.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	X, Y float32
	/** @brief Rotation around the Z axis, in radians. */
	Rotation float32
	/** @brief Scale applied to the world, 1 is no zoom. */
	Zoom float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix math.Mat4
}

/** @brief The closest the camera can zoom out. */
const MinZoom float32 = 0.05

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.Rotation = 0
	c.Zoom = 1
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
}

func (c *Camera) SetPosition(x, y float32) {
	c.X, c.Y = x, y
	c.IsDirty = true
}

func (c *Camera) Move(dx, dy float32) {
	c.X += dx
	c.Y += dy
	c.IsDirty = true
}

func (c *Camera) Rotate(amount float32) {
	c.Rotation += amount
	c.IsDirty = true
}

func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = math32.Max(zoom, MinZoom)
	c.IsDirty = true
}

// GetView returns the inverse of the camera transform: world positions are
// moved by -position, rotated by -rotation and scaled by zoom.
func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		scale := math.NewMat4Scale(c.Zoom, c.Zoom, 1)
		rotation := math.NewMat4RotationZ(-c.Rotation)
		translation := math.NewMat4Translation(-c.X, -c.Y, 0)

		c.ViewMatrix = scale.Mul(rotation).Mul(translation)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

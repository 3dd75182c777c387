package components

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/cinder/engine/math"
)

func TestCameraStartsAtIdentity(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, math.NewMat4Identity(), c.GetView())
}

func TestCameraTranslatesWorldOpposite(t *testing.T) {
	c := NewCamera()
	c.SetPosition(10, 5)
	c.Move(1, 0)

	view := c.GetView()
	assert.False(t, c.IsDirty)
	assert.Equal(t, float32(-11), view.Data[12])
	assert.Equal(t, float32(-5), view.Data[13])
}

func TestCameraZoomScalesAndClamps(t *testing.T) {
	c := NewCamera()
	c.SetZoom(2)
	view := c.GetView()
	assert.Equal(t, float32(2), view.Data[0])
	assert.Equal(t, float32(2), view.Data[5])
	assert.Equal(t, float32(1), view.Data[10])

	c.SetZoom(0)
	assert.Equal(t, MinZoom, c.Zoom)
}

func TestCameraRotation(t *testing.T) {
	c := NewCamera()
	c.Rotate(math32.Pi / 2)
	view := c.GetView()
	// rotating the camera left turns the world right
	assert.InDelta(t, 0, view.Data[0], 1e-6)
	assert.InDelta(t, -1, view.Data[1], 1e-6)

	c.Reset()
	assert.Equal(t, math.NewMat4Identity(), c.GetView())
}

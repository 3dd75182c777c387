package math

import "github.com/chewxy/math32"

const FLOAT_EPSILON float32 = 1.192092896e-07

func NewVec4Create(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Compare reports whether every component of v is within tolerance of other.
func (v Vec4) Compare(other Vec4, tolerance float32) bool {
	return math32.Abs(v.X-other.X) <= tolerance &&
		math32.Abs(v.Y-other.Y) <= tolerance &&
		math32.Abs(v.Z-other.Z) <= tolerance &&
		math32.Abs(v.W-other.W) <= tolerance
}

func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1.0
	m.Data[5] = 1.0
	m.Data[10] = 1.0
	m.Data[15] = 1.0
	return m
}

// NewMat4Translation creates a translation matrix.
func NewMat4Translation(x, y, z float32) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = x
	m.Data[13] = y
	m.Data[14] = z
	return m
}

// NewMat4Scale creates a scale matrix.
func NewMat4Scale(x, y, z float32) Mat4 {
	m := NewMat4Identity()
	m.Data[0] = x
	m.Data[5] = y
	m.Data[10] = z
	return m
}

// NewMat4RotationZ creates a rotation of angle radians around the Z axis.
func NewMat4RotationZ(angle float32) Mat4 {
	m := NewMat4Identity()
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	m.Data[0] = c
	m.Data[1] = s
	m.Data[4] = -s
	m.Data[5] = c
	return m
}

// NewMat4Orthographic creates an orthographic projection matrix, mapping the
// given box to clip space.
func NewMat4Orthographic(left, right, bottom, top, nearClip, farClip float32) Mat4 {
	m := NewMat4Identity()
	lr := 1.0 / (left - right)
	bt := 1.0 / (bottom - top)
	nf := 1.0 / (nearClip - farClip)

	m.Data[0] = -2.0 * lr
	m.Data[5] = -2.0 * bt
	m.Data[10] = 2.0 * nf

	m.Data[12] = (left + right) * lr
	m.Data[13] = (top + bottom) * bt
	m.Data[14] = (farClip + nearClip) * nf
	return m
}

// Mul returns m * other.
func (m Mat4) Mul(other Mat4) Mat4 {
	out := Mat4{}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.Data[k*4+row] * other.Data[col*4+k]
			}
			out.Data[col*4+row] = sum
		}
	}
	return out
}

// Compare reports whether every element of m is within tolerance of other.
func (m Mat4) Compare(other Mat4, tolerance float32) bool {
	for i := range m.Data {
		if math32.Abs(m.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}

package metadata

import "github.com/spaghettifunk/cinder/engine/math"

const (
	/** @brief Uniform receiving the per-command transform. */
	TransformUniform = "u_transform"
	/** @brief Uniform receiving projection * view of the current view. */
	ViewProjectionUniform = "u_view_projection"
)

/** @brief The shape of a uniform value. */
type UniformKind uint8

const (
	UniformFloat UniformKind = iota
	UniformFloat2
	UniformFloat3
	UniformFloat4
	UniformMat4
	UniformInt
)

func (k UniformKind) Components() int {
	switch k {
	case UniformFloat, UniformInt:
		return 1
	case UniformFloat2:
		return 2
	case UniformFloat3:
		return 3
	case UniformFloat4:
		return 4
	case UniformMat4:
		return 16
	}
	return 0
}

/**
 * @brief A uniform value tagged with its kind. The backend switches on Kind
 * to pick the upload call.
 */
type UniformValue struct {
	Kind   UniformKind
	floats [16]float32
	i      int32
}

func Float(f float32) UniformValue {
	v := UniformValue{Kind: UniformFloat}
	v.floats[0] = f
	return v
}

func Float2(x, y float32) UniformValue {
	v := UniformValue{Kind: UniformFloat2}
	v.floats[0], v.floats[1] = x, y
	return v
}

func Float3(x, y, z float32) UniformValue {
	v := UniformValue{Kind: UniformFloat3}
	v.floats[0], v.floats[1], v.floats[2] = x, y, z
	return v
}

func Float4(c math.Vec4) UniformValue {
	v := UniformValue{Kind: UniformFloat4}
	v.floats[0], v.floats[1], v.floats[2], v.floats[3] = c.X, c.Y, c.Z, c.W
	return v
}

func Matrix(m math.Mat4) UniformValue {
	return UniformValue{Kind: UniformMat4, floats: m.Data}
}

func Int(i int32) UniformValue {
	return UniformValue{Kind: UniformInt, i: i}
}

// Floats returns the float components of the value; empty for UniformInt.
func (v *UniformValue) Floats() []float32 {
	if v.Kind == UniformInt {
		return nil
	}
	return v.floats[:v.Kind.Components()]
}

func (v *UniformValue) Int() int32 {
	return v.i
}

func (v *UniformValue) Mat4() math.Mat4 {
	return math.Mat4{Data: v.floats}
}

type uniformEntry struct {
	name  string
	value UniformValue
}

/**
 * @brief A set of named uniforms shared by many commands. Commands only hold a
 * pointer, so updating the set affects every command that references it; the
 * render goroutine re-uploads the set when the program or the version changes.
 */
type UniformBuffer struct {
	entries []uniformEntry
	index   map[string]int
	version uint64
}

func NewUniformBuffer() *UniformBuffer {
	return &UniformBuffer{
		index:   make(map[string]int),
		version: 1,
	}
}

// Set adds or replaces a uniform. Must not be called while a frame that
// references the buffer is being drawn.
func (u *UniformBuffer) Set(name string, value UniformValue) {
	if i, ok := u.index[name]; ok {
		if u.entries[i].value == value {
			return
		}
		u.entries[i].value = value
	} else {
		u.index[name] = len(u.entries)
		u.entries = append(u.entries, uniformEntry{name: name, value: value})
	}
	u.version++
}

func (u *UniformBuffer) Get(name string) (UniformValue, bool) {
	i, ok := u.index[name]
	if !ok {
		return UniformValue{}, false
	}
	return u.entries[i].value, true
}

// Each calls fn for every uniform in insertion order.
func (u *UniformBuffer) Each(fn func(name string, value *UniformValue)) {
	for i := range u.entries {
		fn(u.entries[i].name, &u.entries[i].value)
	}
}

func (u *UniformBuffer) Len() int {
	return len(u.entries)
}

func (u *UniformBuffer) Version() uint64 {
	return u.version
}

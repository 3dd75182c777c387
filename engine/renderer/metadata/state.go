package metadata

/** @brief The topology used to assemble vertices into primitives. */
type PrimitiveType uint8

const (
	PrimitiveTriangles PrimitiveType = iota
	PrimitiveTriangleStrip
	PrimitiveLines
	PrimitiveLineStrip
	PrimitivePoints
)

type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendDstAlpha
)

type BlendOp uint8

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

/** @brief Colour blending configuration. */
type BlendState struct {
	Enabled bool
	Src     BlendFactor
	Dst     BlendFactor
	Op      BlendOp
}

type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

/** @brief Depth test and depth write configuration. */
type DepthState struct {
	TestEnabled  bool
	WriteEnabled bool
	Func         CompareFunc
}

type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

type Winding uint8

const (
	WindingCounterClockwise Winding = iota
	WindingClockwise
)

/** @brief Rasteriser configuration. */
type RasterState struct {
	Cull      CullMode
	FrontFace Winding
	Wireframe bool
}

// DefaultBlendState disables blending.
func DefaultBlendState() *BlendState {
	return &BlendState{Enabled: false, Src: BlendOne, Dst: BlendZero, Op: BlendOpAdd}
}

// AlphaBlendState is the usual "over" operator for translucent geometry.
func AlphaBlendState() *BlendState {
	return &BlendState{Enabled: true, Src: BlendSrcAlpha, Dst: BlendOneMinusSrcAlpha, Op: BlendOpAdd}
}

func DefaultDepthState() *DepthState {
	return &DepthState{TestEnabled: true, WriteEnabled: true, Func: CompareLess}
}

func DefaultRasterState() *RasterState {
	return &RasterState{Cull: CullBack, FrontFace: WindingCounterClockwise}
}

package renderer

// FrameStats describes the last drawn frame. Bind counts only include calls
// that reached the backend, redundant ones skipped by the frame state are not
// counted.
type FrameStats struct {
	// Frames drawn since the renderer started.
	Frames   uint64
	Commands int
	Draws    int
	Skipped  int

	ViewChanges    int
	ProgramBinds   int
	UniformUploads int
	StateChanges   int
	VertexBinds    int
	IndexBinds     int
	TextureBinds   int

	Compiles int
	Uploads  int
	Disposed int

	// FPS and FrameTime (milliseconds) come from the rolling frame metrics.
	FPS       float64
	FrameTime float64
}

package metadata

import "sync"

type BufferKind uint8

const (
	BufferKindVertex BufferKind = iota
	BufferKindIndex
)

func (k BufferKind) String() string {
	switch k {
	case BufferKindVertex:
		return "vertex"
	case BufferKindIndex:
		return "index"
	}
	return "unknown"
}

/** @brief The width of a single index in an index buffer. */
type IndexFormat uint8

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

func (f IndexFormat) Size() uint32 {
	if f == IndexFormatUint32 {
		return 4
	}
	return 2
}

type BufferUsage uint8

const (
	/** @brief Uploaded once, rarely changed. */
	BufferUsageStatic BufferUsage = iota
	/** @brief Rewritten often by the producer. */
	BufferUsageDynamic
)

/**
 * @brief A logical vertex or index buffer. The backend object is created by
 * the render goroutine the first time a command references the buffer, and
 * the whole buffer is uploaded again whenever its data changed since the last
 * upload.
 */
type Buffer struct {
	ResourceHandle

	Kind  BufferKind
	Usage BufferUsage
	/** @brief Bytes per vertex. Only used by vertex buffers. */
	Stride uint32
	/** @brief Only used by index buffers. */
	IndexFormat IndexFormat

	mu      sync.Mutex
	data    []byte
	version uint64

	// render goroutine only
	uploaded uint64
}

func NewVertexBuffer(name string, data []byte, stride uint32, usage BufferUsage) *Buffer {
	b := &Buffer{
		Kind:    BufferKindVertex,
		Usage:   usage,
		Stride:  stride,
		data:    data,
		version: 1,
	}
	b.setName(name)
	return b
}

func NewIndexBuffer(name string, data []byte, format IndexFormat, usage BufferUsage) *Buffer {
	b := &Buffer{
		Kind:        BufferKindIndex,
		Usage:       usage,
		IndexFormat: format,
		data:        data,
		version:     1,
	}
	b.setName(name)
	return b
}

// SetData replaces the contents of the buffer. The slice is owned by the
// buffer afterwards and must not be modified by the caller.
func (b *Buffer) SetData(data []byte) {
	b.mu.Lock()
	b.data = data
	b.version++
	b.mu.Unlock()
}

// Data returns the current contents and their version.
func (b *Buffer) Data() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data, b.version
}

// Count returns the number of vertices or indices held by the buffer.
func (b *Buffer) Count() uint32 {
	b.mu.Lock()
	n := uint32(len(b.data))
	b.mu.Unlock()
	switch b.Kind {
	case BufferKindVertex:
		if b.Stride == 0 {
			return 0
		}
		return n / b.Stride
	case BufferKindIndex:
		return n / b.IndexFormat.Size()
	}
	return 0
}

/** @brief The version last uploaded to the backend. Render goroutine only. */
func (b *Buffer) UploadedVersion() uint64 {
	return b.uploaded
}

func (b *Buffer) SetUploadedVersion(v uint64) {
	b.uploaded = v
}

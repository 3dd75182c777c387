package metadata

import (
	"sync/atomic"

	"github.com/google/uuid"
)

type ResourceType int

/** @brief Pre-defined resource types known to the asset loaders. */
const (
	/** @brief Unrecognised file. */
	ResourceTypeNone ResourceType = iota
	/** @brief Shader source text. */
	ResourceTypeShader
	/** @brief Image used as texture data. */
	ResourceTypeImage
	/** @brief Raw binary blob, used for vertex/index data. */
	ResourceTypeBinary
)

/**
 * @brief A slot index inside a resource cache. Valid handles are in the
 * range 0..capacity-1.
 */
type Handle int32

/** @brief The handle of a resource that does not own a cache slot. */
const InvalidHandle Handle = -1

/**
 * @brief The part of every resource wrapper that is shared between the
 * producer and the render goroutine. The render goroutine writes the handle
 * and the realized flag when the backend object is created; the producer may
 * read them at any time.
 */
type ResourceHandle struct {
	// handle+1 so that the zero value means "no handle"
	handle   atomic.Int32
	realized atomic.Bool
	name     string
}

func (r *ResourceHandle) Handle() Handle {
	return Handle(r.handle.Load() - 1)
}

func (r *ResourceHandle) AssignHandle(h Handle) {
	r.handle.Store(int32(h) + 1)
}

/** @brief Indicates whether the backend object has been constructed. */
func (r *ResourceHandle) Realized() bool {
	return r.realized.Load()
}

func (r *ResourceHandle) SetRealized(v bool) {
	r.realized.Store(v)
}

/** @brief The debug name of the resource. */
func (r *ResourceHandle) Name() string {
	return r.name
}

func (r *ResourceHandle) setName(name string) {
	if name == "" {
		name = uuid.New().String()
	}
	r.name = name
}

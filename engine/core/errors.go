package core

import (
	"errors"
)

var (
	// ErrBucketFull is returned when a command bucket has no free slot left for the frame.
	ErrBucketFull = errors.New("command bucket is full")
	// ErrCacheFull is returned when a resource cache has no free handle left.
	ErrCacheFull = errors.New("resource cache is full")
	// ErrUnsupportedBackend is returned when the backend family or version is below the required minimum.
	ErrUnsupportedBackend = errors.New("unsupported backend configuration")
	// ErrUnknownPixelFormat is returned when a texture is created with a format the renderer does not know.
	ErrUnknownPixelFormat = errors.New("unknown pixel format")
	ErrRendererStopped    = errors.New("renderer stopped")
	ErrShaderLink         = errors.New("shader program failed to link")
	ErrInvalidView        = errors.New("invalid view")
	ErrUnknown            = errors.New("unknown")
)

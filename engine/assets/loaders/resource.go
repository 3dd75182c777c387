package loaders

import "github.com/spaghettifunk/cinder/engine/renderer/metadata"

// Resource is what a loader hands back. Data holds the loader specific
// payload: *ShaderSource, *metadata.Texture or []byte.
type Resource struct {
	Name     string
	FullPath string
	Type     metadata.ResourceType
	DataSize uint64
	Data     any
}

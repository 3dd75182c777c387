package assets

import (
	"github.com/spaghettifunk/cinder/engine/assets/loaders"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

type Loader interface {
	// params is loader specific, see the loaders package
	Load(path string, assetType metadata.ResourceType, params any) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}

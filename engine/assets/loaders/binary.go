package loaders

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

type BinaryParams struct {
	Name string
}

// BinaryLoader reads a file as is, used for pre-baked vertex and index data.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, assetType metadata.ResourceType, params any) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	if p, ok := params.(*BinaryParams); ok && p != nil && p.Name != "" {
		name = p.Name
	}

	return &Resource{
		Name:     name,
		FullPath: path,
		Type:     metadata.ResourceTypeBinary,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(*Resource) error {
	return nil
}

package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

const (
	VertexStageExtension   = ".vert"
	FragmentStageExtension = ".frag"
)

// ShaderSource holds both stages of a program.
type ShaderSource struct {
	Vertex   string
	Fragment string
}

// ShaderLoader reads the two stage files of a program. The path may name
// either stage or the program without extension, "shaders/basic" loads
// "shaders/basic.vert" and "shaders/basic.frag".
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params any) (*Resource, error) {
	base := ShaderBase(path)
	vs, err := os.ReadFile(base + VertexStageExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to read vertex stage: %w", err)
	}
	fs, err := os.ReadFile(base + FragmentStageExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment stage: %w", err)
	}
	return &Resource{
		Name:     filepath.Base(base),
		FullPath: base,
		Type:     metadata.ResourceTypeShader,
		DataSize: uint64(len(vs) + len(fs)),
		Data: &ShaderSource{
			Vertex:   string(vs),
			Fragment: string(fs),
		},
	}, nil
}

func (sl *ShaderLoader) Unload(*Resource) error {
	return nil
}

// ShaderBase strips a stage extension from path.
func ShaderBase(path string) string {
	path = filepath.Clean(path)
	switch filepath.Ext(path) {
	case VertexStageExtension, FragmentStageExtension:
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

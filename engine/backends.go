package engine

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/backend"
	"github.com/spaghettifunk/cinder/engine/renderer/backend/headless"
)

// NewBackend creates the backend registered under name.
func NewBackend(name string) (backend.Backend, error) {
	switch strings.ToLower(name) {
	case "", "headless":
		return headless.New(headless.DefaultOptions()), nil
	}
	return nil, fmt.Errorf("backend %q: %w", name, core.ErrUnsupportedBackend)
}

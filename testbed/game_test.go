package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/cinder/engine"
	"github.com/spaghettifunk/cinder/engine/renderer/backend/headless"
)

func TestSortKeyOrder(t *testing.T) {
	// layers first
	assert.Less(t, SortKey(0, true, 0, 9), SortKey(1, false, 0, 0))
	// opaque before translucent inside a layer
	assert.Less(t, SortKey(1, false, 65535, 0), SortKey(1, true, 65535, 0))
	// opaque front to back
	assert.Less(t, SortKey(1, false, 10, 0), SortKey(1, false, 20, 0))
	// translucent back to front
	assert.Greater(t, SortKey(1, true, 10, 0), SortKey(1, true, 20, 0))
	// program groups within equal depth
	assert.Less(t, SortKey(1, false, 10, 1), SortKey(1, false, 10, 2))
}

func TestTestbedDrawsBothViews(t *testing.T) {
	cfg := engine.DefaultApplicationConfig()
	cfg.Application.TargetFPS = 0
	cfg.Application.MaxFrames = 2
	cfg.Logging.Level = "error"
	cfg.Views = []engine.ViewSection{
		{ID: WorldView, Clear: []string{"colour", "depth"}, Ortho: []float32{0, 1280, 0, 720, -1, 1}},
		{ID: UIView, Ortho: []float32{0, 1280, 0, 720, -1, 1}},
	}
	cfg.Buckets = []engine.BucketSection{
		{View: WorldView, Capacity: 256},
		{View: UIView, Capacity: 4},
	}

	tg := NewTestGame(cfg)
	e, err := engine.New(tg.Game)
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())

	stats := tg.Renderer.Stats()
	assert.Equal(t, spriteCount+1, stats.Draws)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 2, stats.ViewChanges)
	// still bound from the first frame
	assert.Equal(t, 0, stats.ProgramBinds)

	hb := e.Backend().(*headless.Backend)
	assert.Equal(t, 2*(spriteCount+1), len(hb.Draws()))
	require.NoError(t, e.Shutdown())
}

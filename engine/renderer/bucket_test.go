package renderer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

func TestBucketAddCommand(t *testing.T) {
	b := NewBucket(3, 2)
	assert.Equal(t, BucketEmpty, b.State())

	cmd, err := b.AddCommand(42)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), cmd.View())
	assert.Equal(t, uint64(42), cmd.Key())
	assert.Equal(t, BucketFilling, b.State())

	_, err = b.AddCommand(7)
	require.NoError(t, err)

	_, err = b.AddCommand(1)
	assert.ErrorIs(t, err, core.ErrBucketFull)
	assert.Equal(t, 2, b.Len())
}

func TestBucketSortIsStable(t *testing.T) {
	b := NewBucket(0, 8)
	keys := []uint64{30, 10, 30, 10, 20}
	for i, key := range keys {
		cmd, err := b.AddCommand(key)
		require.NoError(t, err)
		cmd.SetDrawRange(uint32(i), 1)
	}
	b.Sort()
	assert.Equal(t, BucketSorted, b.State())

	dst := make([]*Command, 8)
	n := b.Submit(dst, 0)
	require.Equal(t, 5, n)

	var gotKeys []uint64
	var gotTags []uint32
	for _, cmd := range dst[:n] {
		gotKeys = append(gotKeys, cmd.Key())
		gotTags = append(gotTags, cmd.first)
	}
	assert.Equal(t, []uint64{10, 10, 20, 30, 30}, gotKeys)
	assert.Equal(t, []uint32{1, 3, 4, 0, 2}, gotTags)
}

func TestBucketSubmitResetsCounter(t *testing.T) {
	b := NewBucket(0, 4)
	for _, key := range []uint64{3, 2, 1} {
		_, err := b.AddCommand(key)
		require.NoError(t, err)
	}

	dst := make([]*Command, 10)
	// unsorted buckets are sorted on submit
	n := b.Submit(dst, 2)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, BucketSubmitted, b.State())
	assert.Nil(t, dst[0])
	assert.Equal(t, uint64(1), dst[2].Key())
	assert.Equal(t, uint64(3), dst[4].Key())

	_, err := b.AddCommand(9)
	require.NoError(t, err)
	assert.Equal(t, BucketFilling, b.State())
	assert.Equal(t, 1, b.Submit(dst, 0))

	b.release()
	assert.Equal(t, BucketEmpty, b.State())
}

func TestBucketOverflowIsReportedOnSubmit(t *testing.T) {
	b := NewBucket(0, 1)
	_, err := b.AddCommand(1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = b.AddCommand(2)
		assert.ErrorIs(t, err, core.ErrBucketFull)
	}

	dst := make([]*Command, 1)
	assert.Equal(t, 1, b.Submit(dst, 0))
	assert.Equal(t, uint32(0), b.dropped.Load())

	_, err = b.AddCommand(1)
	assert.NoError(t, err)
}

func TestBucketConcurrentAdd(t *testing.T) {
	const producers, perProducer = 8, 100
	b := NewBucket(0, producers*perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_, err := b.AddCommand(uint64(p*perProducer + i))
				assert.NoError(t, err)
			}
		}(p)
	}
	wg.Wait()

	dst := make([]*Command, producers*perProducer)
	n := b.Submit(dst, 0)
	require.Equal(t, producers*perProducer, n)
	for i, cmd := range dst {
		assert.Equal(t, uint64(i), cmd.Key())
	}
}

func TestBucketClearsSlotsAfterTwoFrames(t *testing.T) {
	b := NewBucket(0, 2)
	vb := metadata.NewVertexBuffer("quad", make([]byte, 48), 12, metadata.BufferUsageStatic)

	cmd, err := b.AddCommand(1)
	require.NoError(t, err)
	cmd.SetVertexBuffer(vb)

	dst := make([]*Command, 2)
	require.Equal(t, 1, b.Submit(dst, 0))
	drawn := dst[0]
	assert.Same(t, vb, drawn.vertex)

	// the next frame records into the other half, the drawn command is untouched
	assert.Equal(t, 0, b.Submit(dst, 0))
	assert.Nil(t, drawn.vertex)
}

func TestCommandSetTexture(t *testing.T) {
	var cmd Command
	cmd.reset(0, 0)
	tex, err := metadata.NewTexture("white", 1, 1, metadata.PixelFormatRGBA8, []byte{255, 255, 255, 255})
	require.NoError(t, err)

	cmd.SetTexture(2, tex, nil, "u_diffuse")
	cmd.SetTexture(metadata.MaxTextureSlots, tex, nil, "")
	cmd.SetTexture(-1, tex, nil, "")

	assert.Equal(t, 3, cmd.textureCount)
	assert.Same(t, tex, cmd.textures[2].Texture)
	assert.Equal(t, "u_diffuse", cmd.textures[2].Uniform)
}

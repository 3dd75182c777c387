package cache

import (
	"runtime"
	"testing"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	metadata.ResourceHandle
	payload []byte
}

type fakeObject struct {
	id       int
	disposed int
}

func (o *fakeObject) Dispose() {
	o.disposed++
}

type fakeCache = Cache[fakeResource, *fakeResource, *fakeObject]

func newFakeCache(capacity int) *fakeCache {
	return New[fakeResource, *fakeResource, *fakeObject]("fake", capacity)
}

func newResource() *fakeResource {
	return &fakeResource{payload: make([]byte, 64)}
}

// addDropped adds a resource that is unreachable once the function returns.
func addDropped(t *testing.T, c *fakeCache, obj *fakeObject) metadata.Handle {
	r := newResource()
	require.NoError(t, c.Add(r, obj))
	return r.Handle()
}

func collect() {
	runtime.GC()
	runtime.GC()
}

func TestAddThenGet(t *testing.T) {
	c := newFakeCache(4)
	r := newResource()
	obj := &fakeObject{id: 7}

	require.NoError(t, c.Add(r, obj))

	assert.True(t, r.Realized())
	assert.Equal(t, metadata.Handle(0), r.Handle())
	assert.Same(t, obj, c.Get(r.Handle()))
	assert.Equal(t, 1, c.Len())
	runtime.KeepAlive(r)
}

func TestDeferredAddThenSetResource(t *testing.T) {
	c := newFakeCache(2)
	r := newResource()

	require.True(t, c.AddDeferred(r))
	assert.False(t, r.Realized())
	assert.NotEqual(t, metadata.InvalidHandle, r.Handle())

	obj := &fakeObject{}
	require.NoError(t, c.SetResource(r, obj))
	assert.True(t, r.Realized())
	assert.Same(t, obj, c.Get(r.Handle()))

	// replacing disposes the previous object
	next := &fakeObject{}
	require.NoError(t, c.SetResource(r, next))
	assert.Equal(t, 1, obj.disposed)
	assert.Same(t, next, c.Get(r.Handle()))
	runtime.KeepAlive(r)
}

func TestSetResourceRequiresBinding(t *testing.T) {
	c := newFakeCache(1)
	r := newResource()
	assert.Error(t, c.SetResource(r, &fakeObject{}))
}

func TestCapacityBoundary(t *testing.T) {
	const k = 3
	c := newFakeCache(k)
	live := make([]*fakeResource, 0, k)
	for i := 0; i < k; i++ {
		r := newResource()
		require.NoError(t, c.Add(r, &fakeObject{id: i}))
		live = append(live, r)
	}

	extra := newResource()
	err := c.Add(extra, &fakeObject{})
	assert.ErrorIs(t, err, core.ErrCacheFull)
	assert.False(t, extra.Realized())

	deferred := newResource()
	assert.False(t, c.AddDeferred(deferred))
	assert.False(t, deferred.Realized())
	assert.Equal(t, metadata.InvalidHandle, deferred.Handle())
	assert.Equal(t, k, c.Len())
	runtime.KeepAlive(live)
}

func TestCleanReclaimsDroppedResourceAfterTwoSweeps(t *testing.T) {
	c := newFakeCache(1)
	obj := &fakeObject{}
	h := addDropped(t, c, obj)
	collect()

	// first sweep notices the dead owner
	assert.Equal(t, 0, c.Clean(false))
	assert.Equal(t, 0, obj.disposed)
	assert.Equal(t, 1, c.Len())

	// second sweep disposes and frees the slot
	assert.Equal(t, 1, c.Clean(false))
	assert.Equal(t, 1, obj.disposed)
	assert.Equal(t, 0, c.Len())

	r := newResource()
	require.NoError(t, c.Add(r, &fakeObject{}))
	assert.Equal(t, h, r.Handle())

	// further sweeps never dispose again
	c.Clean(false)
	c.Clean(false)
	assert.Equal(t, 1, obj.disposed)
	runtime.KeepAlive(r)
}

func TestCleanKeepsLiveResources(t *testing.T) {
	c := newFakeCache(2)
	r := newResource()
	obj := &fakeObject{}
	require.NoError(t, c.Add(r, obj))
	collect()

	c.Clean(false)
	c.Clean(false)
	assert.Equal(t, 0, obj.disposed)
	assert.True(t, r.Realized())
	runtime.KeepAlive(r)
}

func TestDeferredSlotWithoutObjectIsFreed(t *testing.T) {
	c := newFakeCache(1)
	func() {
		r := newResource()
		require.True(t, c.AddDeferred(r))
	}()
	collect()

	c.Clean(false)
	assert.Equal(t, 0, c.Clean(false))
	assert.Equal(t, 0, c.Len())
}

func TestForcedCleanDisposesEverythingOnce(t *testing.T) {
	c := newFakeCache(3)
	a, b := &fakeObject{}, &fakeObject{}
	live := newResource()
	require.NoError(t, c.Add(live, a))
	addDropped(t, c, b)
	collect()
	c.Clean(false) // b is now pending

	assert.Equal(t, 2, c.Clean(true))
	assert.Equal(t, 1, a.disposed)
	assert.Equal(t, 1, b.disposed)

	assert.Equal(t, 0, c.Clean(true))
	assert.Equal(t, 1, a.disposed)
	assert.Equal(t, 1, b.disposed)
	runtime.KeepAlive(live)
}

func TestAddTwiceKeepsSingleHandle(t *testing.T) {
	c := newFakeCache(2)
	r := newResource()
	first, second := &fakeObject{}, &fakeObject{}
	require.NoError(t, c.Add(r, first))
	h := r.Handle()
	require.NoError(t, c.Add(r, second))

	assert.Equal(t, h, r.Handle())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, first.disposed)
	assert.Same(t, second, c.Get(h))
	runtime.KeepAlive(r)
}

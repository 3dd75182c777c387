// Package cache maps resource wrappers owned by application code to the
// backend objects that realise them.
//
// A Cache has a fixed number of slots. Every slot remembers its owner through
// a weak pointer, so dropping the last reference to a wrapper is enough to
// release the backend object: Clean notices the dead owner on one sweep and
// disposes the object on the next one. A Cache is not safe for concurrent use;
// the renderer only touches it from the render goroutine.
package cache

import (
	"fmt"
	"weak"

	"github.com/spaghettifunk/cinder/engine/containers"
	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/metadata"
)

// Resource is implemented by pointers to wrappers embedding metadata.ResourceHandle.
type Resource[T any] interface {
	*T
	Handle() metadata.Handle
	AssignHandle(h metadata.Handle)
	SetRealized(v bool)
}

// Disposable is a backend object that must be released explicitly.
type Disposable interface {
	Dispose()
}

type slotState uint8

const (
	slotFree slotState = iota
	slotBound
	// owner is gone, object is disposed on the next Clean
	slotPending
)

// Cache maps the handles of wrappers of type T to backend objects of type B.
type Cache[T any, P Resource[T], B Disposable] struct {
	name      string
	objects   []B
	hasObject []bool
	owners    []weak.Pointer[T]
	states    []slotState
	free      *containers.Stack[metadata.Handle]
	pending   *containers.RingQueue[metadata.Handle]
}

// New creates a cache with capacity slots, all free. name shows up in logs
// and errors.
func New[T any, P Resource[T], B Disposable](name string, capacity int) *Cache[T, P, B] {
	c := &Cache[T, P, B]{
		name:      name,
		objects:   make([]B, capacity),
		hasObject: make([]bool, capacity),
		owners:    make([]weak.Pointer[T], capacity),
		states:    make([]slotState, capacity),
		free:      containers.NewStack[metadata.Handle](capacity),
		pending:   containers.NewRingQueue[metadata.Handle](capacity),
	}
	// lowest handles are handed out first
	for h := capacity - 1; h >= 0; h-- {
		c.free.Push(metadata.Handle(h))
	}
	return c
}

func (c *Cache[T, P, B]) Name() string {
	return c.name
}

func (c *Cache[T, P, B]) Capacity() int {
	return len(c.objects)
}

// Len returns the number of slots not on the free stack, including the ones
// waiting for disposal.
func (c *Cache[T, P, B]) Len() int {
	return len(c.objects) - c.free.Len()
}

// Add binds wrapper to a free slot holding obj and marks it realized. If the
// wrapper already owns a slot of this cache the object in that slot is
// replaced instead. Returns core.ErrCacheFull when no slot is free.
func (c *Cache[T, P, B]) Add(wrapper P, obj B) error {
	h, ok := c.owned(wrapper)
	if !ok {
		h, ok = c.acquire(wrapper)
		if !ok {
			return fmt.Errorf("%s cache (capacity %d): %w", c.name, len(c.objects), core.ErrCacheFull)
		}
	}
	c.store(h, obj)
	wrapper.SetRealized(true)
	return nil
}

// AddDeferred reserves a slot for wrapper without a backend object. The
// wrapper stays unrealized until SetResource is called. When the cache is full
// nothing happens and false is returned.
func (c *Cache[T, P, B]) AddDeferred(wrapper P) bool {
	if _, ok := c.owned(wrapper); ok {
		return true
	}
	_, ok := c.acquire(wrapper)
	return ok
}

// SetResource completes AddDeferred, or replaces the object of a realized
// wrapper. A replaced object is disposed.
func (c *Cache[T, P, B]) SetResource(wrapper P, obj B) error {
	h, ok := c.owned(wrapper)
	if !ok {
		return fmt.Errorf("%s cache: handle %d is not bound to this resource", c.name, wrapper.Handle())
	}
	c.store(h, obj)
	wrapper.SetRealized(true)
	return nil
}

// Get returns the object stored at h. h must be bound.
func (c *Cache[T, P, B]) Get(h metadata.Handle) B {
	return c.objects[h]
}

// Clean reclaims slots whose owner was garbage collected. Non-forced, it first
// disposes and frees the slots found dead by the previous call, then queues
// the slots whose owner is dead now. Forced, it disposes every object still
// held and frees nothing; the cache must not be used afterwards.
// It returns the number of disposed objects.
func (c *Cache[T, P, B]) Clean(force bool) int {
	disposed := 0
	if force {
		for h := range c.states {
			if c.states[h] != slotFree && c.dispose(metadata.Handle(h)) {
				disposed++
			}
		}
		return disposed
	}

	for !c.pending.IsEmpty() {
		h, _ := c.pending.Dequeue()
		if c.dispose(h) {
			disposed++
		}
		c.states[h] = slotFree
		c.owners[h] = weak.Pointer[T]{}
		c.free.Push(h)
	}

	for h := range c.states {
		if c.states[h] != slotBound {
			continue
		}
		if c.owners[h].Value() == nil {
			c.states[h] = slotPending
			// cannot fail: the queue holds as many entries as there are slots
			_ = c.pending.Enqueue(metadata.Handle(h))
		}
	}
	if disposed > 0 {
		core.LogDebug("%s cache: released %d objects, %d/%d slots in use", c.name, disposed, c.Len(), len(c.objects))
	}
	return disposed
}

func (c *Cache[T, P, B]) acquire(wrapper P) (metadata.Handle, bool) {
	h, ok := c.free.Pop()
	if !ok {
		return metadata.InvalidHandle, false
	}
	c.states[h] = slotBound
	c.owners[h] = weak.Make((*T)(wrapper))
	wrapper.AssignHandle(h)
	return h, true
}

// owned returns the slot of wrapper if it belongs to this cache.
func (c *Cache[T, P, B]) owned(wrapper P) (metadata.Handle, bool) {
	h := wrapper.Handle()
	if h < 0 || int(h) >= len(c.states) || c.states[h] != slotBound {
		return metadata.InvalidHandle, false
	}
	if c.owners[h].Value() != (*T)(wrapper) {
		return metadata.InvalidHandle, false
	}
	return h, true
}

func (c *Cache[T, P, B]) store(h metadata.Handle, obj B) {
	if c.hasObject[h] {
		c.objects[h].Dispose()
	}
	c.objects[h] = obj
	c.hasObject[h] = true
}

func (c *Cache[T, P, B]) dispose(h metadata.Handle) bool {
	if !c.hasObject[h] {
		return false
	}
	c.objects[h].Dispose()
	var zero B
	c.objects[h] = zero
	c.hasObject[h] = false
	return true
}

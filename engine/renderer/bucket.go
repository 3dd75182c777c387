package renderer

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/cinder/engine/core"
	"github.com/spaghettifunk/cinder/engine/renderer/radix"
)

type BucketState uint32

const (
	BucketEmpty BucketState = iota
	BucketFilling
	BucketSorted
	BucketSubmitted
)

func (s BucketState) String() string {
	switch s {
	case BucketEmpty:
		return "empty"
	case BucketFilling:
		return "filling"
	case BucketSorted:
		return "sorted"
	case BucketSubmitted:
		return "submitted"
	}
	return "unknown"
}

type bucketBuffer struct {
	commands []*Command
	keys     []uint64
}

// Bucket collects the commands of one view for the upcoming frame. Any number
// of goroutines may call AddCommand concurrently, each gets its own slot.
// Sort and Submit are called by the frame owner once all commands are in.
type Bucket struct {
	view     uint8
	capacity int

	next    bucketBuffer
	current bucketBuffer
	// number of commands in current, cleared when its slots are reused
	lastCount int

	count   atomic.Uint32
	dropped atomic.Uint32
	state   atomic.Uint32

	sorter *radix.Sorter[*Command]
}

// NewBucket allocates every command the bucket will ever use: capacity
// commands for the frame being recorded plus capacity for the one being drawn.
func NewBucket(view uint8, capacity int) *Bucket {
	pool := make([]Command, 2*capacity)
	b := &Bucket{
		view:     view,
		capacity: capacity,
		next: bucketBuffer{
			commands: make([]*Command, capacity),
			keys:     make([]uint64, capacity),
		},
		current: bucketBuffer{
			commands: make([]*Command, capacity),
			keys:     make([]uint64, capacity),
		},
		sorter: radix.NewSorter[*Command](capacity),
	}
	for i := 0; i < capacity; i++ {
		b.next.commands[i] = &pool[i]
		b.current.commands[i] = &pool[capacity+i]
		b.next.commands[i].reset(view, 0)
		b.current.commands[i].reset(view, 0)
	}
	return b
}

func (b *Bucket) View() uint8 {
	return b.view
}

func (b *Bucket) Capacity() int {
	return b.capacity
}

func (b *Bucket) State() BucketState {
	return BucketState(b.state.Load())
}

// Len returns the number of commands recorded for the upcoming frame.
func (b *Bucket) Len() int {
	n := int(b.count.Load())
	if n > b.capacity {
		return b.capacity
	}
	return n
}

// AddCommand takes the next free slot, stores key and returns the cleared
// command with the bucket's view already set. Once the bucket is full it
// returns core.ErrBucketFull and the command is dropped.
func (b *Bucket) AddCommand(key uint64) (*Command, error) {
	idx := int(b.count.Add(1) - 1)
	if idx >= b.capacity {
		b.dropped.Add(1)
		return nil, fmt.Errorf("bucket for view %d (capacity %d): %w", b.view, b.capacity, core.ErrBucketFull)
	}
	if !b.state.CompareAndSwap(uint32(BucketEmpty), uint32(BucketFilling)) {
		b.state.CompareAndSwap(uint32(BucketSubmitted), uint32(BucketFilling))
	}
	b.next.keys[idx] = key
	cmd := b.next.commands[idx]
	cmd.reset(b.view, key)
	return cmd, nil
}

// Sort orders the recorded commands by ascending key. Commands with equal
// keys keep the order in which their slots were allocated.
func (b *Bucket) Sort() {
	n := b.Len()
	b.sorter.Sort(b.next.keys, b.next.commands, n)
	b.state.Store(uint32(BucketSorted))
}

// Submit copies the sorted commands into dst starting at offset, then swaps
// the recording and drawing halves so the next frame can start filling
// straight away. It returns the number of commands copied and resets the
// fill counter. dst must have room for Len commands after offset.
func (b *Bucket) Submit(dst []*Command, offset int) int {
	if b.State() != BucketSorted {
		core.LogDebug("bucket for view %d submitted without sorting", b.view)
		b.Sort()
	}
	n := b.Len()
	copy(dst[offset:offset+n], b.next.commands[:n])

	if dropped := b.dropped.Swap(0); dropped > 0 {
		core.LogWarn("bucket for view %d dropped %d commands, capacity is %d", b.view, dropped, b.capacity)
	}

	b.next, b.current = b.current, b.next
	// the slots now open for recording were drawn last frame
	for i := 0; i < b.lastCount; i++ {
		b.next.commands[i].reset(b.view, 0)
	}
	b.lastCount = n
	b.count.Store(0)
	b.state.Store(uint32(BucketSubmitted))
	return n
}

// release marks the submitted frame as consumed.
func (b *Bucket) release() {
	b.state.CompareAndSwap(uint32(BucketSubmitted), uint32(BucketEmpty))
}

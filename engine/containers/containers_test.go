package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueWrapsAround(t *testing.T) {
	q := NewRingQueue[int](3)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))
	assert.True(t, q.IsFull())
	assert.ErrorIs(t, q.Enqueue(4), ErrQueueFull)

	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, q.Enqueue(4))

	var got []int
	for !q.IsEmpty() {
		v, err := q.Dequeue()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{2, 3, 4}, got)

	_, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestStackIsLIFOAndBounded(t *testing.T) {
	s := NewStack[int](2)
	assert.True(t, s.Push(1))
	assert.True(t, s.Push(2))
	assert.False(t, s.Push(3))
	assert.Equal(t, 2, s.Len())

	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	v, ok = s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = s.Pop()
	assert.False(t, ok)
	assert.True(t, s.IsEmpty())
}

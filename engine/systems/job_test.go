package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidatesArguments(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)

	var ok, failed, done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		js.Submit(JobTask{
			Name: "test",
			Run: func() error {
				if i%2 == 0 {
					return errors.New("odd one out")
				}
				return nil
			},
			OnComplete:           func() { ok.Add(1) },
			OnFailure:            func(error) { failed.Add(1) },
			OnCompletionCallback: func() { done.Add(1); wg.Done() },
		})
	}
	wg.Wait()
	require.NoError(t, js.Shutdown())
	// a second shutdown is harmless
	require.NoError(t, js.Shutdown())

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(10), failed.Load())
	assert.Equal(t, int32(20), done.Load())
}

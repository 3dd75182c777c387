package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct {
	calls int
}

func TestEventBusFiresInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()
	var order []int
	first, second := &counter{}, &counter{}

	assert.True(t, bus.Register(EVENT_CODE_RESIZED, first, func(code SystemEventCode, sender, listener any, data EventContext) bool {
		listener.(*counter).calls++
		order = append(order, 1)
		assert.Equal(t, uint32(640), data.Data.U32[0])
		return false
	}))
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, second, func(code SystemEventCode, sender, listener any, data EventContext) bool {
		listener.(*counter).calls++
		order = append(order, 2)
		return false
	}))

	var ctx EventContext
	ctx.Data.U32[0] = 640
	assert.False(t, bus.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	assert.False(t, bus.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
}

func TestEventBusHandledStopsPropagation(t *testing.T) {
	bus := NewEventBus()
	late := &counter{}
	bus.Register(EVENT_CODE_APPLICATION_QUIT, &counter{}, func(SystemEventCode, any, any, EventContext) bool {
		return true
	})
	bus.Register(EVENT_CODE_APPLICATION_QUIT, late, func(code SystemEventCode, sender, listener any, data EventContext) bool {
		late.calls++
		return false
	})

	assert.True(t, bus.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.Equal(t, 0, late.calls)
}

func TestEventBusRegistration(t *testing.T) {
	bus := NewEventBus()
	l := &counter{}
	fn := func(code SystemEventCode, sender, listener any, data EventContext) bool {
		listener.(*counter).calls++
		return false
	}

	assert.False(t, bus.Register(EVENT_CODE_SHADER_RELOADED, l, nil))
	assert.True(t, bus.Register(EVENT_CODE_SHADER_RELOADED, l, fn))
	assert.False(t, bus.Register(EVENT_CODE_SHADER_RELOADED, l, fn))

	assert.True(t, bus.Unregister(EVENT_CODE_SHADER_RELOADED, l))
	assert.False(t, bus.Unregister(EVENT_CODE_SHADER_RELOADED, l))
	bus.Fire(EVENT_CODE_SHADER_RELOADED, nil, EventContext{})
	assert.Equal(t, 0, l.calls)

	bus.Register(EVENT_CODE_SHADER_RELOADED, l, fn)
	bus.Shutdown()
	bus.Fire(EVENT_CODE_SHADER_RELOADED, nil, EventContext{})
	assert.Equal(t, 0, l.calls)
}

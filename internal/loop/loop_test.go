package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/tickbus/internal/event"
)

type producer struct{ name string }

type tickRecorder struct {
	mu       sync.Mutex
	ticks    int
	overruns int
}

func (r *tickRecorder) TickCompleted(_ time.Duration, overrun bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	if overrun {
		r.overruns++
	}
}

func TestLoop_StepOrder(t *testing.T) {
	bus := event.NewBus()
	l := New(bus, WithClock(clock.NewMock()))
	p := &producer{"p"}

	var order []string
	require.NoError(t, bus.Subscribe(1, event.Func(func(any, *event.Envelope) error {
		order = append(order, "handler")
		return nil
	})))

	l.Post(func() { order = append(order, "task") })
	l.OnTick(func(time.Duration) {
		order = append(order, "hook")
		_ = bus.FirePayload(p, 1, event.NoPayload())
	})

	assert.Equal(t, 1, l.Step())
	assert.Equal(t, []string{"task", "hook", "handler"}, order)
	assert.Equal(t, uint64(1), l.Ticks())
}

func TestLoop_HookDelta(t *testing.T) {
	mock := clock.NewMock()
	l := New(event.NewBus(), WithClock(mock), WithTickRate(10))
	assert.Equal(t, 100*time.Millisecond, l.Interval())

	var deltas []time.Duration
	l.OnTick(func(dt time.Duration) { deltas = append(deltas, dt) })

	l.Step()
	mock.Add(100 * time.Millisecond)
	l.Step()
	mock.Add(250 * time.Millisecond)
	l.Step()

	assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 250 * time.Millisecond}, deltas)
}

func TestLoop_TaskPanicContained(t *testing.T) {
	l := New(event.NewBus(), WithClock(clock.NewMock()))

	ran := false
	l.Post(func() { panic("bad task") })
	l.Post(func() { ran = true })
	l.OnTick(func(time.Duration) { panic("bad hook") })

	require.NotPanics(t, func() { l.Step() })
	assert.True(t, ran)
}

func TestLoop_PostedDuringTaskWaitsForNextTick(t *testing.T) {
	l := New(event.NewBus(), WithClock(clock.NewMock()))

	var order []int
	l.Post(func() {
		order = append(order, 1)
		l.Post(func() { order = append(order, 2) })
	})

	l.Step()
	assert.Equal(t, []int{1}, order)
	l.Step()
	assert.Equal(t, []int{1, 2}, order)
}

func TestLoop_Overrun(t *testing.T) {
	mock := clock.NewMock()
	rec := &tickRecorder{}
	l := New(event.NewBus(), WithClock(mock), WithTickRate(100), WithTickObserver(rec))

	l.Step()
	l.OnTick(func(time.Duration) { mock.Add(50 * time.Millisecond) })
	l.Step()

	assert.Equal(t, 2, rec.ticks)
	assert.Equal(t, 1, rec.overruns)
}

func TestLoop_Run(t *testing.T) {
	mock := clock.NewMock()
	bus := event.NewBus()
	l := New(bus, WithClock(mock), WithTickRate(60))
	p := &producer{"p"}

	var mu sync.Mutex
	handled := 0
	require.NoError(t, bus.Subscribe(7, event.Func(func(any, *event.Envelope) error {
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, l.Running, time.Second, time.Millisecond)
	assert.ErrorIs(t, l.Run(ctx), ErrAlreadyRunning)

	require.NoError(t, bus.FirePayload(p, 7, event.NoPayload()))
	require.Eventually(t, func() bool {
		mock.Add(l.Interval())
		return bus.Pending() == 0
	}, 5*time.Second, time.Millisecond)

	// Envelopes fired right before shutdown are still delivered.
	require.NoError(t, bus.FirePayload(p, 7, event.NoPayload()))
	cancel()
	require.NoError(t, <-done)
	assert.False(t, l.Running())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, handled)
}

func TestLoop_Call(t *testing.T) {
	mock := clock.NewMock()
	bus := event.NewBus()
	l := New(bus, WithClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()
	require.Eventually(t, l.Running, time.Second, time.Millisecond)

	h := event.Func(func(any, *event.Envelope) error { return nil })
	callErr := make(chan error, 1)
	go func() {
		callErr <- l.Call(ctx, func() {
			_ = bus.Subscribe(3, h)
		})
	}()

	require.Eventually(t, func() bool {
		mock.Add(l.Interval())
		select {
		case err := <-callErr:
			require.NoError(t, err)
			return true
		default:
			return false
		}
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, 1, bus.Stats().Subscriptions)
}

func TestLoop_CallCancelled(t *testing.T) {
	l := New(event.NewBus(), WithClock(clock.NewMock()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Call(ctx, func() {}), context.Canceled)
}

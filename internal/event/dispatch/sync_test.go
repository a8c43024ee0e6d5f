package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTarget = Target{Event: 7, Role: "handler"}

func TestExecutor_Execute(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		call    Call
		outcome Outcome
		err     error
	}{
		{"ok", func() error { return nil }, OK, nil},
		{"error", func() error { return boom }, Failed, boom},
		{"panic", func() error { panic("bad") }, Panicked, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExecutor().Execute(testTarget, tt.call)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.outcome == OK, res.OK())
			assert.Equal(t, tt.err, res.Err)
			assert.Equal(t, tt.outcome == Panicked, res.Panic != nil)
		})
	}
}

func TestExecutor_PanicHandler(t *testing.T) {
	var gotTarget Target
	var gotPanic *Panic

	e := NewExecutor(WithPanicHandler(func(t Target, p *Panic) {
		gotTarget, gotPanic = t, p
	}))

	res := e.Execute(testTarget, func() error { panic("bad") })
	require.NotNil(t, gotPanic)
	assert.Equal(t, testTarget, gotTarget)
	assert.Equal(t, "bad", gotPanic.Value)
	assert.NotEmpty(t, gotPanic.Stack)
	assert.Same(t, gotPanic, res.Panic)
}

func TestExecutor_PanicHandlerPanics(t *testing.T) {
	e := NewExecutor(WithPanicHandler(func(Target, *Panic) {
		panic("handler panic")
	}))

	var res Result
	require.NotPanics(t, func() {
		res = e.Execute(testTarget, func() error { panic("bad") })
	})
	assert.Equal(t, Panicked, res.Outcome)
}

func TestExecutor_Duration(t *testing.T) {
	mock := clock.NewMock()
	e := NewExecutor(WithClock(mock))

	res := e.Execute(testTarget, func() error {
		mock.Add(30 * time.Millisecond)
		return nil
	})
	assert.Equal(t, 30*time.Millisecond, res.Duration)

	res = e.Execute(testTarget, func() error {
		mock.Add(10 * time.Millisecond)
		panic("late")
	})
	assert.Equal(t, 10*time.Millisecond, res.Duration, "panicking calls are timed too")
}

func TestSyncDispatcher_Stats(t *testing.T) {
	mock := clock.NewMock()
	d := NewSyncDispatcher(WithClock(mock))

	step := func(err error) Call {
		return func() error {
			mock.Add(10 * time.Millisecond)
			return err
		}
	}
	d.Dispatch(testTarget, step(nil))
	d.Dispatch(testTarget, step(nil))
	d.Dispatch(testTarget, step(errors.New("x")))
	d.Dispatch(testTarget, func() error {
		mock.Add(10 * time.Millisecond)
		panic("p")
	})

	stats := d.Stats()
	assert.Equal(t, Stats{
		Calls:    4,
		OK:       2,
		Failed:   1,
		Panicked: 1,
		Busy:     40 * time.Millisecond,
	}, stats)
	assert.Equal(t, 10*time.Millisecond, stats.Mean())

	d.Reset()
	assert.Equal(t, Stats{}, d.Stats())
	assert.Zero(t, d.Stats().Mean())
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "handler for event 7", testTarget.String())
	assert.Equal(t, "task", Target{Role: "task"}.String())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", OK.String())
	assert.Equal(t, "error", Failed.String())
	assert.Equal(t, "panic", Panicked.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}

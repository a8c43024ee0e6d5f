package dispatch

import (
	"runtime/debug"

	"github.com/benbjohnson/clock"
)

// Executor runs calls with panic recovery and timing.
type Executor struct {
	clock   clock.Clock
	onPanic PanicHandler
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used to time calls.
func WithClock(c clock.Clock) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithPanicHandler sets a callback for recovered panics. A panic inside the
// callback is swallowed.
func WithPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.onPanic = h
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{clock: clock.New()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs call and reports how it ended. It never panics.
func (e *Executor) Execute(t Target, call Call) (result Result) {
	start := e.clock.Now()

	defer func() {
		result.Duration = e.clock.Since(start)

		r := recover()
		if r == nil {
			return
		}
		p := &Panic{Value: r, Stack: debug.Stack()}
		result.Outcome = Panicked
		result.Err = nil
		result.Panic = p
		e.notifyPanic(t, p)
	}()

	if err := call(); err != nil {
		result.Outcome = Failed
		result.Err = err
	}
	return result
}

func (e *Executor) notifyPanic(t Target, p *Panic) {
	if e.onPanic == nil {
		return
	}
	defer func() { _ = recover() }()
	e.onPanic(t, p)
}

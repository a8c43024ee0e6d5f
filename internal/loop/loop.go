// Package loop drives the event bus from a fixed-rate tick loop.
//
// The goroutine that calls Run (or Step) is the bus goroutine: tick hooks,
// posted tasks and every event handler run there, one tick at a time.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/dshills/tickbus/internal/event"
	"github.com/dshills/tickbus/internal/event/dispatch"
)

// DefaultTickRate is the default number of ticks per second.
const DefaultTickRate = 60

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("loop already running")

var (
	taskTarget = dispatch.Target{Role: "task"}
	hookTarget = dispatch.Target{Role: "hook"}
)

// Hook runs once per tick, before the bus is drained. dt is the time since
// the previous tick.
type Hook func(dt time.Duration)

// TickObserver is notified after every tick.
type TickObserver interface {
	TickCompleted(d time.Duration, overrun bool)
}

// Loop ticks at a fixed rate. Each tick runs posted tasks, then hooks, then
// drains the bus.
type Loop struct {
	bus      *event.Bus
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger
	observer TickObserver
	executor *dispatch.Executor

	mu    sync.Mutex
	tasks []func()

	hooks []Hook

	running  atomic.Bool
	ticks    atomic.Uint64
	lastTick time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock. Tests use clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithTickRate sets the number of ticks per second.
func WithTickRate(rate int) Option {
	return func(l *Loop) {
		if rate > 0 {
			l.interval = time.Second / time.Duration(rate)
		}
	}
}

// WithLogger sets the loop's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTickObserver sets an observer notified after each tick.
func WithTickObserver(o TickObserver) Option {
	return func(l *Loop) {
		l.observer = o
	}
}

// New creates a loop that drains bus once per tick.
func New(bus *event.Bus, opts ...Option) *Loop {
	l := &Loop{
		bus:      bus,
		clock:    clock.New(),
		interval: time.Second / DefaultTickRate,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.executor = dispatch.NewExecutor(
		dispatch.WithClock(l.clock),
		dispatch.WithPanicHandler(func(t dispatch.Target, p *dispatch.Panic) {
			l.logger.Error("loop "+t.Role+" panicked", zap.Any("panic", p.Value), zap.ByteString("stack", p.Stack))
		}),
	)
	return l
}

// Bus returns the bus driven by the loop.
func (l *Loop) Bus() *event.Bus {
	return l.bus
}

// Interval returns the time between ticks.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Post schedules fn to run on the loop goroutine at the start of the next
// tick. Safe to call from any goroutine. This is how other goroutines reach
// bus operations that are not safe for concurrent use, such as Subscribe.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
}

// Call posts fn and waits for it to run. It returns ctx.Err() if ctx ends
// first; fn may still run later in that case. Calling Call from the loop
// goroutine deadlocks.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnTick registers a hook. Call it before Run or from the loop goroutine.
func (l *Loop) OnTick(h Hook) {
	if h != nil {
		l.hooks = append(l.hooks, h)
	}
}

// Step runs exactly one tick on the calling goroutine and returns the number
// of envelopes drained.
func (l *Loop) Step() int {
	start := l.clock.Now()
	var dt time.Duration
	if !l.lastTick.IsZero() {
		dt = start.Sub(l.lastTick)
	}
	l.lastTick = start

	l.runTasks()

	for _, h := range l.hooks {
		l.executor.Execute(hookTarget, func() error {
			h(dt)
			return nil
		})
	}

	n := l.bus.Drain()

	elapsed := l.clock.Since(start)
	overrun := elapsed > l.interval
	if overrun {
		l.logger.Debug("tick overrun",
			zap.Duration("elapsed", elapsed),
			zap.Duration("interval", l.interval),
			zap.Int("drained", n),
		)
	}
	if l.observer != nil {
		l.observer.TickCompleted(elapsed, overrun)
	}

	l.ticks.Add(1)
	return n
}

// runTasks runs the tasks posted before this tick. Tasks posted while they
// run wait for the next tick.
func (l *Loop) runTasks() {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, fn := range tasks {
		l.executor.Execute(taskTarget, func() error {
			fn()
			return nil
		})
	}
}

// Run ticks until ctx is done. Tasks still queued at exit are run, and the
// bus is drained one last time.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	l.logger.Info("loop started", zap.Duration("interval", l.interval))

	for {
		select {
		case <-ctx.Done():
			l.runTasks()
			l.bus.Drain()
			l.logger.Info("loop stopped", zap.Uint64("ticks", l.ticks.Load()))
			return nil
		case <-ticker.C:
			l.Step()
		}
	}
}

package dispatch

import (
	"sync/atomic"
	"time"
)

// SyncDispatcher runs calls in the caller's goroutine and counts outcomes.
// Counters are atomic so Stats can be read from any goroutine.
type SyncDispatcher struct {
	executor *Executor

	calls    atomic.Uint64
	outcomes [numOutcomes]atomic.Uint64
	busyNs   atomic.Int64
}

// NewSyncDispatcher creates a dispatcher over a new Executor built from opts.
func NewSyncDispatcher(opts ...ExecutorOption) *SyncDispatcher {
	return &SyncDispatcher{executor: NewExecutor(opts...)}
}

// Dispatch runs call and records its outcome.
func (d *SyncDispatcher) Dispatch(t Target, call Call) Result {
	result := d.executor.Execute(t, call)

	d.calls.Add(1)
	d.outcomes[result.Outcome].Add(1)
	d.busyNs.Add(result.Duration.Nanoseconds())
	return result
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Calls    uint64
	OK       uint64
	Failed   uint64
	Panicked uint64

	// Busy is the total time spent inside calls.
	Busy time.Duration
}

// Mean returns the average call duration.
func (s Stats) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Busy / time.Duration(s.Calls)
}

// Stats returns the current counters. Fields are loaded one by one, so a
// snapshot taken during a dispatch may be off by one call.
func (d *SyncDispatcher) Stats() Stats {
	return Stats{
		Calls:    d.calls.Load(),
		OK:       d.outcomes[OK].Load(),
		Failed:   d.outcomes[Failed].Load(),
		Panicked: d.outcomes[Panicked].Load(),
		Busy:     time.Duration(d.busyNs.Load()),
	}
}

// Reset zeroes the counters.
func (d *SyncDispatcher) Reset() {
	d.calls.Store(0)
	for i := range d.outcomes {
		d.outcomes[i].Store(0)
	}
	d.busyNs.Store(0)
}

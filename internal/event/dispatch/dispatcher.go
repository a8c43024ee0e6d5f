package dispatch

import (
	"fmt"
	"time"
)

// Call is one unit of contained work, already bound to its arguments.
type Call func() error

// Target describes what a Call runs. It only labels reports; the call itself
// is opaque to this package.
type Target struct {
	// Event is the event id for handler calls, zero for loop work.
	Event int

	// Role is "handler", "default", "task" or "hook".
	Role string
}

func (t Target) String() string {
	if t.Event > 0 {
		return fmt.Sprintf("%s for event %d", t.Role, t.Event)
	}
	return t.Role
}

// Outcome classifies how a Call ended.
type Outcome uint8

const (
	// OK means the call returned nil.
	OK Outcome = iota
	// Failed means the call returned an error.
	Failed
	// Panicked means the call panicked and was recovered.
	Panicked

	numOutcomes
)

// String returns the metrics label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OK:
		return "success"
	case Failed:
		return "error"
	case Panicked:
		return "panic"
	default:
		return "unknown"
	}
}

// Dispatcher runs calls so that a failing call never escapes to the caller.
type Dispatcher interface {
	Dispatch(t Target, call Call) Result
}

// Panic is a recovered panic.
type Panic struct {
	Value any
	Stack []byte
}

// Result describes one finished call.
type Result struct {
	Outcome Outcome

	// Err is the error returned by the call. Nil unless Outcome is Failed.
	Err error

	// Panic is set when Outcome is Panicked.
	Panic *Panic

	Duration time.Duration
}

// OK reports whether the call returned nil.
func (r Result) OK() bool {
	return r.Outcome == OK
}

// PanicHandler observes recovered panics as they happen, before the Result
// is returned.
type PanicHandler func(t Target, p *Panic)

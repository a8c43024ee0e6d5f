package event

import (
	"time"

	"github.com/dshills/tickbus/internal/event/dispatch"
)

// Outcome classifies a single handler invocation. Its String form is the
// metrics label.
type Outcome = dispatch.Outcome

// Handler outcomes reported to observers.
const (
	OutcomeSuccess = dispatch.OK
	OutcomeError   = dispatch.Failed
	OutcomePanic   = dispatch.Panicked
)

// Observer is notified of bus activity.
//
// EventFired may be called from any goroutine, since Fire may be. Every other
// method is called on the bus goroutine.
type Observer interface {
	// EventFired is called when Fire or FireNow accepts an envelope.
	EventFired(id ID, deferred bool)

	// EventDispatched is called when an envelope enters the dispatch engine.
	EventDispatched(id ID)

	// EventUnhandled is called when an envelope has no subscribers and no
	// default handler.
	EventUnhandled(id ID)

	// HandlerExecuted is called after each handler invocation, including the
	// default handler.
	HandlerExecuted(id ID, d time.Duration, outcome Outcome)

	// Drained is called after a Drain call that dispatched at least one envelope.
	Drained(n int, d time.Duration)

	// SubscriptionsChanged is called after the registry changes.
	SubscriptionsChanged(total, eventTypes int)
}

// NopObserver ignores all notifications. Embed it to implement only part of
// Observer.
type NopObserver struct{}

func (NopObserver) EventFired(ID, bool)                       {}
func (NopObserver) EventDispatched(ID)                        {}
func (NopObserver) EventUnhandled(ID)                         {}
func (NopObserver) HandlerExecuted(ID, time.Duration, Outcome) {}
func (NopObserver) Drained(int, time.Duration)                {}
func (NopObserver) SubscriptionsChanged(int, int)             {}

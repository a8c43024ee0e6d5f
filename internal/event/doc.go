// Package event provides the tick-driven event bus for tickbus.
//
// The bus connects producers and consumers that must not know about each
// other. Events are identified by a positive integer ID drawn from a
// process-wide enumeration (see package events). Subscribers register a
// Handler for an ID; producers fire an Envelope carrying the sender, the ID
// and an optional typed Payload.
//
// # Architecture
//
//	 producers (any goroutine)            bus goroutine (tick loop)
//	┌──────────────────────────┐        ┌──────────────────────────────┐
//	│ Fire / FirePayload       │──push─▶│ Queue ──pop──▶ dispatch       │
//	└──────────────────────────┘        │                 │             │
//	                                    │ FireNow ────────┤             │
//	                                    │                 ▼             │
//	                                    │ Registry ─▶ snapshot ─▶ invoke │
//	                                    └──────────────────────────────┘
//
// # Dispatch
//
// Handlers for an ID run in subscription order. Each firing works on a
// snapshot of the subscriber list, so handlers may subscribe or unsubscribe
// freely, including themselves. A handler that returns an error or panics is
// logged and skipped; the remaining handlers still run. A handler can stop
// later handlers by calling env.SetHandled(true).
//
// An ID with no subscribers goes to the default handler (SetDefaultHandler),
// or is logged as unhandled.
//
// # Deferred and immediate delivery
//
// Fire only enqueues. The loop calls Drain once per tick, which dispatches
// every queued envelope in FIFO order, including envelopes fired by handlers
// during that drain. WithMaxDrain caps how many envelopes one Drain call
// handles. FireNow dispatches immediately on the calling goroutine.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	h := event.Func(func(sender any, env *event.Envelope) error {
//	    fmt.Println("updater done")
//	    return nil
//	})
//	_ = bus.Subscribe(events.UpdaterDone, h, event.WithOwner(view))
//
//	// From any goroutine
//	_ = bus.FirePayload(updater, events.UpdaterDone, event.NoPayload())
//
//	// On the loop goroutine, once per tick
//	bus.Drain()
//
//	// When the view goes away
//	bus.UnsubscribeByOwner(view)
//
// # Typed payloads
//
// Payloads are tagged with a Kind. On binds a handler to one kind, so it only
// ever sees values of its own type:
//
//	h := event.On(events.KindDownloadProgress,
//	    func(sender any, env *event.Envelope, p events.DownloadProgress) error {
//	        bar.Set(p.CurrentDownloadCount, p.TotalDownloadCount)
//	        return nil
//	    })
//
// # Identity
//
// Subscriptions are keyed by (ID, Handler) and senders are compared by
// identity, so handlers, senders and owners must be comparable values.
// Pointers are the usual choice. Func returns a new pointer on every call.
//
// # Thread Safety
//
// Only Fire, FirePayload, Pending and Stats are safe for concurrent use.
// All other methods belong to the bus goroutine.
//
// # Subpackages
//
//   - events: Framework event ids and payload types
//   - dispatch: Contained handler execution
package event

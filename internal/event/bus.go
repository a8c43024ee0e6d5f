package event

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/tickbus/internal/event/dispatch"
)

// Bus is an in-process event bus keyed by event id.
//
// Fire, FirePayload, Pending and Stats may be called from any goroutine.
// Everything else, including Drain, must be called from the single goroutine
// that owns the bus (the tick loop). This is a caller contract; the bus does
// not check it.
type Bus struct {
	// Subscription management. Bus goroutine only.
	registry       *Registry
	defaultHandler Handler

	// Deferred envelopes. Any goroutine.
	queue *Queue

	dispatcher *dispatch.SyncDispatcher

	// Configuration
	config busConfig
	logger *zap.Logger

	// Stats
	eventsFired      atomic.Uint64
	eventsDispatched atomic.Uint64
	eventsUnhandled  atomic.Uint64
	subscriptions    atomic.Int64
	eventTypes       atomic.Int64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Bus{
		registry:   NewRegistry(),
		queue:      NewQueue(),
		dispatcher: dispatch.NewSyncDispatcher(),
		config:     config,
		logger:     config.logger,
	}
}

// Subscribe registers handler for id. Subscribing the same (id, handler) pair
// twice logs a warning and leaves the original subscription in place.
func (b *Bus) Subscribe(id ID, handler Handler, opts ...SubscriptionOption) error {
	if !id.Valid() {
		return ErrInvalidEventID
	}
	if isNil(handler) {
		return ErrNilHandler
	}
	if !isComparable(handler) {
		return ErrUncomparableHandler
	}

	sub := newSubscription(id, handler, opts...)
	if sub.owner != nil && !isComparable(sub.owner) {
		return ErrUncomparableOwner
	}

	if !b.registry.Add(sub) {
		b.logger.Warn("handler already subscribed",
			zap.Int("event_id", int(id)),
			zap.String("handler_type", typeName(handler)),
		)
		return nil
	}

	b.subscriptionsChanged()
	return nil
}

// Unsubscribe removes the subscription for (id, handler). It never fails
// hard: an invalid id, a nil handler, or a missing subscription logs a warning
// and returns false.
func (b *Bus) Unsubscribe(id ID, handler Handler) bool {
	if !id.Valid() || isNil(handler) {
		b.logger.Warn("invalid unsubscribe",
			zap.Int("event_id", int(id)),
			zap.String("handler_type", typeName(handler)),
		)
		return false
	}

	if !b.registry.Remove(id, handler) {
		b.logger.Warn("no such subscription",
			zap.Int("event_id", int(id)),
			zap.String("handler_type", typeName(handler)),
		)
		return false
	}

	b.subscriptionsChanged()
	return true
}

// UnsubscribeByOwner removes every subscription registered with owner, across
// all event ids. Subscriptions of other owners are untouched. A nil owner is
// a no-op. Returns the number of subscriptions removed.
func (b *Bus) UnsubscribeByOwner(owner any) int {
	if isNil(owner) {
		return 0
	}
	if !isComparable(owner) {
		b.logger.Warn("owner is not comparable", zap.String("owner_type", typeName(owner)))
		return 0
	}

	n := b.registry.RemoveOwner(owner)
	if n == 0 {
		b.logger.Warn("owner has no subscriptions", zap.String("owner_type", typeName(owner)))
		return 0
	}

	b.subscriptionsChanged()
	return n
}

// UnsubscribeAll removes every subscription for id. Returns the number removed.
func (b *Bus) UnsubscribeAll(id ID) int {
	n := b.registry.RemoveAll(id)
	if n == 0 {
		b.logger.Warn("no subscriptions for event", zap.Int("event_id", int(id)))
		return 0
	}

	b.subscriptionsChanged()
	return n
}

// SetDefaultHandler sets the handler invoked for envelopes whose id has no
// subscribers. A later call replaces the previous handler; nil clears it.
func (b *Bus) SetDefaultHandler(handler Handler) {
	if isNil(handler) {
		handler = nil
	}
	b.defaultHandler = handler
}

// Fire queues env for dispatch on the next Drain. It is safe to call from any
// goroutine. Validation happens before the queue is touched, so a rejected
// envelope is never enqueued.
func (b *Bus) Fire(sender any, env *Envelope) error {
	if err := validateFire(sender, env); err != nil {
		return err
	}

	b.queue.Push(env)
	b.eventsFired.Add(1)
	b.config.observer.EventFired(env.id, true)
	return nil
}

// FireNow dispatches env synchronously on the calling goroutine, which must
// be the bus goroutine. Handler failures are contained and never returned.
func (b *Bus) FireNow(sender any, env *Envelope) error {
	if err := validateFire(sender, env); err != nil {
		return err
	}

	b.eventsFired.Add(1)
	b.config.observer.EventFired(env.id, false)
	b.dispatch(env)
	return nil
}

// FirePayload builds an envelope and queues it like Fire.
func (b *Bus) FirePayload(sender any, id ID, payload Payload) error {
	env, err := NewEnvelope(sender, id, payload)
	if err != nil {
		return err
	}
	return b.Fire(sender, env)
}

// FireNowPayload builds an envelope and dispatches it like FireNow.
func (b *Bus) FireNowPayload(sender any, id ID, payload Payload) error {
	env, err := NewEnvelope(sender, id, payload)
	if err != nil {
		return err
	}
	return b.FireNow(sender, env)
}

// Drain dispatches queued envelopes in FIFO order and returns how many were
// dispatched. Envelopes fired by handlers during the drain join the same
// drain, unless the bus was created WithMaxDrain and the limit is reached.
func (b *Bus) Drain() int {
	start := time.Now()
	n := 0

	for {
		if b.config.maxDrain > 0 && n >= b.config.maxDrain {
			if remaining := b.queue.Len(); remaining > 0 {
				b.logger.Warn("drain limit reached",
					zap.Int("limit", b.config.maxDrain),
					zap.Int("remaining", remaining),
				)
			}
			break
		}

		env, ok := b.queue.Pop()
		if !ok {
			break
		}
		b.dispatch(env)
		n++
	}

	if n > 0 {
		b.config.observer.Drained(n, time.Since(start))
	}
	return n
}

// HandlerCount returns the number of subscriptions for id.
func (b *Bus) HandlerCount(id ID) (int, error) {
	if !id.Valid() {
		return 0, ErrInvalidEventID
	}
	return b.registry.Count(id), nil
}

// HasHandler reports whether (id, handler) is subscribed.
func (b *Bus) HasHandler(id ID, handler Handler) (bool, error) {
	if !id.Valid() {
		return false, ErrInvalidEventID
	}
	if isNil(handler) {
		return false, nil
	}
	return b.registry.Has(id, handler), nil
}

// TotalHandlerCount returns the number of live subscriptions across all ids.
func (b *Bus) TotalHandlerCount() int {
	return b.registry.Total()
}

// EventTypeCount returns the number of ids with at least one subscription.
func (b *Bus) EventTypeCount() int {
	return b.registry.EventTypes()
}

// Pending returns the number of queued envelopes. Safe from any goroutine.
func (b *Bus) Pending() int {
	return b.queue.Len()
}

// Stats returns current bus statistics. Safe from any goroutine.
func (b *Bus) Stats() Stats {
	calls := b.dispatcher.Stats()
	return Stats{
		EventsFired:      b.eventsFired.Load(),
		EventsDispatched: b.eventsDispatched.Load(),
		EventsUnhandled:  b.eventsUnhandled.Load(),
		HandlersExecuted: calls.Calls,
		HandlerErrors:    calls.Failed,
		HandlerPanics:    calls.Panicked,
		Subscriptions:    int(b.subscriptions.Load()),
		EventTypes:       int(b.eventTypes.Load()),
		QueueDepth:       b.queue.Len(),
	}
}

// Shutdown clears every subscription, the owner index, the deferred queue and
// the default handler. It is idempotent, and the bus can be used again
// afterwards.
func (b *Bus) Shutdown() {
	subs := b.registry.Total()
	dropped := b.queue.Clear()

	b.registry.Clear()
	b.defaultHandler = nil
	b.subscriptionsChanged()

	b.logger.Debug("event bus shut down",
		zap.Int("subscriptions", subs),
		zap.Int("dropped", dropped),
	)
}

// subscriptionsChanged publishes registry counts to Stats and the observer.
func (b *Bus) subscriptionsChanged() {
	total, types := b.registry.Total(), b.registry.EventTypes()
	b.subscriptions.Store(int64(total))
	b.eventTypes.Store(int64(types))
	b.config.observer.SubscriptionsChanged(total, types)
}

package event

import (
	"fmt"
	"reflect"
)

// ID identifies a category of event. Ids are drawn from a process-wide,
// compile-time enumeration owned by the packages that fire them; the bus only
// requires that an id is greater than zero.
type ID int

// Valid reports whether the id can be used with the bus.
func (id ID) Valid() bool {
	return id > 0
}

// Handler is the interface for event handlers.
//
// The dynamic type of a Handler must be comparable: subscriptions are keyed by
// (id, handler) and removed by handler identity. Pointer receivers satisfy this
// naturally; plain functions should be wrapped with Func.
type Handler interface {
	// Handle processes an envelope. sender is always env.Sender().
	// A returned error is logged by the bus and does not stop dispatch.
	Handle(sender any, env *Envelope) error
}

// HandlerFunc is the function shape accepted by Func.
type HandlerFunc func(sender any, env *Envelope) error

// funcHandler gives a HandlerFunc a stable pointer identity.
type funcHandler struct {
	fn HandlerFunc
}

// Handle implements the Handler interface.
func (h *funcHandler) Handle(sender any, env *Envelope) error {
	return h.fn(sender, env)
}

// Func wraps fn in a Handler. Each call returns a distinct handler, so keep the
// returned value if you need to unsubscribe it later.
func Func(fn HandlerFunc) Handler {
	if fn == nil {
		return nil
	}
	return &funcHandler{fn: fn}
}

// Stats contains event bus statistics.
type Stats struct {
	// EventsFired is the number of envelopes accepted by Fire and FireNow.
	EventsFired uint64

	// EventsDispatched is the number of envelopes run through the dispatch engine.
	EventsDispatched uint64

	// EventsUnhandled is the number of envelopes with no subscriber and no
	// default handler.
	EventsUnhandled uint64

	// HandlersExecuted is the total number of handler invocations.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// Subscriptions is the current number of subscriptions.
	Subscriptions int

	// EventTypes is the number of event ids with at least one subscription.
	EventTypes int

	// QueueDepth is the number of envelopes waiting for the next drain.
	QueueDepth int
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isComparable checks the value held, not just its static type: a struct
// with an interface field holding a slice has a comparable type but panics
// when compared or hashed.
func isComparable(v any) bool {
	return reflect.ValueOf(v).Comparable()
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}

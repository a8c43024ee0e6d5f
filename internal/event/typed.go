package event

import "fmt"

// TypedHandlerFunc handles envelopes whose payload is a T tagged with a
// specific Kind.
type TypedHandlerFunc[T any] func(sender any, env *Envelope, data T) error

// typedHandler binds a payload kind at subscribe time. Envelopes carrying any
// other kind are skipped without touching their values.
type typedHandler[T any] struct {
	kind Kind
	fn   TypedHandlerFunc[T]
}

// On returns a Handler that invokes fn only for envelopes whose payload is
// tagged with kind. A payload with the right kind but a value that is not a T
// is reported as ErrPayloadType.
func On[T any](kind Kind, fn TypedHandlerFunc[T]) Handler {
	if fn == nil {
		return nil
	}
	return &typedHandler[T]{kind: kind, fn: fn}
}

// Handle implements the Handler interface.
func (h *typedHandler[T]) Handle(sender any, env *Envelope) error {
	p := env.Payload()
	if p.Kind() != h.kind {
		return nil
	}
	data, ok := p.Value().(T)
	if !ok {
		var want T
		return fmt.Errorf("%w: kind %q carries %T, want %T", ErrPayloadType, h.kind, p.Value(), want)
	}
	return h.fn(sender, env, data)
}

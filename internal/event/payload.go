package event

// Kind tags the value carried by a Payload. Kinds are declared next to the
// payload types they describe, e.g. events.KindFoundUpdateFiles.
type Kind string

// Payload is a tagged variant: either None, or a value together with the Kind
// that describes it. Typed handlers match on the kind, so a handler for one
// payload type never inspects values of another.
type Payload struct {
	kind  Kind
	value any
}

// NoPayload returns the empty payload. It is equal to the zero Payload.
func NoPayload() Payload {
	return Payload{}
}

// Typed creates a payload carrying value under kind.
// An empty kind produces a payload that reports IsNone.
func Typed(kind Kind, value any) Payload {
	return Payload{kind: kind, value: value}
}

// Kind returns the payload's tag, or "" for None.
func (p Payload) Kind() Kind {
	return p.kind
}

// Value returns the carried value, or nil for None.
func (p Payload) Value() any {
	return p.value
}

// IsNone reports whether the payload carries nothing.
func (p Payload) IsNone() bool {
	return p.kind == ""
}

// PayloadAs returns the payload value as T if the payload is tagged with kind
// and holds a T.
func PayloadAs[T any](p Payload, kind Kind) (T, bool) {
	var zero T
	if p.kind != kind || p.IsNone() {
		return zero, false
	}
	v, ok := p.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

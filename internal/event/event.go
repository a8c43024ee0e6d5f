package event

// Envelope carries one firing of an event through the bus.
// The sender, id and payload are fixed at construction; only the handled flag
// changes while the envelope is being dispatched.
type Envelope struct {
	sender  any
	id      ID
	payload Payload
	handled bool
}

// NewEnvelope creates an envelope for the given sender and event id.
// The sender must be non-nil and comparable (it is matched by identity when the
// envelope is fired); the id must be greater than zero.
func NewEnvelope(sender any, id ID, payload Payload) (*Envelope, error) {
	if isNil(sender) {
		return nil, ErrNilSender
	}
	if !isComparable(sender) {
		return nil, ErrUncomparableSender
	}
	if !id.Valid() {
		return nil, ErrInvalidEventID
	}
	return &Envelope{
		sender:  sender,
		id:      id,
		payload: payload,
	}, nil
}

// MustEnvelope is like NewEnvelope but panics on invalid arguments.
// It is intended for fixed senders and compile-time event ids.
func MustEnvelope(sender any, id ID, payload Payload) *Envelope {
	env, err := NewEnvelope(sender, id, payload)
	if err != nil {
		panic(err)
	}
	return env
}

// Sender returns the object that fired the event.
func (e *Envelope) Sender() any {
	return e.sender
}

// ID returns the event id.
func (e *Envelope) ID() ID {
	return e.id
}

// Payload returns the envelope's payload.
func (e *Envelope) Payload() Payload {
	return e.payload
}

// Handled reports whether a handler has marked the envelope as handled.
func (e *Envelope) Handled() bool {
	return e.handled
}

// SetHandled marks the envelope as handled. Once set, handlers later in
// subscription order are not invoked for this firing.
func (e *Envelope) SetHandled(handled bool) {
	e.handled = handled
}

// validateFire checks the arguments shared by Fire and FireNow.
func validateFire(sender any, env *Envelope) error {
	if isNil(sender) {
		return ErrNilSender
	}
	if env == nil {
		return ErrNilEnvelope
	}
	if !env.id.Valid() {
		return ErrInvalidEventID
	}
	if !isComparable(sender) {
		return ErrUncomparableSender
	}
	if env.sender != sender {
		return ErrSenderMismatch
	}
	return nil
}

package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrInvalidEventID is returned when an event id is zero or negative.
	ErrInvalidEventID = errors.New("event id must be greater than zero")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNilSender is returned when an event is fired without a sender.
	ErrNilSender = errors.New("sender cannot be nil")

	// ErrNilEnvelope is returned when a nil envelope is fired.
	ErrNilEnvelope = errors.New("envelope cannot be nil")

	// ErrSenderMismatch is returned when the sender passed to Fire or FireNow is not
	// the sender recorded in the envelope.
	ErrSenderMismatch = errors.New("envelope sender does not match fire sender")

	// ErrUncomparableSender is returned when a sender cannot be compared by identity.
	ErrUncomparableSender = errors.New("sender type is not comparable")

	// ErrUncomparableHandler is returned when a handler's dynamic type is not
	// comparable, which would make (id, handler) deduplication impossible.
	// Wrap plain functions with Func.
	ErrUncomparableHandler = errors.New("handler type is not comparable")

	// ErrUncomparableOwner is returned when an owner key is not comparable.
	ErrUncomparableOwner = errors.New("owner type is not comparable")

	// ErrPayloadType is returned by typed handlers when a payload carries the
	// expected kind but a value of a different Go type.
	ErrPayloadType = errors.New("payload value has unexpected type")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError wraps an error returned by a handler with dispatch context.
type HandlerError struct {
	// ID is the event id being dispatched.
	ID ID

	// SenderType is the Go type of the envelope's sender.
	SenderType string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error for event %d (sender %s): %v", e.ID, e.SenderType, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a handler panic as an error.
type PanicError struct {
	// ID is the event id being dispatched.
	ID ID

	// SenderType is the Go type of the envelope's sender.
	SenderType string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for event %d (sender %s): %v", e.ID, e.SenderType, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

package event

import "github.com/google/uuid"

// OwnerID is an opaque owner key for components that have no natural
// comparable identity of their own (scripts, short-lived views).
//
// Owners are lookup keys only. The bus never keeps an owner alive and never
// ties subscription lifetime to garbage collection; call UnsubscribeByOwner
// when the owner is torn down.
type OwnerID uuid.UUID

// NewOwnerID returns a new random owner key.
func NewOwnerID() OwnerID {
	return OwnerID(uuid.New())
}

// String returns the canonical textual form of the key.
func (o OwnerID) String() string {
	return uuid.UUID(o).String()
}

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopHandler() Handler {
	return Func(func(any, *Envelope) error { return nil })
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	h := nopHandler()

	require.True(t, r.Add(newSubscription(1, h)))
	assert.False(t, r.Add(newSubscription(1, h)), "duplicate (id, handler)")
	assert.True(t, r.Add(newSubscription(2, h)), "same handler, other id")

	assert.Equal(t, 2, r.Total())
	assert.Equal(t, 2, r.EventTypes())
	assert.True(t, r.Has(1, h))

	assert.True(t, r.Remove(1, h))
	assert.False(t, r.Remove(1, h))
	assert.False(t, r.Has(1, h))
	assert.Equal(t, 1, r.Total())
	assert.Equal(t, 1, r.EventTypes(), "empty id entry must be dropped")
}

func TestRegistry_SnapshotOrderAndIsolation(t *testing.T) {
	r := NewRegistry()
	a, b, c := nopHandler(), nopHandler(), nopHandler()
	r.Add(newSubscription(7, a))
	r.Add(newSubscription(7, b))
	r.Add(newSubscription(7, c))

	snap := r.Snapshot(7)
	require.Len(t, snap, 3)
	assert.Equal(t, a, snap[0].handler)
	assert.Equal(t, b, snap[1].handler)
	assert.Equal(t, c, snap[2].handler)

	r.Remove(7, a)
	assert.Len(t, snap, 3)
	assert.Equal(t, a, snap[0].handler, "snapshot must not see later removals")
	assert.Nil(t, r.Snapshot(99))
}

func TestRegistry_RemoveOwner(t *testing.T) {
	r := NewRegistry()
	ownerA, ownerB := NewOwnerID(), NewOwnerID()
	h1, h2, h3 := nopHandler(), nopHandler(), nopHandler()

	r.Add(newSubscription(1, h1, WithOwner(ownerA)))
	r.Add(newSubscription(2, h2, WithOwner(ownerA)))
	r.Add(newSubscription(1, h3, WithOwner(ownerB)))

	assert.Equal(t, 2, r.OwnerCount(ownerA))
	assert.Equal(t, 2, r.Owners())

	assert.Equal(t, 2, r.RemoveOwner(ownerA))
	assert.Equal(t, 0, r.OwnerCount(ownerA))
	assert.Equal(t, 1, r.Owners())
	assert.Equal(t, 1, r.Total())
	assert.True(t, r.Has(1, h3))
	assert.Equal(t, 0, r.RemoveOwner(ownerA))
}

func TestRegistry_OwnerIndexFollowsRemove(t *testing.T) {
	r := NewRegistry()
	owner := NewOwnerID()
	h := nopHandler()

	r.Add(newSubscription(1, h, WithOwner(owner)))
	r.Remove(1, h)

	assert.Equal(t, 0, r.Owners())
	assert.Equal(t, 0, r.RemoveOwner(owner))
}

func TestRegistry_RemoveAll(t *testing.T) {
	r := NewRegistry()
	owner := NewOwnerID()
	r.Add(newSubscription(1, nopHandler(), WithOwner(owner)))
	r.Add(newSubscription(1, nopHandler()))
	keep := nopHandler()
	r.Add(newSubscription(2, keep))

	assert.Equal(t, 2, r.RemoveAll(1))
	assert.Equal(t, 0, r.Count(1))
	assert.Equal(t, 0, r.Owners())
	assert.True(t, r.Has(2, keep))
}

func TestRegistry_RemoveSubscription(t *testing.T) {
	r := NewRegistry()
	h := nopHandler()

	old := newSubscription(1, h)
	r.Add(old)
	r.Remove(1, h)
	r.Add(newSubscription(1, h))

	assert.False(t, r.removeSubscription(old), "replacement subscription must survive")
	assert.True(t, r.Has(1, h))
}

func TestRegistry_IDsAndClear(t *testing.T) {
	r := NewRegistry()
	r.Add(newSubscription(3, nopHandler()))
	r.Add(newSubscription(5, nopHandler(), WithOwner("owner")))

	assert.ElementsMatch(t, []ID{3, 5}, r.IDs())

	r.Clear()
	assert.Nil(t, r.IDs())
	assert.Equal(t, 0, r.Total())
	assert.Equal(t, 0, r.Owners())
}

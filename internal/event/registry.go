package event

// Registry manages subscriptions organized by event id, plus an owner index
// used for bulk removal.
//
// Registry is not safe for concurrent use. It is owned by the bus goroutine,
// like every other part of the bus except the deferred queue.
type Registry struct {
	byEvent map[ID][]*subscription
	byOwner map[any][]ownerEntry
	total   int
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		byEvent: make(map[ID][]*subscription),
		byOwner: make(map[any][]ownerEntry),
	}
}

// Add appends a subscription for its event id. Insertion order is dispatch
// order. Returns false if the (id, handler) pair is already registered.
func (r *Registry) Add(sub *subscription) bool {
	if r.find(sub.id, sub.handler) >= 0 {
		return false
	}

	r.byEvent[sub.id] = append(r.byEvent[sub.id], sub)
	r.total++

	if sub.owner != nil {
		r.byOwner[sub.owner] = append(r.byOwner[sub.owner], ownerEntry{id: sub.id, handler: sub.handler})
	}
	return true
}

// Remove removes the first subscription matching (id, handler).
// Returns false if there is no such subscription.
func (r *Registry) Remove(id ID, h Handler) bool {
	i := r.find(id, h)
	if i < 0 {
		return false
	}

	subs := r.byEvent[id]
	sub := subs[i]
	subs = append(subs[:i], subs[i+1:]...)

	// Clean up empty event entries
	if len(subs) == 0 {
		delete(r.byEvent, id)
	} else {
		r.byEvent[id] = subs
	}
	r.total--

	if sub.owner != nil {
		r.removeOwnerEntry(sub.owner, id, h)
	}
	return true
}

// removeSubscription removes sub itself, not merely an entry with the same
// (id, handler). A handler that unsubscribed and resubscribed during dispatch
// keeps its new subscription. Returns false if sub is no longer registered.
func (r *Registry) removeSubscription(sub *subscription) bool {
	i := r.find(sub.id, sub.handler)
	if i < 0 || r.byEvent[sub.id][i] != sub {
		return false
	}
	return r.Remove(sub.id, sub.handler)
}

// RemoveOwner removes every subscription registered with owner, across all
// event ids. It works from a snapshot of the owner's entries, so the owner is
// either fully present or fully gone to any caller. Returns the number removed.
func (r *Registry) RemoveOwner(owner any) int {
	entries := r.byOwner[owner]
	if len(entries) == 0 {
		return 0
	}

	snapshot := make([]ownerEntry, len(entries))
	copy(snapshot, entries)

	removed := 0
	for _, e := range snapshot {
		if r.Remove(e.id, e.handler) {
			removed++
		}
	}
	return removed
}

// RemoveAll removes every subscription for an event id, using the same
// snapshot-then-remove pattern as RemoveOwner. Returns the number removed.
func (r *Registry) RemoveAll(id ID) int {
	snapshot := r.Snapshot(id)

	removed := 0
	for _, sub := range snapshot {
		if r.Remove(id, sub.handler) {
			removed++
		}
	}
	return removed
}

// Snapshot returns a copy of the subscriptions for an event id in dispatch
// order. Mutating the registry afterwards does not affect the returned slice.
func (r *Registry) Snapshot(id ID) []*subscription {
	subs := r.byEvent[id]
	if len(subs) == 0 {
		return nil
	}

	result := make([]*subscription, len(subs))
	copy(result, subs)
	return result
}

// Has reports whether (id, handler) is registered.
func (r *Registry) Has(id ID, h Handler) bool {
	return r.find(id, h) >= 0
}

// Count returns the number of subscriptions for an event id.
func (r *Registry) Count(id ID) int {
	return len(r.byEvent[id])
}

// Total returns the total number of subscriptions.
func (r *Registry) Total() int {
	return r.total
}

// EventTypes returns the number of event ids with at least one subscription.
func (r *Registry) EventTypes() int {
	return len(r.byEvent)
}

// Owners returns the number of owners with at least one subscription.
func (r *Registry) Owners() int {
	return len(r.byOwner)
}

// OwnerCount returns the number of subscriptions registered with owner.
func (r *Registry) OwnerCount(owner any) int {
	return len(r.byOwner[owner])
}

// IDs returns the event ids with at least one subscription, in no
// particular order.
func (r *Registry) IDs() []ID {
	if len(r.byEvent) == 0 {
		return nil
	}

	ids := make([]ID, 0, len(r.byEvent))
	for id := range r.byEvent {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes all subscriptions and resets the handler counter.
func (r *Registry) Clear() {
	r.byEvent = make(map[ID][]*subscription)
	r.byOwner = make(map[any][]ownerEntry)
	r.total = 0
}

// find returns the index of (id, handler) in byEvent[id], or -1.
func (r *Registry) find(id ID, h Handler) int {
	for i, s := range r.byEvent[id] {
		if s.handler == h {
			return i
		}
	}
	return -1
}

// removeOwnerEntry drops (id, handler) from the owner index.
func (r *Registry) removeOwnerEntry(owner any, id ID, h Handler) {
	entries := r.byOwner[owner]
	for i, e := range entries {
		if e.id == id && e.handler == h {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}

	if len(entries) == 0 {
		delete(r.byOwner, owner)
	} else {
		r.byOwner[owner] = entries
	}
}

package event

import "sync"

// Queue is the deferred FIFO between producers and the bus goroutine.
// It is the only part of the bus that may be used from any goroutine. The lock
// is held only long enough to move one envelope in or out; handler code never
// runs under it.
type Queue struct {
	mu    sync.Mutex
	items []*Envelope
	head  int
}

// compactThreshold is how many consumed slots may accumulate before the
// backing slice is compacted.
const compactThreshold = 64

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an envelope to the tail of the queue.
func (q *Queue) Push(env *Envelope) {
	q.mu.Lock()
	q.items = append(q.items, env)
	q.mu.Unlock()
}

// Pop removes and returns the head of the queue.
// Returns false if the queue is empty.
func (q *Queue) Pop() (*Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return nil, false
	}

	env := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return env, true
}

// Len returns the number of queued envelopes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Clear drops every queued envelope. Returns the number dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items) - q.head
	q.items = nil
	q.head = 0
	return n
}

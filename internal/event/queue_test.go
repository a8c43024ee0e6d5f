package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSender struct {
	name string
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	s := &testSender{"s"}

	for i := 1; i <= 3; i++ {
		q.Push(MustEnvelope(s, ID(i), NoPayload()))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		env, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, ID(i), env.ID())
	}

	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Compaction(t *testing.T) {
	q := NewQueue()
	s := &testSender{"s"}

	// Push two, pop one: the queue never empties, so consumed slots can only
	// be reclaimed by compaction.
	want := ID(1)
	for i := 0; i < 500; i++ {
		q.Push(MustEnvelope(s, ID(2*i+1), NoPayload()))
		q.Push(MustEnvelope(s, ID(2*i+2), NoPayload()))

		env, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, env.ID())
		want++
	}

	assert.Equal(t, 500, q.Len())
	assert.LessOrEqual(t, q.head, max(compactThreshold, q.Len()))
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	s := &testSender{"s"}
	q.Push(MustEnvelope(s, 1, NoPayload()))
	q.Push(MustEnvelope(s, 2, NoPayload()))

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Clear())
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := NewQueue()

	const producers = 8
	const perProducer = 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &testSender{"producer"}
			for i := 0; i < perProducer; i++ {
				q.Push(MustEnvelope(s, ID(i+1), NoPayload()))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}

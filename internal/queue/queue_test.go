package queue_test

import (
	"sync"
	"testing"

	"github.com/daehyunkim/repopersona/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(url string) queue.Entry {
	return queue.Entry{ID: uuid.New(), RepoURL: url, Email: "dev@example.com"}
}

func TestEnqueue_GrowsSize(t *testing.T) {
	q := queue.New()
	assert.True(t, q.IsEmpty())

	q.Enqueue(entry("https://github.com/acme/one"))
	q.Enqueue(entry("https://github.com/acme/two"))

	assert.Equal(t, 2, q.Size())
	assert.False(t, q.IsEmpty())
}

func TestEnqueue_NoDedup(t *testing.T) {
	q := queue.New()
	e := entry("https://github.com/acme/widget")

	q.Enqueue(e)
	q.Enqueue(e)

	assert.Equal(t, 2, q.Size())
}

func TestDequeue_FIFOOrder(t *testing.T) {
	q := queue.New()
	first := entry("https://github.com/acme/one")
	second := entry("https://github.com/acme/two")
	q.Enqueue(first)
	q.Enqueue(second)

	got, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)
}

func TestDequeue_MarksButDoesNotRemove(t *testing.T) {
	q := queue.New()
	q.Enqueue(entry("https://github.com/acme/widget"))

	_, ok := q.Dequeue()
	require.True(t, ok)

	// Entry stays in the queue until acknowledged.
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, 1, q.InFlightCount())
}

func TestDequeue_SkipsInFlight(t *testing.T) {
	q := queue.New()
	first := entry("https://github.com/acme/one")
	second := entry("https://github.com/acme/two")
	q.Enqueue(first)
	q.Enqueue(second)

	a, ok := q.Dequeue()
	require.True(t, ok)
	b, ok := q.Dequeue()
	require.True(t, ok)

	assert.Equal(t, first.ID, a.ID)
	assert.Equal(t, second.ID, b.ID)
	assert.NotEqual(t, a.ID, b.ID)

	// Everything is in flight now.
	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestDequeue_Empty(t *testing.T) {
	q := queue.New()
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestComplete_RemovesEntry(t *testing.T) {
	q := queue.New()
	e := entry("https://github.com/acme/widget")
	q.Enqueue(e)

	_, ok := q.Dequeue()
	require.True(t, ok)

	q.Complete(e.ID)

	assert.Equal(t, 0, q.Size())
	assert.Equal(t, 0, q.InFlightCount())
	assert.True(t, q.IsEmpty())
}

func TestFail_SameRemovalSemanticsAsComplete(t *testing.T) {
	q := queue.New()
	e := entry("https://github.com/acme/widget")
	q.Enqueue(e)

	_, ok := q.Dequeue()
	require.True(t, ok)

	q.Fail(e.ID)

	assert.Equal(t, 0, q.Size())
	assert.Equal(t, 0, q.InFlightCount())

	// Failed entries are not retried.
	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestCompleteAndFail_UnknownIDNoOp(t *testing.T) {
	q := queue.New()
	q.Enqueue(entry("https://github.com/acme/widget"))

	q.Complete(uuid.New())
	q.Fail(uuid.New())

	assert.Equal(t, 1, q.Size())
	assert.Equal(t, 0, q.InFlightCount())
}

func TestStuckEntry_DoesNotStarveLaterEntries(t *testing.T) {
	q := queue.New()
	stuck := entry("https://github.com/acme/stuck")
	next := entry("https://github.com/acme/next")
	q.Enqueue(stuck)
	q.Enqueue(next)

	got, ok := q.Dequeue()
	require.True(t, ok)
	require.Equal(t, stuck.ID, got.ID)

	// stuck is never acknowledged; the next dequeue still makes progress.
	got, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, next.ID, got.ID)
}

func TestDequeue_ConcurrentConsumersNeverShareAnEntry(t *testing.T) {
	q := queue.New()
	const n = 200
	for i := 0; i < n; i++ {
		q.Enqueue(entry("https://github.com/acme/widget"))
	}

	var mu sync.Mutex
	seen := make(map[uuid.UUID]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				e, ok := q.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				seen[e.ID]++
				mu.Unlock()
				q.Complete(e.ID)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equalf(t, 1, count, "entry %s dequeued %d times", id, count)
	}
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.InFlightCount())
}

// Package queue holds the in-memory work queue feeding the analysis worker.
//
// The queue tracks pending entries in submission order plus a set of ids that
// are currently in flight. Dequeue marks an entry in flight without removing
// it, so an entry stays counted in Size until Complete or Fail acknowledges
// it. A failed entry is removed, not retried; resubmission is an explicit
// decision of the caller, never the queue's.
package queue

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is a lightweight handle to a persisted job. Job content lives in the
// store; the queue only carries what the worker needs to process one attempt.
type Entry struct {
	ID      uuid.UUID
	RepoURL string
	Email   string
}

// Queue is a FIFO work queue with an in-flight set. All methods are safe for
// concurrent use; Dequeue's select-and-mark is atomic, so two concurrent
// consumers can never take the same entry.
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	inflight map[uuid.UUID]struct{}
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{inflight: make(map[uuid.UUID]struct{})}
}

// Enqueue appends an entry at the tail. Entries are not deduplicated:
// submitting the same job id twice creates two entries.
func (q *Queue) Enqueue(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

// Dequeue returns the earliest entry whose id is not in flight and marks it
// in flight. The entry is not removed; it is released by Complete or Fail.
// ok is false when the queue is empty or every entry is already in flight.
//
// There is no lease on an in-flight mark: if the consumer dies between
// Dequeue and Complete/Fail the entry stalls forever. Acceptable with an
// in-process consumer, where a crash takes the queue down with it.
func (q *Queue) Dequeue() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if _, busy := q.inflight[e.ID]; busy {
			continue
		}
		q.inflight[e.ID] = struct{}{}
		return e, true
	}
	return Entry{}, false
}

// Complete clears the in-flight mark for id and removes its entry. Calling it
// for an unknown id is a no-op.
func (q *Queue) Complete(id uuid.UUID) {
	q.remove(id)
}

// Fail has the same removal semantics as Complete: the entry leaves the queue
// and is not retried. Calling it for an unknown id is a no-op.
func (q *Queue) Fail(id uuid.UUID) {
	q.remove(id)
}

func (q *Queue) remove(id uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inflight, id)

	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

// Size returns the number of entries in the queue, including in-flight ones.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// InFlightCount returns the number of entries currently marked in flight.
func (q *Queue) InFlightCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// IsEmpty reports whether the queue holds no entries at all.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

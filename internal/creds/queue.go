package creds

import (
	"context"
	"sync"
)

// Queue is an unbounded multi-producer/multi-consumer FIFO of candidates.
// Push never blocks. Consumers either poll with TryPop or park in Pop until
// an item arrives or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	items  []Candidate
	closed bool
	pushed int

	// notify is closed and replaced on every Push and on Close.
	notify chan struct{}
}

// NewQueue creates an empty open queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{})}
}

// Push appends c. It reports false if the queue was already closed.
func (q *Queue) Push(c Candidate) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, c)
	q.pushed++
	q.wakeLocked()
	return true
}

// Close marks the end of production. Items already queued can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.wakeLocked()
}

func (q *Queue) wakeLocked() {
	close(q.notify)
	q.notify = make(chan struct{})
}

// TryPop removes the head of the queue without blocking.
// ok is false when no item is currently available.
func (q *Queue) TryPop() (c Candidate, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue) popLocked() (Candidate, bool) {
	if len(q.items) == 0 {
		return Candidate{}, false
	}
	c := q.items[0]
	q.items[0] = Candidate{}
	q.items = q.items[1:]
	return c, true
}

// Pop blocks until an item is available, the queue is closed and drained, or
// ctx is done. ok is false once the queue is closed and empty; err is non-nil
// only when ctx ended the wait.
func (q *Queue) Pop(ctx context.Context) (c Candidate, ok bool, err error) {
	for {
		q.mu.Lock()
		if c, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return c, true, nil
		}
		if q.closed {
			q.mu.Unlock()
			return Candidate{}, false, nil
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Candidate{}, false, ctx.Err()
		case <-wait:
		}
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pushed returns how many items were ever accepted.
func (q *Queue) Pushed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

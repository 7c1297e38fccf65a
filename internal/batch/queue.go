package batch

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueCleared is delivered to every queued item rejected by Clear.
var ErrQueueCleared = errors.New("queue cleared")

// queueTask is one unit of work waiting in, or dispatched from, a Queue.
type queueTask[T any] struct {
	item     T
	attempts int
	done     chan error
}

// Queue is a persistent concurrency-capped task queue. Unlike Process it
// accepts items continuously: each Add enqueues one item, at most
// concurrency items run at any moment, and failed items are re-inserted at
// the front of the pending list until their retry budget is spent.
type Queue[T any] struct {
	worker      func(context.Context, T) error
	concurrency int
	maxRetries  int

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []*queueTask[T]
	inFlight int
}

// QueueOptions tunes a Queue.
type QueueOptions struct {
	Concurrency int
	MaxRetries  int
}

// NewQueue creates a queue that processes items with the given worker.
func NewQueue[T any](worker func(context.Context, T) error, opts QueueOptions) *Queue[T] {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	q := &Queue[T]{
		worker:      worker,
		concurrency: opts.Concurrency,
		maxRetries:  opts.MaxRetries,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add enqueues an item and returns a channel that receives the item's final
// outcome: nil on success, the terminal error after retries, or
// ErrQueueCleared if the queue was cleared before the item started.
func (q *Queue[T]) Add(ctx context.Context, item T) <-chan error {
	t := &queueTask[T]{item: item, done: make(chan error, 1)}

	q.mu.Lock()
	q.pending = append(q.pending, t)
	q.dispatchLocked(ctx)
	q.mu.Unlock()

	return t.done
}

// Size returns the number of items waiting to start.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns the number of items currently in flight.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// Clear rejects every not-yet-started item with ErrQueueCleared. Items
// already in flight finish naturally.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	rejected := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, t := range rejected {
		t.done <- ErrQueueCleared
	}
}

// Wait blocks until the queue is fully drained: no pending and no in-flight
// items.
func (q *Queue[T]) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) > 0 || q.inFlight > 0 {
		q.cond.Wait()
	}
}

// dispatchLocked starts workers while capacity and pending items remain.
// Callers must hold q.mu.
func (q *Queue[T]) dispatchLocked(ctx context.Context) {
	for q.inFlight < q.concurrency && len(q.pending) > 0 {
		t := q.pending[0]
		q.pending = q.pending[1:]
		q.inFlight++

		go func(t *queueTask[T]) {
			err := q.worker(ctx, t.item)

			q.mu.Lock()
			q.inFlight--
			if err != nil && t.attempts < q.maxRetries && ctx.Err() == nil {
				// Failed items go back to the front so they run before
				// anything newly enqueued.
				t.attempts++
				q.pending = append([]*queueTask[T]{t}, q.pending...)
			} else {
				t.done <- err
			}
			q.dispatchLocked(ctx)
			q.cond.Broadcast()
			q.mu.Unlock()
		}(t)
	}
}

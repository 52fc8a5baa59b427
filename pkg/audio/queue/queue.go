// ABOUTME: Bounded blocking FIFO queue for pipeline handoff
// ABOUTME: Two condition variables over one mutex, with drop and timeout modes
package queue

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrClosed is returned by Push after Close; push and pop never
	// block on a closed queue.
	ErrClosed = errors.New("queue: closed")

	// ErrDropped is returned by Push when the queue is full and
	// configured to drop instead of block.
	ErrDropped = errors.New("queue: full, item dropped")
)

// Option configures a Queue.
type Option[T any] func(*Queue[T])

// WithDropWhenFull makes Push discard the incoming item instead of
// blocking when the queue is at capacity.
func WithDropWhenFull[T any]() Option[T] {
	return func(q *Queue[T]) {
		q.dropWhenFull = true
	}
}

// WithDiscard sets a hook invoked for every item thrown away by Reset
// or Close, so owned resources are freed exactly once.
func WithDiscard[T any](fn func(T)) Option[T] {
	return func(q *Queue[T]) {
		q.discard = fn
	}
}

// Queue is a bounded thread-safe FIFO. Push blocks while full (unless
// drop mode is set), Pop blocks while empty. Close wakes every waiter
// and makes all later operations fail fast instead of blocking.
type Queue[T any] struct {
	mu       sync.Mutex
	notFull  sync.Cond
	notEmpty sync.Cond

	items []T
	head  int
	count int

	dropWhenFull bool
	discard      func(T)
	closed       bool
}

// New creates a queue with the given capacity. Capacity must be at
// least 1.
func New[T any](capacity int, opts ...Option[T]) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}

	q := &Queue[T]{
		items: make([]T, capacity),
	}
	q.notFull.L = &q.mu
	q.notEmpty.L = &q.mu

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Push appends an item, blocking while the queue is full. In drop mode
// a push against a full queue returns ErrDropped immediately; the
// caller still owns the rejected item. Returns ErrClosed once the
// queue has been closed, including when Close fires mid-wait.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	if q.count == len(q.items) && q.dropWhenFull {
		return ErrDropped
	}

	for q.count == len(q.items) && !q.closed {
		q.notFull.Wait()
	}

	if q.closed {
		return ErrClosed
	}

	q.items[(q.head+q.count)%len(q.items)] = v
	q.count++
	q.notEmpty.Signal()

	return nil
}

// Pop removes the oldest item, blocking while the queue is empty.
// Returns false once the queue is closed and drained.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.notEmpty.Wait()
	}

	return q.popLocked()
}

// PopTimeout behaves like Pop but gives up after d, returning false on
// timeout. The wait is implemented with a timer-driven broadcast so
// the caller can observe a stop signal promptly even when idle.
func (q *Queue[T]) PopTimeout(d time.Duration) (T, bool) {
	deadline := time.Now().Add(d)

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, false
		}

		timer := time.AfterFunc(remaining, func() {
			q.mu.Lock()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		q.notEmpty.Wait()
		timer.Stop()
	}

	return q.popLocked()
}

// TryPop removes the oldest item without blocking. Safe to call from a
// real-time callback: the critical section is a few pointer moves.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.popLocked()
}

func (q *Queue[T]) popLocked() (T, bool) {
	if q.count == 0 {
		var zero T
		return zero, false
	}

	v := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	q.notFull.Signal()

	return v, true
}

// Len returns the current number of queued items, always in [0, Cap].
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the configured capacity.
func (q *Queue[T]) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Reset discards all queued items through the discard hook, keeping
// the queue usable. Blocked pushers are woken to fill the freed space.
func (q *Queue[T]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.drainLocked()
	q.notFull.Broadcast()
}

// Close discards queued items and poisons the queue: every blocked
// push or pop returns immediately and later calls fail fast.
// Idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.drainLocked()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

func (q *Queue[T]) drainLocked() {
	for q.count > 0 {
		v := q.items[q.head]
		var zero T
		q.items[q.head] = zero
		q.head = (q.head + 1) % len(q.items)
		q.count--
		if q.discard != nil {
			q.discard(v)
		}
	}
	q.head = 0
}

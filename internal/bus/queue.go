// Package bus holds the blocking queue used by consumers that sit off the
// matching path, such as websocket subscribers.
package bus

import (
	"context"
	"sync"

	"market/pkg/exception"
)

// OverflowPolicy defines queue behavior when full.
type OverflowPolicy uint8

const (
	// OverflowBlock blocks until space is available.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropNewest drops the incoming item if the queue is full.
	OverflowDropNewest
	// OverflowDropOldest drops the oldest item to make room.
	OverflowDropOldest
)

// WaitQueue is a bounded multi-producer multi-consumer queue guarded by a
// mutex. Pop blocks until an item arrives or the queue is closed.
type WaitQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []T
	head     int
	tail     int
	size     int
	closed   bool
	policy   OverflowPolicy
	dropped  uint64
}

// NewWaitQueue allocates a queue with the given capacity.
func NewWaitQueue[T any](capacity int, policy OverflowPolicy) *WaitQueue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	q := &WaitQueue[T]{
		buf:    make([]T, capacity),
		policy: policy,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push enqueues v according to the overflow policy.
func (q *WaitQueue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return exception.ErrQueueClosed
		}
		if q.size < len(q.buf) {
			q.buf[q.tail] = v
			q.tail = (q.tail + 1) % len(q.buf)
			q.size++
			q.notEmpty.Signal()
			return nil
		}
		switch q.policy {
		case OverflowBlock:
			q.notFull.Wait()
		case OverflowDropOldest:
			var zero T
			q.buf[q.head] = zero
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			q.dropped++
		default:
			q.dropped++
			return exception.ErrQueueFull
		}
	}
}

// Pop dequeues the next item, blocking until available or closed.
func (q *WaitQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.size > 0 {
			v := q.buf[q.head]
			var zero T
			q.buf[q.head] = zero
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			q.notFull.Signal()
			return v, true
		}
		if q.closed {
			var zero T
			return zero, false
		}
		q.notEmpty.Wait()
	}
}

// Close wakes every waiter. Items already queued can still be popped.
func (q *WaitQueue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *WaitQueue[T]) Len() int {
	q.mu.Lock()
	size := q.size
	q.mu.Unlock()
	return size
}

// Dropped returns how many items the overflow policy discarded.
func (q *WaitQueue[T]) Dropped() uint64 {
	q.mu.Lock()
	n := q.dropped
	q.mu.Unlock()
	return n
}

// Run consumes items until the context is done or the queue is closed.
func (q *WaitQueue[T]) Run(ctx context.Context, handler func(T)) {
	stop := context.AfterFunc(ctx, q.Close)
	defer stop()
	for {
		v, ok := q.Pop()
		if !ok {
			return
		}
		handler(v)
	}
}

// Package spsc is a bounded lock-free ring for exactly one producer
// goroutine and one consumer goroutine.
package spsc

import (
	"sync/atomic"

	"market/pkg/exception"
)

const cacheLine = 64

// Ring holds up to capacity items in capacity+1 slots. One slot always
// stays empty so a full ring can be told apart from an empty one without a
// shared counter.
//
// Push may only be called by the producer and Pop only by the consumer.
type Ring[T any] struct {
	read  atomic.Uint64
	_pad1 [cacheLine - 8]byte
	write atomic.Uint64
	_pad2 [cacheLine - 8]byte

	data []T
}

// New allocates a ring that holds capacity items.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic(exception.ErrInvalidCapacity)
	}
	return &Ring[T]{data: make([]T, capacity+1)}
}

// Push stores v. It returns false and drops v when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	rp := r.read.Load()
	wp := r.write.Load()
	next := r.inc(wp)
	if next == rp {
		return false
	}

	r.data[wp] = v
	r.write.Store(next)
	return true
}

// Pop removes the oldest item. It returns false when the ring is empty.
func (r *Ring[T]) Pop() (T, bool) {
	wp := r.write.Load()
	rp := r.read.Load()
	if rp == wp {
		var zero T
		return zero, false
	}

	v := r.data[rp]
	var zero T
	r.data[rp] = zero
	r.read.Store(r.inc(rp))
	return v, true
}

// Len is a snapshot of the number of queued items. It is exact only when
// called from the producer or consumer while the other side is idle.
func (r *Ring[T]) Len() int {
	wp := r.write.Load()
	rp := r.read.Load()
	size := uint64(len(r.data))
	return int((wp + size - rp) % size)
}

// Cap returns the number of items the ring can hold.
func (r *Ring[T]) Cap() int {
	return len(r.data) - 1
}

func (r *Ring[T]) inc(i uint64) uint64 {
	i++
	if i == uint64(len(r.data)) {
		return 0
	}
	return i
}

// Package pq is a binary heap whose ordering is decided by a caller supplied
// picker instead of a less function.
package pq

// Picker returns whichever of a and b has the higher priority. Both are
// non-nil.
type Picker[T any] func(a, b *T) *T

// Queue is a binary heap of values. It is not safe for concurrent use.
type Queue[T any] struct {
	data []T
	pick Picker[T]
}

// New creates an empty queue ordered by pick.
func New[T any](pick Picker[T]) *Queue[T] {
	if pick == nil {
		panic("pq: nil picker")
	}
	return &Queue[T]{pick: pick}
}

// Push appends v and sifts it up while it outranks its parent.
func (q *Queue[T]) Push(v T) {
	q.data = append(q.data, v)
	q.up(len(q.data) - 1)
}

// Peek returns a pointer to the root. The pointer is valid until the next
// Push, Pop or RemoveOnce.
func (q *Queue[T]) Peek() (*T, bool) {
	if len(q.data) == 0 {
		return nil, false
	}
	return &q.data[0], true
}

// PeekCopy returns a copy of the root.
func (q *Queue[T]) PeekCopy() (T, bool) {
	if len(q.data) == 0 {
		var zero T
		return zero, false
	}
	return q.data[0], true
}

// Pop removes and returns the root.
func (q *Queue[T]) Pop() (T, bool) {
	n := len(q.data)
	if n == 0 {
		var zero T
		return zero, false
	}

	root := q.data[0]
	q.data[0] = q.data[n-1]
	q.shrink()
	if len(q.data) > 0 {
		q.down(0)
	}
	return root, true
}

// RemoveOnce removes the first element, in backing array order, that
// satisfies match. The last element is moved into the hole and sifted in
// whichever direction restores the heap: up when it outranks its new
// parent, down otherwise.
func (q *Queue[T]) RemoveOnce(match func(*T) bool) bool {
	n := len(q.data)
	for i := 0; i < n; i++ {
		if !match(&q.data[i]) {
			continue
		}
		q.data[i] = q.data[n-1]
		q.shrink()
		if i < n-1 {
			if !q.up(i) {
				q.down(i)
			}
		}
		return true
	}
	return false
}

// Len returns the number of stored elements.
func (q *Queue[T]) Len() int {
	return len(q.data)
}

// Data exposes the backing array in heap order. Callers must not modify it.
func (q *Queue[T]) Data() []T {
	return q.data
}

func (q *Queue[T]) shrink() {
	var zero T
	last := len(q.data) - 1
	q.data[last] = zero
	q.data = q.data[:last]
}

// up returns whether the element moved.
func (q *Queue[T]) up(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		cur := &q.data[i]
		if q.compare(cur, &q.data[parent]) != cur {
			break
		}
		q.data[i], q.data[parent] = q.data[parent], q.data[i]
		i = parent
		moved = true
	}
	return moved
}

func (q *Queue[T]) down(i int) {
	for {
		size := len(q.data)
		li, ri := 2*i+1, 2*i+2

		var left, right *T
		if li < size {
			left = &q.data[li]
		}
		if ri < size {
			right = &q.data[ri]
		}
		picked := q.compare(left, right)

		cur := &q.data[i]
		if q.compare(cur, picked) == cur {
			return
		}

		child := ri
		if picked == left {
			child = li
		}
		q.data[i], q.data[child] = q.data[child], q.data[i]
		i = child
	}
}

func (q *Queue[T]) compare(a, b *T) *T {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return q.pick(a, b)
}

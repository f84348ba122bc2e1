package rpc

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/yanun0323/errors"
)

// Handler decodes positional arguments and invokes a bound function.
type Handler interface {
	// ArgsSize is the number of argument bytes the handler consumes.
	ArgsSize() int
	// Invoke returns false when args is shorter than ArgsSize.
	Invoke(args []byte) bool
}

// Table dispatches calls by function id. It is owned by the goroutine that
// calls it.
type Table struct {
	handlers map[int32]Handler

	onUnknown   func(id int32)
	onMalformed func(id int32)
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{handlers: make(map[int32]Handler)}
}

// OnUnknown sets a hook for calls whose id has no handler. Such calls are
// dropped either way.
func (t *Table) OnUnknown(fn func(id int32)) {
	t.onUnknown = fn
}

// OnMalformed sets a hook for calls too short for their handler.
func (t *Table) OnMalformed(fn func(id int32)) {
	t.onMalformed = fn
}

// Register binds id to h. A later registration of the same id wins.
func (t *Table) Register(id int32, h Handler) {
	t.handlers[id] = h
}

// Len returns the number of registered ids.
func (t *Table) Len() int {
	return len(t.handlers)
}

// Call dispatches call (function id plus arguments). It reports whether a
// handler ran. Unknown ids and short calls are dropped silently.
func (t *Table) Call(call []byte) bool {
	if len(call) < idSize {
		if t.onMalformed != nil {
			t.onMalformed(0)
		}
		return false
	}
	id := int32(binary.LittleEndian.Uint32(call[:idSize]))
	h, ok := t.handlers[id]
	if !ok {
		if t.onUnknown != nil {
			t.onUnknown(id)
		}
		return false
	}
	if !h.Invoke(call[idSize:]) {
		if t.onMalformed != nil {
			t.onMalformed(id)
		}
		return false
	}
	return true
}

// CallFrame dispatches a queued frame.
func (t *Table) CallFrame(f *Frame) bool {
	return t.Call(f.Bytes())
}

// Must panics when err is non-nil. It is meant for registrations made at
// startup.
func Must(h Handler, err error) Handler {
	if err != nil {
		panic(err)
	}
	return h
}

// Bind1 binds a one-argument function.
func Bind1[A any](fn func(A)) (Handler, error) {
	layout, err := newLayout(reflect.TypeFor[A]())
	if err != nil {
		return nil, err
	}
	return &handler1[A]{layout: layout, fn: fn}, nil
}

// Bind2 binds a two-argument function.
func Bind2[A, B any](fn func(A, B)) (Handler, error) {
	layout, err := newLayout(reflect.TypeFor[A](), reflect.TypeFor[B]())
	if err != nil {
		return nil, err
	}
	return &handler2[A, B]{layout: layout, fn: fn}, nil
}

// Bind3 binds a three-argument function.
func Bind3[A, B, C any](fn func(A, B, C)) (Handler, error) {
	layout, err := newLayout(reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())
	if err != nil {
		return nil, err
	}
	return &handler3[A, B, C]{layout: layout, fn: fn}, nil
}

// layout holds the byte offset of every argument, computed once at
// registration as the prefix sum of the argument sizes.
type layout struct {
	offsets []int
	size    int
}

func newLayout(types ...reflect.Type) (layout, error) {
	l := layout{offsets: make([]int, len(types))}
	for i, t := range types {
		n, err := typeSize(t)
		if err != nil {
			return layout{}, fmt.Errorf("argument %d (%v): %w", i, t, err)
		}
		l.offsets[i] = l.size
		l.size += n
	}
	if l.size > MaxCallSize-idSize {
		return layout{}, fmt.Errorf("arguments need %d bytes: %w", l.size, errFrameLimit)
	}
	return l, nil
}

func (l layout) ArgsSize() int {
	return l.size
}

var errFrameLimit = errors.New("rpc: arguments exceed frame size")

func decodeAt[T any](args []byte, off int) (T, bool) {
	var v T
	if _, err := binary.Decode(args[off:], binary.LittleEndian, &v); err != nil {
		return v, false
	}
	return v, true
}

type handler1[A any] struct {
	layout
	fn func(A)
}

func (h *handler1[A]) Invoke(args []byte) bool {
	if len(args) < h.size {
		return false
	}
	a, ok := decodeAt[A](args, h.offsets[0])
	if !ok {
		return false
	}
	h.fn(a)
	return true
}

type handler2[A, B any] struct {
	layout
	fn func(A, B)
}

func (h *handler2[A, B]) Invoke(args []byte) bool {
	if len(args) < h.size {
		return false
	}
	a, okA := decodeAt[A](args, h.offsets[0])
	b, okB := decodeAt[B](args, h.offsets[1])
	if !okA || !okB {
		return false
	}
	h.fn(a, b)
	return true
}

type handler3[A, B, C any] struct {
	layout
	fn func(A, B, C)
}

func (h *handler3[A, B, C]) Invoke(args []byte) bool {
	if len(args) < h.size {
		return false
	}
	a, okA := decodeAt[A](args, h.offsets[0])
	b, okB := decodeAt[B](args, h.offsets[1])
	c, okC := decodeAt[C](args, h.offsets[2])
	if !okA || !okB || !okC {
		return false
	}
	h.fn(a, b, c)
	return true
}

// Package rpc implements the binary call protocol: a frame is
// [u8 length][i32 function id][fixed-size arguments], where length counts
// every byte after itself and a whole frame never exceeds MaxFrameSize.
package rpc

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"market/pkg/exception"
)

const (
	// MaxFrameSize bounds a frame including its length byte.
	MaxFrameSize = 256
	// MaxCallSize bounds the function id plus arguments.
	MaxCallSize = MaxFrameSize - lengthSize

	lengthSize = 1
	idSize     = 4
)

// Frame is one call without its length prefix. It is stored inline so the
// engine queues can move it by value.
type Frame struct {
	n   uint8
	buf [MaxCallSize]byte
}

// NewFrame copies call (function id plus arguments) into a Frame.
func NewFrame(call []byte) (Frame, error) {
	var f Frame
	if len(call) > MaxCallSize {
		return f, exception.ErrFrameTooLarge
	}
	if len(call) < idSize {
		return f, exception.ErrFrameTooShort
	}
	f.n = uint8(len(call))
	copy(f.buf[:], call)
	return f, nil
}

// Bytes returns the function id followed by the arguments.
func (f *Frame) Bytes() []byte {
	return f.buf[:f.n]
}

// ID returns the function id.
func (f *Frame) ID() int32 {
	if f.n < idSize {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(f.buf[:idSize]))
}

// Encode builds a complete frame for id and args. Every argument must be
// fixed-size plain data: no pointers, slices, strings, maps or interfaces,
// and nothing encoding/binary cannot size.
func Encode(id int32, args ...any) ([]byte, error) {
	return AppendFrame(make([]byte, 0, MaxFrameSize), id, args...)
}

// AppendFrame is Encode appending to dst.
func AppendFrame(dst []byte, id int32, args ...any) ([]byte, error) {
	start := len(dst)
	dst = append(dst, 0)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(id))
	for i, arg := range args {
		if _, err := valueSize(arg); err != nil {
			return dst[:start], fmt.Errorf("argument %d (%T): %w", i, arg, err)
		}
		var err error
		dst, err = binary.Append(dst, binary.LittleEndian, arg)
		if err != nil {
			return dst[:start], fmt.Errorf("append argument %d: %w", i, err)
		}
		if len(dst)-start > MaxFrameSize {
			return dst[:start], exception.ErrFrameTooLarge
		}
	}
	dst[start] = byte(len(dst) - start - lengthSize)
	return dst, nil
}

func valueSize(v any) (int, error) {
	if v == nil {
		return 0, exception.ErrArgumentNotFixedSize
	}
	return typeSize(reflect.TypeOf(v))
}

func typeSize(t reflect.Type) (int, error) {
	if t == nil {
		return 0, exception.ErrArgumentNotFixedSize
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.String,
		reflect.Map, reflect.Interface, reflect.Chan, reflect.Func:
		return 0, exception.ErrArgumentNotFixedSize
	}
	n := binary.Size(reflect.Zero(t).Interface())
	if n < 0 {
		return 0, exception.ErrArgumentNotFixedSize
	}
	return n, nil
}

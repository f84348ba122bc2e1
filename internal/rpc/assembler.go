package rpc

// Assembler turns a byte stream into frames. Bytes of an incomplete frame
// stay buffered until the rest arrives.
type Assembler struct {
	pending []byte
}

// Feed appends p and calls emit once per complete frame with the call
// bytes (function id plus arguments). The slice passed to emit is only
// valid during the call.
func (a *Assembler) Feed(p []byte, emit func(call []byte)) {
	a.pending = append(a.pending, p...)

	off := 0
	for len(a.pending)-off >= lengthSize {
		n := int(a.pending[off])
		if len(a.pending)-off < lengthSize+n {
			break
		}
		emit(a.pending[off+lengthSize : off+lengthSize+n])
		off += lengthSize + n
	}

	if off > 0 {
		rest := copy(a.pending, a.pending[off:])
		a.pending = a.pending[:rest]
	}
}

// Pending returns the number of buffered bytes of an incomplete frame.
func (a *Assembler) Pending() int {
	return len(a.pending)
}

// Reset drops any buffered bytes.
func (a *Assembler) Reset() {
	a.pending = a.pending[:0]
}

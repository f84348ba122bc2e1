package journal

import (
	"bufio"
	"io"

	"market/internal/codec"
	"market/internal/model"
	"market/internal/model/enum"
	"market/pkg/exception"
)

// Reader decodes journal records sequentially.
type Reader struct {
	r   *bufio.Reader
	buf [codec.RecordSize]byte
}

// NewReader wraps an io.Reader with journal decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF at a record boundary and
// ErrJournalTruncated when the stream ends inside a record.
func (r *Reader) Next() (enum.Call, model.OrderEntry, error) {
	n, err := io.ReadFull(r.r, r.buf[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return enum.CallInvalid, model.OrderEntry{}, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return enum.CallInvalid, model.OrderEntry{}, exception.ErrJournalTruncated
		}
		return enum.CallInvalid, model.OrderEntry{}, err
	}
	call, e, _ := codec.DecodeRecord(r.buf[:])
	return call, e, nil
}

package codec

import (
	"encoding/binary"

	"market/internal/model"
	"market/internal/model/enum"
)

const (
	callTagSize = 4
	// RecordSize is one journal record: the call tag then the entry image.
	RecordSize = callTagSize + OrderEntrySize
)

// EncodeRecord serializes a journal record.
func EncodeRecord(dst []byte, call enum.Call, e model.OrderEntry) []byte {
	if cap(dst) < RecordSize {
		dst = make([]byte, RecordSize)
	} else {
		dst = dst[:RecordSize]
	}
	binary.LittleEndian.PutUint32(dst[0:4], uint32(call))
	PutOrderEntry(dst[callTagSize:], e)
	return dst
}

// DecodeRecord parses a journal record.
func DecodeRecord(src []byte) (enum.Call, model.OrderEntry, bool) {
	if len(src) < RecordSize {
		return enum.CallInvalid, model.OrderEntry{}, false
	}
	call := enum.Call(int32(binary.LittleEndian.Uint32(src[0:4])))
	e, _ := DecodeOrderEntry(src[callTagSize:])
	return call, e, true
}

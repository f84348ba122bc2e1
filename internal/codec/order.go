// Package codec holds the fixed-size little-endian images shared with
// clients. The layouts equal the in-memory structs of a little-endian
// client; a big-endian peer has to swap bytes itself.
package codec

import (
	"encoding/binary"

	"market/internal/model"
	"market/internal/model/enum"
)

// OrderEntrySize is id, time, price, quantity (8 bytes each), the order
// type (4 bytes) and the symbol (4 bytes).
const OrderEntrySize = 40

// EncodeOrderEntry serializes an order entry into a fixed-size payload.
func EncodeOrderEntry(dst []byte, e model.OrderEntry) []byte {
	if cap(dst) < OrderEntrySize {
		dst = make([]byte, OrderEntrySize)
	} else {
		dst = dst[:OrderEntrySize]
	}
	PutOrderEntry(dst, e)
	return dst
}

// PutOrderEntry writes e into the first OrderEntrySize bytes of dst.
func PutOrderEntry(dst []byte, e model.OrderEntry) {
	_ = dst[OrderEntrySize-1]
	binary.LittleEndian.PutUint64(dst[0:8], uint64(e.ID))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(e.Time))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(e.Price))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(e.Quantity))
	binary.LittleEndian.PutUint32(dst[32:36], uint32(e.Type))
	copy(dst[36:40], e.Symbol[:])
}

// DecodeOrderEntry parses a fixed-size order entry payload.
func DecodeOrderEntry(src []byte) (model.OrderEntry, bool) {
	if len(src) < OrderEntrySize {
		return model.OrderEntry{}, false
	}
	e := model.OrderEntry{
		ID:       int64(binary.LittleEndian.Uint64(src[0:8])),
		Time:     int64(binary.LittleEndian.Uint64(src[8:16])),
		Price:    model.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		Quantity: model.Quantity(int64(binary.LittleEndian.Uint64(src[24:32]))),
		Type:     enum.OrderType(int32(binary.LittleEndian.Uint32(src[32:36]))),
	}
	copy(e.Symbol[:], src[36:40])
	return e, true
}

package codec

import "market/internal/model"

// L1SnapshotSize is the multicast payload: best bid then best ask.
const L1SnapshotSize = 2 * OrderEntrySize

// EncodeL1Snapshot serializes the top of book. An empty side is sent as a
// zero entry.
func EncodeL1Snapshot(dst []byte, bid, ask model.OrderEntry) []byte {
	if cap(dst) < L1SnapshotSize {
		dst = make([]byte, L1SnapshotSize)
	} else {
		dst = dst[:L1SnapshotSize]
	}
	PutOrderEntry(dst[:OrderEntrySize], bid)
	PutOrderEntry(dst[OrderEntrySize:], ask)
	return dst
}

// DecodeL1Snapshot parses a multicast top of book payload.
func DecodeL1Snapshot(src []byte) (bid, ask model.OrderEntry, ok bool) {
	if len(src) < L1SnapshotSize {
		return model.OrderEntry{}, model.OrderEntry{}, false
	}
	bid, _ = DecodeOrderEntry(src[:OrderEntrySize])
	ask, _ = DecodeOrderEntry(src[OrderEntrySize:])
	return bid, ask, true
}

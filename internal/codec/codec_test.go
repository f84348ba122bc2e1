package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/model"
	"market/internal/model/enum"
)

var sample = model.OrderEntry{
	ID:       7,
	Time:     1700000000123456789,
	Price:    60,
	Quantity: -1,
	Type:     enum.OrderTypeLimit,
	Symbol:   model.NewSymbol("AAPL"),
}

// The codec must produce the same bytes as encoding/binary over the struct,
// which is what the rpc table decodes with.
func TestOrderEntryMatchesStructImage(t *testing.T) {
	var want bytes.Buffer
	require.NoError(t, binary.Write(&want, binary.LittleEndian, sample))
	require.Equal(t, OrderEntrySize, want.Len())

	got := EncodeOrderEntry(nil, sample)
	assert.Equal(t, want.Bytes(), got)

	decoded, ok := DecodeOrderEntry(got)
	require.True(t, ok)
	assert.Equal(t, sample, decoded)
}

func TestOrderEntryLayout(t *testing.T) {
	buf := EncodeOrderEntry(make([]byte, 0, 64), sample)
	assert.Equal(t, []byte{7, 0, 0, 0, 0, 0, 0, 0}, buf[0:8])
	assert.Equal(t, []byte{60, 0, 0, 0, 0, 0, 0, 0}, buf[16:24])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, buf[24:32])
	assert.Equal(t, []byte{1, 0, 0, 0}, buf[32:36])
	assert.Equal(t, []byte("AAPL"), buf[36:40])
}

func TestDecodeShortInput(t *testing.T) {
	_, ok := DecodeOrderEntry(make([]byte, OrderEntrySize-1))
	assert.False(t, ok)
	_, _, ok = DecodeL1Snapshot(make([]byte, L1SnapshotSize-1))
	assert.False(t, ok)
	_, _, ok = DecodeRecord(make([]byte, RecordSize-1))
	assert.False(t, ok)
}

func TestL1Snapshot(t *testing.T) {
	ask := sample
	ask.Price = 110
	buf := EncodeL1Snapshot(nil, sample, ask)
	require.Len(t, buf, L1SnapshotSize)

	bid, gotAsk, ok := DecodeL1Snapshot(buf)
	require.True(t, ok)
	assert.Equal(t, sample, bid)
	assert.Equal(t, ask, gotAsk)

	empty := EncodeL1Snapshot(nil, model.OrderEntry{}, ask)
	assert.Equal(t, make([]byte, OrderEntrySize), empty[:OrderEntrySize])
}

func TestRecord(t *testing.T) {
	buf := EncodeRecord(nil, enum.CallCancelOrderAsk, sample)
	require.Len(t, buf, RecordSize)
	assert.Equal(t, []byte{4, 0, 0, 0}, buf[:4])

	call, e, ok := DecodeRecord(buf)
	require.True(t, ok)
	assert.Equal(t, enum.CallCancelOrderAsk, call)
	assert.Equal(t, sample, e)
}

package model

import (
	"bytes"

	"market/internal/model/enum"
	"market/pkg/exception"
)

// SymbolSize is the fixed width of a ticker code on the wire.
const SymbolSize = 4

// Symbol is a 4-byte ticker code. It is compared byte by byte and is not
// null-terminated.
type Symbol [SymbolSize]byte

// NewSymbol copies at most four bytes of s, zero padding the rest.
func NewSymbol(s string) Symbol {
	var sym Symbol
	copy(sym[:], s)
	return sym
}

func (s Symbol) String() string {
	return string(bytes.TrimRight(s[:], "\x00"))
}

// MarshalText renders the ticker as text in JSON.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a ticker of at most four bytes.
func (s *Symbol) UnmarshalText(text []byte) error {
	if len(text) > SymbolSize {
		return exception.ErrInvalidArgument
	}
	*s = NewSymbol(string(text))
	return nil
}

// OrderEntry is the unit stored in the book. ID and Time are owned by the
// book and overwritten on insertion.
type OrderEntry struct {
	ID       int64          `json:"id"`
	Time     int64          `json:"time"`
	Price    Price          `json:"price"`
	Quantity Quantity       `json:"quantity"`
	Type     enum.OrderType `json:"type"`
	Symbol   Symbol         `json:"symbol"`
}

// OrderResult is the top of book after a call plus the value it produced.
// For placements Amount is the traded notional. For cancellations it is 1
// when an order was removed and 0 otherwise; it is never a traded quantity.
type OrderResult struct {
	BestBid OrderEntry
	BestAsk OrderEntry
	Amount  Notional
}

// Found reports whether a cancellation removed an order.
func (r OrderResult) Found() bool {
	return r.Amount != 0
}

// CompletedOrder is handed from the matching goroutine to the publisher.
type CompletedOrder struct {
	Call   enum.Call
	Entry  OrderEntry
	Result OrderResult
}

// L2Level is one aggregated price level.
type L2Level struct {
	Price    Price    `json:"price"`
	Quantity Quantity `json:"quantity"`
}

// BookStats are the monotonic counters kept by a book.
type BookStats struct {
	OrderCount  uint64 `json:"orderCount"`
	CancelCount uint64 `json:"cancelCount"`
	TradeCount  uint64 `json:"tradeCount"`
	Volume      uint64 `json:"volume"`
}

// OrderToTradeRatio returns false when no trade happened yet.
func (s BookStats) OrderToTradeRatio() (float64, bool) {
	if s.TradeCount == 0 {
		return 0, false
	}
	return float64(s.OrderCount) / float64(s.TradeCount), true
}

// VolumePerTrade returns false when no trade happened yet.
func (s BookStats) VolumePerTrade() (float64, bool) {
	if s.TradeCount == 0 {
		return 0, false
	}
	return float64(s.Volume) / float64(s.TradeCount), true
}

/*
Package orderbook keeps the resting bids and asks of a single symbol and
matches them with price-time priority.

A Book has no internal locking. Exactly one goroutine may call its methods;
other goroutines talk to it through the engine's queues.
*/
package orderbook

import (
	"time"

	"market/internal/model"
	"market/internal/pq"
	"market/pkg/exception"
)

// Clock returns the current time in nanoseconds.
type Clock func() int64

// Option configures a Book.
type Option func(*Book)

// WithClock replaces the wall clock used to stamp orders.
func WithClock(clock Clock) Option {
	return func(b *Book) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// Book is a price-time priority order book.
type Book struct {
	symbol   model.Symbol
	clock    Clock
	lastTime int64

	orderCount  uint64
	cancelCount uint64
	tradeCount  uint64
	volume      uint64

	bids *pq.Queue[model.OrderEntry]
	asks *pq.Queue[model.OrderEntry]
}

// New creates an empty book for symbol.
func New(symbol model.Symbol, opts ...Option) *Book {
	b := &Book{
		symbol: symbol,
		clock:  func() int64 { return time.Now().UnixNano() },
		bids:   pq.New(PickBid),
		asks:   pq.New(PickAsk),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PickBid prefers the higher price, then the earlier time.
func PickBid(a, b *model.OrderEntry) *model.OrderEntry {
	if a.Price > b.Price {
		return a
	}
	if a.Price < b.Price {
		return b
	}
	if a.Time < b.Time {
		return a
	}
	return b
}

// PickAsk prefers the lower price, then the earlier time.
func PickAsk(a, b *model.OrderEntry) *model.OrderEntry {
	if a.Price < b.Price {
		return a
	}
	if a.Price > b.Price {
		return b
	}
	if a.Time < b.Time {
		return a
	}
	return b
}

// Symbol returns the ticker this book was created for.
func (b *Book) Symbol() model.Symbol {
	return b.symbol
}

// AddBid stamps entry with its id and time, rests it on the bid side and
// matches the book. entry is updated in place with the assigned id and time.
func (b *Book) AddBid(entry *model.OrderEntry) model.OrderResult {
	b.completeOrder(entry)
	b.bids.Push(*entry)
	return b.afterAdd(entry)
}

// AddAsk is AddBid for the ask side.
func (b *Book) AddAsk(entry *model.OrderEntry) model.OrderResult {
	b.completeOrder(entry)
	b.asks.Push(*entry)
	return b.afterAdd(entry)
}

// RemoveBid cancels the resting bid with the given id. The result amount is
// 1 when the order was found and 0 otherwise.
func (b *Book) RemoveBid(id int64) model.OrderResult {
	return b.remove(b.bids, id)
}

// RemoveAsk cancels the resting ask with the given id.
func (b *Book) RemoveAsk(id int64) model.OrderResult {
	return b.remove(b.asks, id)
}

// L1 returns the best bid and ask. Each side is reported independently.
func (b *Book) L1() (bid, ask model.OrderEntry, hasBid, hasAsk bool) {
	bid, hasBid = b.bids.PeekCopy()
	ask, hasAsk = b.asks.PeekCopy()
	return bid, ask, hasBid, hasAsk
}

// L2 would return the aggregated price ladder. It is not implemented.
func (b *Book) L2(depth int) (bids, asks []model.L2Level, err error) {
	return nil, nil, exception.ErrNotImplemented
}

// L3 would return the full order level depth. It is not implemented.
func (b *Book) L3(depth int) (bids, asks []model.OrderEntry, err error) {
	return nil, nil, exception.ErrNotImplemented
}

// Depth returns the number of resting orders per side.
func (b *Book) Depth() (bids, asks int) {
	return b.bids.Len(), b.asks.Len()
}

// Stats returns the running counters.
func (b *Book) Stats() model.BookStats {
	return model.BookStats{
		OrderCount:  b.orderCount,
		CancelCount: b.cancelCount,
		TradeCount:  b.tradeCount,
		Volume:      b.volume,
	}
}

// OrderToTradeRatio is orderCount / tradeCount, false while no trade happened.
func (b *Book) OrderToTradeRatio() (float64, bool) {
	return b.Stats().OrderToTradeRatio()
}

// VolumePerTrade is volume / tradeCount, false while no trade happened.
func (b *Book) VolumePerTrade() (float64, bool) {
	return b.Stats().VolumePerTrade()
}

func (b *Book) afterAdd(entry *model.OrderEntry) model.OrderResult {
	amount := b.resolve()

	b.orderCount++
	b.volume += uint64(entry.Quantity)

	result := model.OrderResult{Amount: amount}
	result.BestBid, result.BestAsk, _, _ = b.L1()
	return result
}

func (b *Book) remove(side *pq.Queue[model.OrderEntry], id int64) model.OrderResult {
	b.cancelCount++
	var result model.OrderResult
	if side.RemoveOnce(func(e *model.OrderEntry) bool { return e.ID == id }) {
		result.Amount = 1
	}
	result.BestBid, result.BestAsk, _, _ = b.L1()
	return result
}

// completeOrder assigns the id from the order counter and a strictly
// increasing timestamp, so two orders never share a time within a book.
func (b *Book) completeOrder(entry *model.OrderEntry) {
	now := b.clock()
	if now <= b.lastTime {
		now = b.lastTime + 1
	}
	b.lastTime = now

	entry.ID = int64(b.orderCount)
	entry.Time = now
	if entry.Quantity < 0 {
		entry.Quantity = 0
	}
}

// resolve matches crossing orders until the book is one-sided or the best
// bid is below the best ask. Every fill is priced at the ask, regardless of
// which side was resting.
func (b *Book) resolve() model.Notional {
	var value model.Notional

	bid, hasBid := b.bids.Peek()
	ask, hasAsk := b.asks.Peek()
	for hasBid && hasAsk && bid.Price >= ask.Price {
		aq := ask.Quantity
		ask.Quantity = max(0, ask.Quantity-bid.Quantity)
		bid.Quantity = max(0, bid.Quantity-aq)

		value += ask.Price.Mul(aq - ask.Quantity)

		if ask.Quantity == 0 {
			b.asks.Pop()
		}
		if bid.Quantity == 0 {
			b.bids.Pop()
		}

		b.tradeCount++

		bid, hasBid = b.bids.Peek()
		ask, hasAsk = b.asks.Peek()
	}
	return value
}

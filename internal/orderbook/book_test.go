package orderbook

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/pkg/sys"

	"market/internal/model"
	"market/internal/model/enum"
	"market/pkg/exception"
)

var aapl = model.NewSymbol("AAPL")

func stepClock() Clock {
	var now int64
	return func() int64 {
		now += 10
		return now
	}
}

func newBook() *Book {
	return New(aapl, WithClock(stepClock()))
}

func limit(price model.Price, qty model.Quantity) *model.OrderEntry {
	return &model.OrderEntry{
		Price:    price,
		Quantity: qty,
		Type:     enum.OrderTypeLimit,
		Symbol:   aapl,
	}
}

func TestAddAssignsIDAndTime(t *testing.T) {
	b := newBook()

	first := limit(50, 1)
	first.ID = 999
	b.AddBid(first)
	second := limit(60, 1)
	b.AddAsk(second)

	assert.Equal(t, int64(0), first.ID)
	assert.Equal(t, int64(1), second.ID)
	assert.Equal(t, int64(10), first.Time)
	assert.Equal(t, int64(20), second.Time)
}

func TestTimeIsStrictlyIncreasing(t *testing.T) {
	b := New(aapl, WithClock(func() int64 { return 42 }))
	a, c := limit(50, 1), limit(50, 1)
	b.AddBid(a)
	b.AddBid(c)
	assert.Equal(t, int64(42), a.Time)
	assert.Equal(t, int64(43), c.Time)
}

func TestNoCrossWithoutOverlap(t *testing.T) {
	b := newBook()
	b.AddBid(limit(40, 100))
	res := b.AddAsk(limit(110, 100))

	assert.Equal(t, model.Notional(0), res.Amount)
	assert.Equal(t, model.Price(40), res.BestBid.Price)
	assert.Equal(t, model.Price(110), res.BestAsk.Price)
	assert.Equal(t, uint64(0), b.Stats().TradeCount)
}

func TestPartialFill(t *testing.T) {
	b := newBook()
	b.AddAsk(limit(55, 4))
	res := b.AddBid(limit(60, 10))

	assert.Equal(t, model.Notional(220), res.Amount)
	assert.Equal(t, model.Price(60), res.BestBid.Price)
	assert.Equal(t, model.Quantity(6), res.BestBid.Quantity)
	assert.Equal(t, model.OrderEntry{}, res.BestAsk)

	bids, asks := b.Depth()
	assert.Equal(t, 1, bids)
	assert.Equal(t, 0, asks)
	assert.Equal(t, uint64(1), b.Stats().TradeCount)
}

func TestFullMatchRemovesBoth(t *testing.T) {
	b := newBook()
	b.AddAsk(limit(60, 5))
	res := b.AddBid(limit(60, 5))

	assert.Equal(t, model.Notional(300), res.Amount)
	bids, asks := b.Depth()
	assert.Zero(t, bids)
	assert.Zero(t, asks)

	stats := b.Stats()
	assert.Equal(t, uint64(1), stats.TradeCount)
	assert.Equal(t, uint64(2), stats.OrderCount)
	assert.Equal(t, uint64(10), stats.Volume)
}

// Fills are priced at the ask even when the ask is the incoming order and
// the bid was resting. Standard matching would price this at 60 (240).
func TestResolveBookPricesAtAskEvenWhenAskIsAggressor(t *testing.T) {
	b := newBook()
	b.AddBid(limit(60, 10))
	res := b.AddAsk(limit(55, 4))

	assert.Equal(t, model.Notional(220), res.Amount)
	assert.Equal(t, model.Quantity(6), res.BestBid.Quantity)
}

func TestSweepsSeveralLevels(t *testing.T) {
	b := newBook()
	b.AddAsk(limit(52, 4))
	b.AddAsk(limit(50, 2))
	b.AddAsk(limit(51, 3))

	res := b.AddBid(limit(55, 6))
	assert.Equal(t, model.Notional(2*50+3*51+1*52), res.Amount)
	assert.Equal(t, model.Price(52), res.BestAsk.Price)
	assert.Equal(t, model.Quantity(3), res.BestAsk.Quantity)
	assert.Equal(t, model.OrderEntry{}, res.BestBid)
	assert.Equal(t, uint64(3), b.Stats().TradeCount)
}

func TestPriceTimePriority(t *testing.T) {
	b := newBook()
	early := limit(50, 1)
	late := limit(50, 1)
	b.AddBid(early)
	b.AddBid(late)

	res := b.AddAsk(limit(50, 1))
	assert.Equal(t, model.Notional(50), res.Amount)
	assert.Equal(t, late.ID, res.BestBid.ID)

	better := limit(51, 1)
	b.AddAsk(limit(70, 1))
	b.AddBid(better)
	bid, _, ok, _ := b.L1()
	require.True(t, ok)
	assert.Equal(t, better.ID, bid.ID)
}

func TestAskTimePriority(t *testing.T) {
	b := newBook()
	early := limit(70, 1)
	late := limit(70, 1)
	b.AddAsk(early)
	b.AddAsk(late)

	res := b.AddBid(limit(70, 1))
	assert.Equal(t, late.ID, res.BestAsk.ID)
}

func TestCancel(t *testing.T) {
	b := newBook()
	keep := limit(48, 1)
	drop := limit(50, 1)
	b.AddBid(keep)
	b.AddBid(drop)

	res := b.RemoveBid(drop.ID)
	assert.True(t, res.Found())
	assert.Equal(t, keep.ID, res.BestBid.ID)

	ask := limit(60, 2)
	b.AddAsk(ask)
	res = b.RemoveAsk(ask.ID)
	assert.True(t, res.Found())
	assert.Equal(t, model.OrderEntry{}, res.BestAsk)
	assert.Equal(t, uint64(2), b.Stats().CancelCount)
}

func TestCancelUnknownOnlyCountsCancel(t *testing.T) {
	b := newBook()
	b.AddBid(limit(50, 3))
	before := b.Stats()

	res := b.RemoveBid(12345)
	assert.False(t, res.Found())
	assert.Equal(t, model.Notional(0), res.Amount)
	assert.Equal(t, model.Price(50), res.BestBid.Price)

	// a bid id does not cancel from the ask side
	res = b.RemoveAsk(0)
	assert.False(t, res.Found())

	after := b.Stats()
	assert.Equal(t, before.OrderCount, after.OrderCount)
	assert.Equal(t, before.TradeCount, after.TradeCount)
	assert.Equal(t, before.Volume, after.Volume)
	assert.Equal(t, before.CancelCount+2, after.CancelCount)
}

func TestNegativeQuantityIsClamped(t *testing.T) {
	b := newBook()
	b.AddAsk(limit(50, 5))
	neg := limit(60, -3)
	b.AddBid(neg)

	assert.Equal(t, model.Quantity(0), neg.Quantity)
	_, ask, _, hasAsk := b.L1()
	require.True(t, hasAsk)
	assert.Equal(t, model.Quantity(5), ask.Quantity)
}

func TestDerivedMetrics(t *testing.T) {
	b := newBook()
	_, ok := b.OrderToTradeRatio()
	assert.False(t, ok)
	_, ok = b.VolumePerTrade()
	assert.False(t, ok)

	b.AddBid(limit(50, 4))
	b.AddAsk(limit(50, 4))
	b.AddBid(limit(10, 2))
	b.AddAsk(limit(90, 2))

	ratio, ok := b.OrderToTradeRatio()
	require.True(t, ok)
	assert.InDelta(t, 4.0, ratio, 1e-9)
	vpt, ok := b.VolumePerTrade()
	require.True(t, ok)
	assert.InDelta(t, 12.0, vpt, 1e-9)
}

func TestL2AndL3AreNotImplemented(t *testing.T) {
	b := newBook()
	_, _, err := b.L2(5)
	assert.ErrorIs(t, err, exception.ErrNotImplemented)
	_, _, err = b.L3(5)
	assert.ErrorIs(t, err, exception.ErrNotImplemented)
}

func TestBookNeverStaysCrossed(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	b := newBook()
	var ids []int64

	for i := 0; i < 5000; i++ {
		e := limit(model.Price(50+rnd.Intn(50)), model.Quantity(1+rnd.Intn(20)))
		switch rnd.Intn(5) {
		case 0, 1:
			b.AddBid(e)
			ids = append(ids, e.ID)
		case 2, 3:
			b.AddAsk(e)
			ids = append(ids, e.ID)
		case 4:
			if len(ids) > 0 {
				id := ids[rnd.Intn(len(ids))]
				b.RemoveBid(id)
				b.RemoveAsk(id)
			}
		}

		bid, ask, hasBid, hasAsk := b.L1()
		if hasBid && hasAsk {
			require.Less(t, bid.Price, ask.Price)
		}
		for _, e := range b.bids.Data() {
			require.Positive(t, e.Quantity)
		}
		for _, e := range b.asks.Data() {
			require.Positive(t, e.Quantity)
		}
	}
}

func TestMatchingAllocations(t *testing.T) {
	b := newBook()
	for i := 0; i < 1024; i++ {
		b.AddBid(limit(model.Price(40+i%10), 1))
	}

	alloc, bytes := sys.MeasureMem(func() {
		for i := 0; i < 1024; i++ {
			b.AddAsk(limit(model.Price(40+i%10), 1))
		}
	})
	t.Logf("alloc: %d, bytes: %d", alloc, bytes)
}

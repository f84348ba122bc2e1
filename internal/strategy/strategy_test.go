package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/model"
	"market/internal/model/enum"
)

var aapl = model.NewSymbol("AAPL")

func TestRandomStaysInRange(t *testing.T) {
	s, err := New("random", aapl, 1)
	require.NoError(t, err)

	sides := map[enum.Call]int{}
	for i := 0; i < 1000; i++ {
		o, ok := s.Decide(model.OrderEntry{}, model.OrderEntry{})
		require.True(t, ok)
		sides[o.Call]++
		assert.GreaterOrEqual(t, o.Entry.Price, model.Price(50))
		assert.Less(t, o.Entry.Price, model.Price(100))
		assert.Equal(t, model.Quantity(1), o.Entry.Quantity)
		assert.Equal(t, aapl, o.Entry.Symbol)
	}
	assert.Positive(t, sides[enum.CallPlaceOrderBid])
	assert.Positive(t, sides[enum.CallPlaceOrderAsk])
}

func TestMaker(t *testing.T) {
	s, err := New("maker", aapl, 0)
	require.NoError(t, err)

	o, ok := s.Decide(model.OrderEntry{Price: 40}, model.OrderEntry{})
	require.True(t, ok)
	assert.Equal(t, enum.CallPlaceOrderBid, o.Call)
	assert.Equal(t, model.Price(50), o.Entry.Price)

	_, ok = s.Decide(model.OrderEntry{Price: 50}, model.OrderEntry{})
	assert.False(t, ok)
}

func TestTaker(t *testing.T) {
	s, err := New("taker", aapl, 0)
	require.NoError(t, err)

	o, ok := s.Decide(model.OrderEntry{}, model.OrderEntry{Price: 110})
	require.True(t, ok)
	assert.Equal(t, enum.CallPlaceOrderAsk, o.Call)
	assert.Equal(t, model.Price(100), o.Entry.Price)

	_, ok = s.Decide(model.OrderEntry{}, model.OrderEntry{Price: 100})
	assert.False(t, ok)
}

func TestUnknownStrategy(t *testing.T) {
	_, err := New("spoofer", aapl, 0)
	assert.Error(t, err)
}

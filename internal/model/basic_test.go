package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/model/enum"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "123.45", FormatPrice(12345, 2))
	assert.Equal(t, "0.05", FormatPrice(5, 2))
	assert.Equal(t, "-1.5", FormatPrice(-15, 1))
	assert.Equal(t, "60", FormatPrice(60, 0))
	assert.Equal(t, "1.00", FormatPrice(100, 2))
	assert.Equal(t, "0.00", FormatPrice(0, 2))
}

func TestNotional(t *testing.T) {
	assert.Equal(t, Notional(220), Price(110).Mul(2))
	assert.Equal(t, "2.20", string(Price(110).Mul(2).AppendString(2, nil)))
	assert.Equal(t, "7", string(Quantity(7).AppendString(0, nil)))
}

func TestSymbol(t *testing.T) {
	s := NewSymbol("AAPL")
	assert.Equal(t, "AAPL", s.String())
	assert.Equal(t, Symbol{'A', 'A', 'P', 'L'}, s)

	short := NewSymbol("GE")
	assert.Equal(t, Symbol{'G', 'E', 0, 0}, short)
	assert.Equal(t, "GE", short.String())

	assert.Equal(t, NewSymbol("MSFT"), NewSymbol("MSFTX"))
	assert.NotEqual(t, NewSymbol("MSFT"), NewSymbol("msft"))
}

func TestBookStatsRatiosWithoutTrades(t *testing.T) {
	s := BookStats{OrderCount: 3, Volume: 30}
	_, ok := s.OrderToTradeRatio()
	assert.False(t, ok)
	_, ok = s.VolumePerTrade()
	assert.False(t, ok)

	s.TradeCount = 2
	r, ok := s.OrderToTradeRatio()
	assert.True(t, ok)
	assert.InDelta(t, 1.5, r, 1e-9)
	v, ok := s.VolumePerTrade()
	assert.True(t, ok)
	assert.InDelta(t, 15.0, v, 1e-9)
}

func TestOrderEntryJSON(t *testing.T) {
	e := OrderEntry{ID: 3, Time: 9, Price: 40, Quantity: 100, Type: enum.OrderTypeLimit, Symbol: NewSymbol("GE")}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"time":9,"price":40,"quantity":100,"type":1,"symbol":"GE"}`, string(data))

	var back OrderEntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e, back)

	var sym Symbol
	assert.Error(t, sym.UnmarshalText([]byte("GOOGL")))
}

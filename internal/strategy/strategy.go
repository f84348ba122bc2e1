// Package strategy holds the simple order generators used by the load
// generator. Each one reacts to a top-of-book snapshot.
package strategy

import (
	"fmt"
	"math/rand"

	"market/internal/model"
	"market/internal/model/enum"
)

// Order is a placement a strategy wants to send.
type Order struct {
	Call  enum.Call
	Entry model.OrderEntry
}

// Strategy decides on at most one order per snapshot.
type Strategy interface {
	Decide(bid, ask model.OrderEntry) (Order, bool)
}

// Random places a one-lot bid or ask with equal probability at a uniform
// price in [Low, Low+Width).
type Random struct {
	Symbol model.Symbol
	Low    model.Price
	Width  model.Price
	Rand   *rand.Rand
}

// Decide ignores the book and always places an order.
func (r *Random) Decide(_, _ model.OrderEntry) (Order, bool) {
	call := enum.CallPlaceOrderBid
	if r.Rand.Float64() >= 0.5 {
		call = enum.CallPlaceOrderAsk
	}
	price := r.Low
	if r.Width > 0 {
		price += model.Price(r.Rand.Int63n(int64(r.Width)))
	}
	return Order{Call: call, Entry: limit(r.Symbol, price)}, true
}

// Maker keeps a one-lot bid at Price whenever the best bid is below it.
type Maker struct {
	Symbol model.Symbol
	Price  model.Price
}

// Decide bids when the best bid is worse than the maker price.
func (m *Maker) Decide(bid, _ model.OrderEntry) (Order, bool) {
	if bid.Price >= m.Price {
		return Order{}, false
	}
	return Order{Call: enum.CallPlaceOrderBid, Entry: limit(m.Symbol, m.Price)}, true
}

// Taker offers one lot at Price whenever the best ask is above it.
type Taker struct {
	Symbol model.Symbol
	Price  model.Price
}

// Decide offers when the best ask is worse than the taker price.
func (t *Taker) Decide(_, ask model.OrderEntry) (Order, bool) {
	if ask.Price <= t.Price {
		return Order{}, false
	}
	return Order{Call: enum.CallPlaceOrderAsk, Entry: limit(t.Symbol, t.Price)}, true
}

// New builds a strategy by name with the default prices of the demo
// clients: makers bid 50, takers offer 100, random orders fall in [50, 100).
func New(name string, symbol model.Symbol, seed int64) (Strategy, error) {
	switch name {
	case "random":
		return &Random{Symbol: symbol, Low: 50, Width: 50, Rand: rand.New(rand.NewSource(seed))}, nil
	case "maker":
		return &Maker{Symbol: symbol, Price: 50}, nil
	case "taker":
		return &Taker{Symbol: symbol, Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func limit(symbol model.Symbol, price model.Price) model.OrderEntry {
	return model.OrderEntry{
		Price:    price,
		Quantity: 1,
		Type:     enum.OrderTypeLimit,
		Symbol:   symbol,
	}
}

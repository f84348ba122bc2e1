package enum

// OrderType is stored as a 4-byte integer on the wire.
type OrderType int32

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	_order_type_end
)

func (t OrderType) IsAvailable() bool {
	return t >= OrderTypeMarket && t < _order_type_end
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "market"
	case OrderTypeLimit:
		return "limit"
	default:
		return "unknown"
	}
}

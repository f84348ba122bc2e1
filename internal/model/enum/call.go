package enum

// Call is the numeric function id carried by a call frame.
type Call int32

const (
	CallInvalid Call = iota
	CallPlaceOrderBid
	CallPlaceOrderAsk
	CallCancelOrderBid
	CallCancelOrderAsk
	_call_end
)

func (c Call) IsAvailable() bool {
	return c > CallInvalid && c < _call_end
}

// IsPlace reports whether the call adds liquidity to the book.
func (c Call) IsPlace() bool {
	return c == CallPlaceOrderBid || c == CallPlaceOrderAsk
}

// IsCancel reports whether the call removes a resting order.
func (c Call) IsCancel() bool {
	return c == CallCancelOrderBid || c == CallCancelOrderAsk
}

func (c Call) String() string {
	switch c {
	case CallPlaceOrderBid:
		return "PlaceOrder_Bid"
	case CallPlaceOrderAsk:
		return "PlaceOrder_Ask"
	case CallCancelOrderBid:
		return "CancelOrder_Bid"
	case CallCancelOrderAsk:
		return "CancelOrder_Ask"
	default:
		return "Invalid"
	}
}

package engine

import (
	"market/internal/model"
	"market/internal/model/enum"
	"market/internal/orderbook"
	"market/internal/rpc"
)

// Sink receives the outcome of every dispatched call.
type Sink func(model.CompletedOrder)

// RegisterHandlers binds the four order calls of book into table. Every
// call reports its outcome to sink. Cancellations decode only the order id.
func RegisterHandlers(table *rpc.Table, book *orderbook.Book, sink Sink) {
	if sink == nil {
		sink = func(model.CompletedOrder) {}
	}

	table.Register(int32(enum.CallPlaceOrderBid), rpc.Must(rpc.Bind1(func(entry model.OrderEntry) {
		result := book.AddBid(&entry)
		sink(model.CompletedOrder{Call: enum.CallPlaceOrderBid, Entry: entry, Result: result})
	})))

	table.Register(int32(enum.CallPlaceOrderAsk), rpc.Must(rpc.Bind1(func(entry model.OrderEntry) {
		result := book.AddAsk(&entry)
		sink(model.CompletedOrder{Call: enum.CallPlaceOrderAsk, Entry: entry, Result: result})
	})))

	table.Register(int32(enum.CallCancelOrderBid), rpc.Must(rpc.Bind1(func(id int64) {
		result := book.RemoveBid(id)
		sink(model.CompletedOrder{Call: enum.CallCancelOrderBid, Entry: model.OrderEntry{ID: id}, Result: result})
	})))

	table.Register(int32(enum.CallCancelOrderAsk), rpc.Must(rpc.Bind1(func(id int64) {
		result := book.RemoveAsk(id)
		sink(model.CompletedOrder{Call: enum.CallCancelOrderAsk, Entry: model.OrderEntry{ID: id}, Result: result})
	})))
}

// Package engine owns the order book and runs the matching goroutine.
//
// Frames flow from the transport through the inbound ring into the call
// table, and every outcome flows through the completed ring to the
// Publisher. Both rings are single-producer single-consumer: Submit must be
// called from one goroutine, Run is the only consumer of the inbound ring
// and the only producer of the completed ring.
package engine

import (
	"context"
	"encoding/binary"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"market/internal/model"
	"market/internal/model/enum"
	"market/internal/obs"
	"market/internal/orderbook"
	"market/internal/rpc"
	"market/internal/spsc"
)

// Engine is the context object shared by the matching and publishing
// goroutines.
type Engine struct {
	cfg       Config
	book      *orderbook.Book
	table     *rpc.Table
	inbound   *spsc.Ring[rpc.Frame]
	completed *spsc.Ring[model.CompletedOrder]
	metrics   *obs.Metrics
	stats     statsMirror
	running   atomic.Bool

	frameDrops     throttle
	completedDrops throttle
}

// statsMirror republishes the book counters for readers outside the
// matching goroutine.
type statsMirror struct {
	orders  atomic.Uint64
	cancels atomic.Uint64
	trades  atomic.Uint64
	volume  atomic.Uint64
}

func (m *statsMirror) store(s model.BookStats) {
	m.orders.Store(s.OrderCount)
	m.cancels.Store(s.CancelCount)
	m.trades.Store(s.TradeCount)
	m.volume.Store(s.Volume)
}

func (m *statsMirror) load() model.BookStats {
	return model.BookStats{
		OrderCount:  m.orders.Load(),
		CancelCount: m.cancels.Load(),
		TradeCount:  m.trades.Load(),
		Volume:      m.volume.Load(),
	}
}

// New builds the book, the call table and both rings.
func New(cfg Config, metrics *obs.Metrics, opts ...orderbook.Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		book:      orderbook.New(model.NewSymbol(cfg.Symbol), opts...),
		table:     rpc.NewTable(),
		inbound:   spsc.New[rpc.Frame](cfg.InboundCapacity),
		completed: spsc.New[model.CompletedOrder](cfg.CompletedCapacity),
		metrics:   metrics,
	}
	e.frameDrops.every = cfg.DropLogInterval
	e.completedDrops.every = cfg.DropLogInterval

	RegisterHandlers(e.table, e.book, e.complete)
	e.table.OnUnknown(func(int32) { e.metrics.IncUnknownCall() })
	e.table.OnMalformed(func(int32) { e.metrics.IncMalformedCall() })
	return e, nil
}

// Symbol returns the ticker the book trades.
func (e *Engine) Symbol() model.Symbol {
	return e.book.Symbol()
}

// Completed is the ring drained by the Publisher.
func (e *Engine) Completed() *spsc.Ring[model.CompletedOrder] {
	return e.completed
}

// Stats returns the book counters as of the last dispatched call. It is
// safe from any goroutine.
func (e *Engine) Stats() model.BookStats {
	return e.stats.load()
}

// Book exposes the book for inspection. It must not be touched while Run
// is active.
func (e *Engine) Book() *orderbook.Book {
	return e.book
}

// Submit queues one call (function id plus arguments) for matching. It is
// the producer side of the inbound ring and must only be called from a
// single goroutine. A full ring drops the call.
func (e *Engine) Submit(call []byte) bool {
	frame, err := rpc.NewFrame(call)
	if err != nil {
		e.metrics.IncMalformedCall()
		return false
	}
	if !e.inbound.Push(frame) {
		total := e.metrics.IncFrameDropped()
		if e.frameDrops.allow(time.Now()) {
			logs.Errorf("engine: inbound ring full, dropped %d frames so far", total)
		}
		return false
	}
	e.metrics.IncFrameReceived()
	return true
}

// Dispatch runs one call on the caller's goroutine. It is used for seeding
// before Run starts and by Run itself.
func (e *Engine) Dispatch(call []byte) bool {
	start := time.Now()
	ok := e.table.Call(call)
	if ok {
		e.metrics.IncCall(enum.Call(binary.LittleEndian.Uint32(call)))
		e.metrics.ObserveDispatch(time.Since(start))
		e.stats.store(e.book.Stats())
	}
	return ok
}

// Seed places every seed order through the call table so that it is
// journaled like any client order. It must be called before Run.
func (e *Engine) Seed(seeds []Seed) error {
	symbol := e.book.Symbol()
	buf := make([]byte, 0, rpc.MaxFrameSize)
	for _, s := range seeds {
		if !s.Call.IsPlace() {
			continue
		}
		entry := model.OrderEntry{
			Price:    s.Price,
			Quantity: s.Quantity,
			Type:     enum.OrderTypeLimit,
			Symbol:   symbol,
		}
		frame, err := rpc.AppendFrame(buf[:0], int32(s.Call), entry)
		if err != nil {
			return err
		}
		e.Dispatch(frame[1:])
	}
	return nil
}

// Run is the matching loop. It drains the inbound ring, dispatching every
// frame, and sleeps for PollInterval whenever the ring is empty.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}
	defer e.running.Store(false)

	var (
		spins      uint64
		lastOrders uint64
		lastOps    = time.Now()
	)
	for {
		if ctx.Err() != nil {
			return nil
		}

		drained := 0
		for {
			frame, ok := e.inbound.Pop()
			if !ok {
				break
			}
			e.Dispatch(frame.Bytes())
			drained++
		}

		if drained == 0 {
			spins++
			if e.cfg.PollInterval > 0 {
				time.Sleep(e.cfg.PollInterval)
			} else {
				runtime.Gosched()
			}
		}

		if now := time.Now(); now.Sub(lastOps) >= e.cfg.OpsInterval {
			orders := e.book.Stats().OrderCount
			logs.Infof("engine: orders %d, spins %d, ops %d", orders, spins, orders-lastOrders)
			lastOrders = orders
			lastOps = now
		}
	}
}

// complete is the sink of the call table. It runs on the matching goroutine.
func (e *Engine) complete(order model.CompletedOrder) {
	if e.completed.Push(order) {
		return
	}
	total := e.metrics.IncCompletedDrop()
	if e.completedDrops.allow(time.Now()) {
		logs.Errorf("engine: completed ring full, dropped %d results so far", total)
	}
}

package engine

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"market/internal/codec"
	"market/internal/model"
	"market/internal/model/enum"
	"market/internal/obs"
)

// Sender delivers an encoded top-of-book snapshot.
type Sender interface {
	Send(p []byte) error
}

// Recorder persists completed calls.
type Recorder interface {
	Append(call enum.Call, e model.OrderEntry) error
	Flush() error
}

// Top is the latest top of book seen by the publisher. A side without
// resting orders is the zero entry.
type Top struct {
	Bid   model.OrderEntry `json:"bid"`
	Ask   model.OrderEntry `json:"ask"`
	Stats model.BookStats  `json:"stats"`
	Time  time.Time        `json:"time"`
}

// Mid is the integer midpoint of the best prices.
func (t Top) Mid() model.Price {
	return (t.Bid.Price + t.Ask.Price) / 2
}

// Spread is the best ask minus the best bid.
func (t Top) Spread() model.Price {
	return t.Ask.Price - t.Bid.Price
}

// Publisher drains the completed ring, appends every outcome to the
// journal and broadcasts the top of book. It is the only consumer of the
// completed ring.
type Publisher struct {
	cfg     PublisherConfig
	engine  *Engine
	journal Recorder
	sender  Sender
	metrics *obs.Metrics

	mu        sync.Mutex
	listeners []func(Top)

	top           atomic.Pointer[Top]
	bid, ask      model.OrderEntry
	lastBroadcast time.Time
	journalErrs   throttle
	logLines      throttle
	buf           []byte
}

// NewPublisher wires a publisher to engine. journal and sender may be nil.
func NewPublisher(cfg PublisherConfig, engine *Engine, journal Recorder, sender Sender, metrics *obs.Metrics) (*Publisher, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Publisher{
		cfg:     cfg,
		engine:  engine,
		journal: journal,
		sender:  sender,
		metrics: metrics,
		buf:     make([]byte, 0, codec.L1SnapshotSize),
	}
	p.journalErrs.every = time.Second
	p.logLines.every = time.Second
	return p, nil
}

// Subscribe registers fn to receive every broadcast. fn runs on the
// publisher goroutine and must not block.
func (p *Publisher) Subscribe(fn func(Top)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Top returns the last broadcast top of book. It is safe from any goroutine.
func (p *Publisher) Top() (Top, bool) {
	top := p.top.Load()
	if top == nil {
		return Top{}, false
	}
	return *top, true
}

// Run drains every DrainInterval until ctx is done, then drains once more
// and flushes the journal.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Drain(time.Now())
			return p.flush()
		case now := <-ticker.C:
			p.Drain(now)
		}
	}
}

// Drain pops every completed call, journals it and broadcasts when anything
// completed or the heartbeat is due. It returns the number of calls popped.
func (p *Publisher) Drain(now time.Time) int {
	if p.lastBroadcast.IsZero() {
		p.lastBroadcast = now
	}

	completed := 0
	ring := p.engine.Completed()
	for {
		order, ok := ring.Pop()
		if !ok {
			break
		}
		completed++
		p.record(order)
		p.bid = order.Result.BestBid
		p.ask = order.Result.BestAsk
	}

	if completed > 0 {
		if err := p.flush(); err != nil {
			p.journalError(now, err)
		}
	}

	heartbeat := now.Sub(p.lastBroadcast) >= p.cfg.Heartbeat
	if completed > 0 || heartbeat {
		p.broadcast(now, completed, heartbeat && completed == 0)
		p.metrics.ObservePublish(time.Since(now))
	}
	return completed
}

func (p *Publisher) record(order model.CompletedOrder) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Append(order.Call, order.Entry); err != nil {
		p.journalError(time.Now(), err)
		return
	}
	p.metrics.AddJournalRecords(1)
}

func (p *Publisher) journalError(now time.Time, err error) {
	p.metrics.IncJournalError()
	if p.journalErrs.allow(now) {
		logs.Errorf("publisher: journal write, err: %+v", err)
	}
}

func (p *Publisher) flush() error {
	if p.journal == nil {
		return nil
	}
	return p.journal.Flush()
}

func (p *Publisher) broadcast(now time.Time, completed int, heartbeat bool) {
	p.lastBroadcast = now

	top := &Top{Bid: p.bid, Ask: p.ask, Stats: p.engine.Stats(), Time: now}
	p.top.Store(top)

	if p.sender != nil {
		p.buf = codec.EncodeL1Snapshot(p.buf[:0], top.Bid, top.Ask)
		err := p.sender.Send(p.buf)
		p.metrics.IncBroadcast(err == nil)
		if err != nil {
			logs.Errorf("publisher: send snapshot, err: %+v", err)
		}
	}

	p.mu.Lock()
	listeners := p.listeners
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(*top)
	}

	if heartbeat || p.logLines.allow(now) {
		logs.Info(p.describe(top, completed))
	}
}

func (p *Publisher) describe(top *Top, completed int) string {
	scale := p.cfg.PriceScale
	buf := make([]byte, 0, 192)
	buf = append(buf, "best bid "...)
	buf = top.Bid.Price.AppendString(scale, buf)
	buf = append(buf, " | best ask "...)
	buf = top.Ask.Price.AppendString(scale, buf)
	buf = append(buf, " | mid "...)
	buf = top.Mid().AppendString(scale, buf)
	buf = append(buf, " | spread "...)
	buf = top.Spread().AppendString(scale, buf)
	buf = append(buf, " | completed "...)
	buf = strconv.AppendInt(buf, int64(completed), 10)
	buf = append(buf, " | orders "...)
	buf = strconv.AppendUint(buf, top.Stats.OrderCount, 10)
	buf = append(buf, " | trades "...)
	buf = strconv.AppendUint(buf, top.Stats.TradeCount, 10)
	buf = append(buf, " | volume "...)
	buf = strconv.AppendUint(buf, top.Stats.Volume, 10)
	if ratio, ok := top.Stats.OrderToTradeRatio(); ok {
		buf = append(buf, " | order/trade "...)
		buf = strconv.AppendFloat(buf, ratio, 'f', 2, 64)
	}
	if vpt, ok := top.Stats.VolumePerTrade(); ok {
		buf = append(buf, " | volume/trade "...)
		buf = strconv.AppendFloat(buf, vpt, 'f', 2, 64)
	}
	return string(buf)
}

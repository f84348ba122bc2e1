package obs

import (
	"sync/atomic"
	"time"

	"market/internal/model/enum"
)

const maxCall = int(enum.CallCancelOrderAsk)

// Metrics collects lightweight counters and latency stats. Every method is
// safe on a nil receiver and from any goroutine.
type Metrics struct {
	callCounts [maxCall + 1]uint64

	framesReceived uint64
	framesDropped  uint64
	unknownCalls   uint64
	malformedCalls uint64
	completedDrops uint64
	journalRecords uint64
	journalErrors  uint64
	broadcasts     uint64
	broadcastFails uint64
	feedDrops      uint64
	connections    int64

	dispatchLatency LatencyStats
	publishLatency  LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64        `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	CallCounts      map[string]uint64 `json:"calls"`
	FramesReceived  uint64            `json:"framesReceived"`
	FramesDropped   uint64            `json:"framesDropped"`
	UnknownCalls    uint64            `json:"unknownCalls"`
	MalformedCalls  uint64            `json:"malformedCalls"`
	CompletedDrops  uint64            `json:"completedDrops"`
	JournalRecords  uint64            `json:"journalRecords"`
	JournalErrors   uint64            `json:"journalErrors"`
	Broadcasts      uint64            `json:"broadcasts"`
	BroadcastFails  uint64            `json:"broadcastFails"`
	FeedDrops       uint64            `json:"feedDrops"`
	Connections     int64             `json:"connections"`
	DispatchLatency LatencySnapshot   `json:"dispatchLatency"`
	PublishLatency  LatencySnapshot   `json:"publishLatency"`
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncCall counts a dispatched call.
func (m *Metrics) IncCall(call enum.Call) {
	if m == nil {
		return
	}
	idx := int(call)
	if idx >= 0 && idx < len(m.callCounts) {
		atomic.AddUint64(&m.callCounts[idx], 1)
	}
}

// IncFrameReceived counts a frame accepted by a transport.
func (m *Metrics) IncFrameReceived() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.framesReceived, 1)
}

// IncFrameDropped counts a frame lost because the inbound ring was full.
// It returns the new total.
func (m *Metrics) IncFrameDropped() uint64 {
	if m == nil {
		return 0
	}
	return atomic.AddUint64(&m.framesDropped, 1)
}

// IncUnknownCall counts a call whose id has no handler.
func (m *Metrics) IncUnknownCall() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.unknownCalls, 1)
}

// IncMalformedCall counts a call too short for its handler.
func (m *Metrics) IncMalformedCall() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.malformedCalls, 1)
}

// IncCompletedDrop counts a result lost because the completed ring was
// full. It returns the new total.
func (m *Metrics) IncCompletedDrop() uint64 {
	if m == nil {
		return 0
	}
	return atomic.AddUint64(&m.completedDrops, 1)
}

// AddJournalRecords counts records appended to the journal.
func (m *Metrics) AddJournalRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.journalRecords, uint64(n))
}

// IncJournalError counts a failed journal write.
func (m *Metrics) IncJournalError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalErrors, 1)
}

// IncBroadcast counts a top-of-book broadcast.
func (m *Metrics) IncBroadcast(ok bool) {
	if m == nil {
		return
	}
	if ok {
		atomic.AddUint64(&m.broadcasts, 1)
		return
	}
	atomic.AddUint64(&m.broadcastFails, 1)
}

// IncFeedDrop counts a websocket update discarded for a slow subscriber.
func (m *Metrics) IncFeedDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.feedDrops, 1)
}

// AddConnections adjusts the open connection gauge.
func (m *Metrics) AddConnections(delta int64) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.connections, delta)
}

// ObserveDispatch measures one rpc dispatch into the book.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchLatency.Observe(d)
}

// ObservePublish measures one publisher drain cycle.
func (m *Metrics) ObservePublish(d time.Duration) {
	if m == nil {
		return
	}
	m.publishLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	calls := make(map[string]uint64)
	for i := range m.callCounts {
		if v := atomic.LoadUint64(&m.callCounts[i]); v > 0 {
			calls[enum.Call(i).String()] = v
		}
	}
	return Snapshot{
		CallCounts:      calls,
		FramesReceived:  atomic.LoadUint64(&m.framesReceived),
		FramesDropped:   atomic.LoadUint64(&m.framesDropped),
		UnknownCalls:    atomic.LoadUint64(&m.unknownCalls),
		MalformedCalls:  atomic.LoadUint64(&m.malformedCalls),
		CompletedDrops:  atomic.LoadUint64(&m.completedDrops),
		JournalRecords:  atomic.LoadUint64(&m.journalRecords),
		JournalErrors:   atomic.LoadUint64(&m.journalErrors),
		Broadcasts:      atomic.LoadUint64(&m.broadcasts),
		BroadcastFails:  atomic.LoadUint64(&m.broadcastFails),
		FeedDrops:       atomic.LoadUint64(&m.feedDrops),
		Connections:     atomic.LoadInt64(&m.connections),
		DispatchLatency: m.dispatchLatency.Snapshot(),
		PublishLatency:  m.publishLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}

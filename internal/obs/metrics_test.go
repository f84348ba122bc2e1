package obs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"market/internal/model/enum"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncCall(enum.CallPlaceOrderBid)
	m.IncFrameReceived()
	assert.Zero(t, m.IncFrameDropped())
	m.ObserveDispatch(time.Millisecond)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncCall(enum.CallPlaceOrderBid)
	m.IncCall(enum.CallPlaceOrderBid)
	m.IncCall(enum.CallCancelOrderAsk)
	m.IncCall(enum.Call(42))
	m.IncFrameReceived()
	assert.Equal(t, uint64(1), m.IncFrameDropped())
	assert.Equal(t, uint64(2), m.IncFrameDropped())
	m.IncUnknownCall()
	m.IncMalformedCall()
	m.IncCompletedDrop()
	m.AddJournalRecords(3)
	m.AddJournalRecords(-1)
	m.IncBroadcast(true)
	m.IncBroadcast(false)
	m.AddConnections(2)
	m.AddConnections(-1)

	s := m.Snapshot()
	assert.Equal(t, map[string]uint64{"PlaceOrder_Bid": 2, "CancelOrder_Ask": 1}, s.CallCounts)
	assert.Equal(t, uint64(1), s.FramesReceived)
	assert.Equal(t, uint64(2), s.FramesDropped)
	assert.Equal(t, uint64(1), s.UnknownCalls)
	assert.Equal(t, uint64(1), s.MalformedCalls)
	assert.Equal(t, uint64(1), s.CompletedDrops)
	assert.Equal(t, uint64(3), s.JournalRecords)
	assert.Equal(t, uint64(1), s.Broadcasts)
	assert.Equal(t, uint64(1), s.BroadcastFails)
	assert.Equal(t, int64(1), s.Connections)
}

func TestLatencyStats(t *testing.T) {
	var l LatencyStats
	assert.Equal(t, LatencySnapshot{}, l.Snapshot())

	var wg sync.WaitGroup
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			l.Observe(d)
		}(time.Duration(i) * time.Microsecond)
	}
	wg.Wait()
	l.Observe(-time.Second)

	s := l.Snapshot()
	assert.Equal(t, uint64(4), s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
	assert.Equal(t, 4*time.Microsecond, s.Max)
	assert.Equal(t, 2500*time.Nanosecond, s.Avg)
}

func TestIDGenerator(t *testing.T) {
	g := NewIDGenerator(10)
	assert.Equal(t, uint64(11), g.Next())
	assert.Equal(t, uint64(12), g.Next())

	var nilGen *IDGenerator
	assert.Zero(t, nilGen.Next())
}

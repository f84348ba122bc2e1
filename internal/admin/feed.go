package admin

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"market/internal/bus"
	"market/internal/engine"
	"market/internal/model"
	"market/internal/obs"
)

const (
	feedQueueSize = 64
	readLimit     = 512
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	writeWait     = 10 * time.Second
)

// Update is the websocket message sent on every top-of-book broadcast.
type Update struct {
	Type      string           `json:"type"`
	Symbol    string           `json:"symbol"`
	Bid       model.OrderEntry `json:"bid"`
	Ask       model.OrderEntry `json:"ask"`
	Mid       model.Price      `json:"mid"`
	Spread    model.Price      `json:"spread"`
	Stats     model.BookStats  `json:"stats"`
	Timestamp int64            `json:"timestamp"`
}

// Feed fans top-of-book updates out to websocket subscribers. A slow
// subscriber loses its oldest updates and never slows the publisher.
type Feed struct {
	symbol   string
	metrics  *obs.Metrics
	ids      *obs.IDGenerator
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]*bus.WaitQueue[[]byte]
	closed bool
}

// NewFeed creates an empty feed. allowOrigin decides which browser origins
// may open a stream; nil allows all. Requests without an Origin header are
// not from a browser and are always accepted.
func NewFeed(symbol string, metrics *obs.Metrics, allowOrigin func(*http.Request) bool) *Feed {
	return &Feed{
		symbol:  symbol,
		metrics: metrics,
		ids:     obs.NewIDGenerator(0),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowOrigin == nil || r.Header.Get("Origin") == "" {
					return true
				}
				return allowOrigin(r)
			},
		},
		subs: make(map[uint64]*bus.WaitQueue[[]byte]),
	}
}

// Publish encodes top once and queues it for every subscriber. It matches
// engine.Publisher.Subscribe.
func (f *Feed) Publish(top engine.Top) {
	msg, err := json.Marshal(Update{
		Type:      "l1",
		Symbol:    f.symbol,
		Bid:       top.Bid,
		Ask:       top.Ask,
		Mid:       top.Mid(),
		Spread:    top.Spread(),
		Stats:     top.Stats,
		Timestamp: top.Time.UnixMilli(),
	})
	if err != nil {
		logs.Errorf("admin: marshal update, err: %+v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.subs {
		before := q.Dropped()
		_ = q.Push(msg)
		if q.Dropped() != before {
			f.metrics.IncFeedDrop()
		}
	}
}

// Len returns the number of connected subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, q := range f.subs {
		q.Close()
		delete(f.subs, id)
	}
}

func (f *Feed) subscribe() (uint64, *bus.WaitQueue[[]byte], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, nil, false
	}
	id := f.ids.Next()
	q := bus.NewWaitQueue[[]byte](feedQueueSize, bus.OverflowDropOldest)
	f.subs[id] = q
	return id, q, true
}

func (f *Feed) unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.subs[id]; ok {
		q.Close()
		delete(f.subs, id)
	}
}

// ServeHTTP upgrades the request and streams updates until either side
// goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, queue, ok := f.subscribe()
	if !ok {
		http.Error(w, "feed closed", http.StatusServiceUnavailable)
		return
	}
	defer f.unsubscribe(id)

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Errorf("admin: websocket upgrade, err: %+v", err)
		return
	}
	defer conn.Close()
	logs.Infof("admin: feed subscriber %d connected from %s", id, r.RemoteAddr)

	go f.readPump(id, conn)

	hello, _ := json.Marshal(map[string]any{
		"type":      "connection",
		"symbol":    f.symbol,
		"timestamp": time.Now().UnixMilli(),
	})
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}

	for {
		msg, ok := queue.Pop()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			logs.Infof("admin: feed subscriber %d disconnected", id)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logs.Infof("admin: feed subscriber %d write, err: %+v", id, err)
			return
		}
	}
}

// readPump discards client messages, answers pongs and pings the client.
// It ends the subscription when the connection fails.
func (f *Feed) readPump(id uint64, conn *websocket.Conn) {
	defer f.unsubscribe(id)

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

package engine

import (
	"sync/atomic"
	"time"
)

// throttle lets one event through per interval. It is safe for concurrent use.
type throttle struct {
	every time.Duration
	last  atomic.Int64
}

func (t *throttle) allow(now time.Time) bool {
	ts := now.UnixNano()
	last := t.last.Load()
	if last != 0 && ts-last < int64(t.every) {
		return false
	}
	return t.last.CompareAndSwap(last, ts)
}

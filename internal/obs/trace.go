package obs

import (
	"sync/atomic"
	"time"
)

// IDGenerator hands out monotonically increasing ids for connections and
// feed subscribers so their log lines can be correlated.
type IDGenerator struct {
	next uint64
}

// NewIDGenerator returns a generator seeded with the given value. A zero
// seed uses the current time.
func NewIDGenerator(seed uint64) *IDGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &IDGenerator{next: seed}
}

// Next returns the next id.
func (g *IDGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}

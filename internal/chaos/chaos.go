// Package chaos degrades an order stream the way a poor network link
// would: it drops, duplicates and reorders items and adds latency.
package chaos

import (
	"fmt"
	"math/rand"
	"time"
)

// Config controls chaos injection behavior.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	ReorderWindow int
	// Latency is added to every send, Jitter is a uniform extra in
	// [0, Jitter].
	Latency time.Duration
	Jitter  time.Duration
}

// Enabled reports whether the config changes anything.
func (c Config) Enabled() bool {
	return c.DropRate > 0 || c.DuplicateRate > 0 || c.ReorderWindow > 1 || c.Latency > 0 || c.Jitter > 0
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("dropRate must be between 0 and 1")
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("duplicateRate must be between 0 and 1")
	}
	if c.ReorderWindow <= 0 {
		return fmt.Errorf("reorderWindow must be >= 1")
	}
	if c.Latency < 0 || c.Jitter < 0 {
		return fmt.Errorf("latency and jitter must be >= 0")
	}
	return nil
}

// Engine applies chaos rules to items. It is not safe for concurrent use.
type Engine[T any] struct {
	cfg     Config
	rng     *rand.Rand
	pending []T
}

// NewEngine creates a chaos engine with validation.
func NewEngine[T any](cfg Config) (*Engine[T], error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine[T]{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Process applies chaos to a single item and returns what should be sent
// now, possibly nothing.
func (e *Engine[T]) Process(v T) []T {
	if e == nil {
		return []T{v}
	}
	if e.shouldDrop() {
		return nil
	}
	if e.cfg.ReorderWindow <= 1 {
		return e.applyDuplicate(v)
	}
	e.pending = append(e.pending, v)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	return e.applyDuplicate(e.takeRandom())
}

// Flush returns any buffered items in random order.
func (e *Engine[T]) Flush() []T {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([]T, 0, len(e.pending))
	for len(e.pending) > 0 {
		out = append(out, e.applyDuplicate(e.takeRandom())...)
	}
	return out
}

// Delay returns how long to hold the next send.
func (e *Engine[T]) Delay() time.Duration {
	if e == nil {
		return 0
	}
	d := e.cfg.Latency
	if e.cfg.Jitter > 0 {
		d += time.Duration(e.rng.Int63n(int64(e.cfg.Jitter) + 1))
	}
	return d
}

func (e *Engine[T]) takeRandom() T {
	idx := e.rng.Intn(len(e.pending))
	v := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return v
}

func (e *Engine[T]) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

func (e *Engine[T]) applyDuplicate(v T) []T {
	out := []T{v}
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, v)
	}
	return out
}

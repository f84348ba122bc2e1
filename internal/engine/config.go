package engine

import (
	"fmt"
	"time"

	"market/internal/model"
	"market/internal/model/enum"
)

const (
	defaultSymbol            = "AAPL"
	defaultInboundCapacity   = 1024
	defaultCompletedCapacity = 10000
	defaultPollInterval      = 100 * time.Microsecond
	defaultOpsInterval       = time.Second
	defaultHeartbeat         = 10 * time.Second
	defaultDrainInterval     = 30 * time.Millisecond
	defaultDropLogInterval   = time.Second
)

// Seed is an order placed through the call table before the engine starts.
type Seed struct {
	Call     enum.Call
	Price    model.Price
	Quantity model.Quantity
}

// DefaultSeeds returns the resting orders the exchange opens with.
func DefaultSeeds() []Seed {
	return []Seed{
		{Call: enum.CallPlaceOrderBid, Price: 40, Quantity: 100},
		{Call: enum.CallPlaceOrderAsk, Price: 110, Quantity: 100},
	}
}

// Config controls the matching goroutine.
type Config struct {
	Symbol            string
	InboundCapacity   int
	CompletedCapacity int
	// PollInterval is how long the matching loop sleeps once the inbound
	// ring is empty. Zero yields instead of sleeping.
	PollInterval    time.Duration
	OpsInterval     time.Duration
	DropLogInterval time.Duration
}

// DefaultConfig returns a baseline configuration for the engine.
func DefaultConfig() Config {
	return Config{
		Symbol:            defaultSymbol,
		InboundCapacity:   defaultInboundCapacity,
		CompletedCapacity: defaultCompletedCapacity,
		PollInterval:      defaultPollInterval,
		OpsInterval:       defaultOpsInterval,
		DropLogInterval:   defaultDropLogInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.Symbol == "" {
		c.Symbol = defaultSymbol
	}
	if c.InboundCapacity == 0 {
		c.InboundCapacity = defaultInboundCapacity
	}
	if c.CompletedCapacity == 0 {
		c.CompletedCapacity = defaultCompletedCapacity
	}
	if c.OpsInterval == 0 {
		c.OpsInterval = defaultOpsInterval
	}
	if c.DropLogInterval == 0 {
		c.DropLogInterval = defaultDropLogInterval
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if len(c.Symbol) > len(model.Symbol{}) {
		return fmt.Errorf("invalid engine config: symbol %q longer than %d bytes", c.Symbol, len(model.Symbol{}))
	}
	if c.InboundCapacity <= 0 {
		return fmt.Errorf("invalid engine config: InboundCapacity must be > 0")
	}
	if c.CompletedCapacity <= 0 {
		return fmt.Errorf("invalid engine config: CompletedCapacity must be > 0")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("invalid engine config: PollInterval must be >= 0")
	}
	return nil
}

// PublisherConfig controls the journal and broadcast goroutine.
type PublisherConfig struct {
	// Heartbeat forces a broadcast when nothing completed for this long.
	Heartbeat time.Duration
	// DrainInterval is the pause between two drains of the completed ring.
	DrainInterval time.Duration
	// PriceScale is the number of decimals used when logging prices.
	PriceScale int
}

// DefaultPublisherConfig returns a baseline configuration for the publisher.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Heartbeat:     defaultHeartbeat,
		DrainInterval: defaultDrainInterval,
	}
}

func (c PublisherConfig) withDefaults() PublisherConfig {
	if c.Heartbeat == 0 {
		c.Heartbeat = defaultHeartbeat
	}
	if c.DrainInterval == 0 {
		c.DrainInterval = defaultDrainInterval
	}
	return c
}

// Validate checks if the configuration is usable.
func (c PublisherConfig) Validate() error {
	if c.Heartbeat < 0 || c.DrainInterval < 0 {
		return fmt.Errorf("invalid publisher config: intervals must be >= 0")
	}
	if c.PriceScale < 0 {
		return fmt.Errorf("invalid publisher config: PriceScale must be >= 0")
	}
	return nil
}

package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"market/internal/engine"
	"market/internal/journal"
	"market/internal/model"
	"market/internal/model/enum"
)

const envPrefix = "MARKET_"

// Duration reads "250ms" style strings from JSON and YAML.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration: %s", data)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON writes the duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// SeedConfig is a resting order placed at startup.
type SeedConfig struct {
	Side     string `json:"side" yaml:"side"`
	Price    int64  `json:"price" yaml:"price"`
	Quantity int64  `json:"quantity" yaml:"quantity"`
}

// Config mirrors the config file layout.
type Config struct {
	Symbol            string       `json:"symbol" yaml:"symbol"`
	TCPAddr           string       `json:"tcpAddr" yaml:"tcpAddr"`
	MulticastGroup    string       `json:"multicastGroup" yaml:"multicastGroup"`
	AdminAddr         string       `json:"adminAddr" yaml:"adminAddr"`
	CORSOrigins       []string     `json:"corsOrigins" yaml:"corsOrigins"`
	InboundCapacity   int          `json:"inboundCapacity" yaml:"inboundCapacity"`
	CompletedCapacity int          `json:"completedCapacity" yaml:"completedCapacity"`
	PollInterval      Duration     `json:"pollInterval" yaml:"pollInterval"`
	Heartbeat         Duration     `json:"heartbeat" yaml:"heartbeat"`
	DrainInterval     Duration     `json:"drainInterval" yaml:"drainInterval"`
	JournalDir        string       `json:"journalDir" yaml:"journalDir"`
	JournalPrefix     string       `json:"journalPrefix" yaml:"journalPrefix"`
	JournalBuffer     int          `json:"journalBuffer" yaml:"journalBuffer"`
	PostgresDSN       string       `json:"postgresDsn" yaml:"postgresDsn"`
	StatsInterval     Duration     `json:"statsInterval" yaml:"statsInterval"`
	PriceScale        int          `json:"priceScale" yaml:"priceScale"`
	PyroscopeAddr     string       `json:"pyroscopeAddr" yaml:"pyroscopeAddr"`
	Seeds             []SeedConfig `json:"seeds" yaml:"seeds"`
}

// Default returns the configuration the exchange runs with when no file is
// given.
func Default() Config {
	ec := engine.DefaultConfig()
	pc := engine.DefaultPublisherConfig()
	return Config{
		Symbol:            ec.Symbol,
		TCPAddr:           ":54000",
		MulticastGroup:    "239.255.0.1:54001",
		AdminAddr:         ":8080",
		InboundCapacity:   ec.InboundCapacity,
		CompletedCapacity: ec.CompletedCapacity,
		PollInterval:      Duration(ec.PollInterval),
		Heartbeat:         Duration(pc.Heartbeat),
		DrainInterval:     Duration(pc.DrainInterval),
		JournalDir:        ".",
		JournalPrefix:     "replay",
		JournalBuffer:     64 * 1024,
		StatsInterval:     Duration(time.Minute),
		Seeds: []SeedConfig{
			{Side: "bid", Price: 40, Quantity: 100},
			{Side: "ask", Price: 110, Quantity: 100},
		},
	}
}

// Load reads a JSON or YAML file on top of the defaults. The format follows
// the file extension. An empty path keeps the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads envPath, or ./.env when empty, and applies MARKET_*
// overrides. A missing ./.env is ignored; an explicit envPath must be
// readable. Priority: env > .env file > config file > defaults.
func LoadEnv(cfg Config, envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("load env %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}
	return cfg.ApplyEnv(os.LookupEnv)
}

// ApplyEnv overrides fields from lookup, which is usually os.LookupEnv.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *Duration) error {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		if err := dst.parse(v); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		return nil
	}

	str("SYMBOL", &c.Symbol)
	str("TCP_ADDR", &c.TCPAddr)
	str("MULTICAST_GROUP", &c.MulticastGroup)
	str("ADMIN_ADDR", &c.AdminAddr)
	str("JOURNAL_DIR", &c.JournalDir)
	str("JOURNAL_PREFIX", &c.JournalPrefix)
	str("POSTGRES_DSN", &c.PostgresDSN)
	str("PYROSCOPE_ADDR", &c.PyroscopeAddr)
	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
	for key, dst := range map[string]*int{
		"INBOUND_CAPACITY":   &c.InboundCapacity,
		"COMPLETED_CAPACITY": &c.CompletedCapacity,
		"JOURNAL_BUFFER":     &c.JournalBuffer,
		"PRICE_SCALE":        &c.PriceScale,
	} {
		if err := num(key, dst); err != nil {
			return Config{}, err
		}
	}
	for key, dst := range map[string]*Duration{
		"POLL_INTERVAL":  &c.PollInterval,
		"HEARTBEAT":      &c.Heartbeat,
		"DRAIN_INTERVAL": &c.DrainInterval,
		"STATS_INTERVAL": &c.StatsInterval,
	} {
		if err := dur(key, dst); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}
	if err := c.Publisher().Validate(); err != nil {
		return err
	}
	if err := c.Journal().Validate(); err != nil {
		return err
	}
	if c.TCPAddr == "" {
		return fmt.Errorf("invalid config: tcpAddr is empty")
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("invalid config: statsInterval must be >= 0")
	}
	if _, err := c.SeedOrders(); err != nil {
		return err
	}
	return nil
}

// Engine returns the matching goroutine settings.
func (c Config) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Symbol = c.Symbol
	cfg.InboundCapacity = c.InboundCapacity
	cfg.CompletedCapacity = c.CompletedCapacity
	cfg.PollInterval = time.Duration(c.PollInterval)
	return cfg
}

// Publisher returns the journal and broadcast settings.
func (c Config) Publisher() engine.PublisherConfig {
	return engine.PublisherConfig{
		Heartbeat:     time.Duration(c.Heartbeat),
		DrainInterval: time.Duration(c.DrainInterval),
		PriceScale:    c.PriceScale,
	}
}

// Journal returns the replay journal settings.
func (c Config) Journal() journal.Config {
	return journal.Config{
		Dir:        c.JournalDir,
		FilePrefix: c.JournalPrefix,
		BufferSize: c.JournalBuffer,
	}
}

// SeedOrders resolves the configured seed orders.
func (c Config) SeedOrders() ([]engine.Seed, error) {
	seeds := make([]engine.Seed, 0, len(c.Seeds))
	for i, s := range c.Seeds {
		var call enum.Call
		switch strings.ToLower(s.Side) {
		case "bid", "buy":
			call = enum.CallPlaceOrderBid
		case "ask", "sell":
			call = enum.CallPlaceOrderAsk
		default:
			return nil, fmt.Errorf("invalid config: seeds[%d] side %q", i, s.Side)
		}
		if s.Quantity <= 0 {
			return nil, fmt.Errorf("invalid config: seeds[%d] quantity must be > 0", i)
		}
		seeds = append(seeds, engine.Seed{
			Call:     call,
			Price:    model.Price(s.Price),
			Quantity: model.Quantity(s.Quantity),
		})
	}
	return seeds, nil
}

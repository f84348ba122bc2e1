package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/engine"
	"market/internal/model/enum"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	seeds, err := cfg.SeedOrders()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultSeeds(), seeds)
	assert.Equal(t, 10*time.Second, cfg.Publisher().Heartbeat)
	assert.Equal(t, 1024, cfg.Engine().InboundCapacity)
	assert.Equal(t, 10000, cfg.Engine().CompletedCapacity)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "market.json", `{
		"symbol": "MSFT",
		"tcpAddr": ":7000",
		"heartbeat": "2s",
		"pollInterval": 1000,
		"seeds": [{"side": "sell", "price": 120, "quantity": 3}]
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "MSFT", cfg.Symbol)
	assert.Equal(t, ":7000", cfg.TCPAddr)
	assert.Equal(t, "239.255.0.1:54001", cfg.MulticastGroup)
	assert.Equal(t, Duration(2*time.Second), cfg.Heartbeat)
	assert.Equal(t, Duration(time.Microsecond), cfg.PollInterval)

	seeds, err := cfg.SeedOrders()
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, enum.CallPlaceOrderAsk, seeds[0].Call)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "market.yaml", `
symbol: TSLA
drainInterval: 5ms
journalDir: /tmp/journals
corsOrigins:
  - http://localhost:3000
seeds:
  - side: bid
    price: 10
    quantity: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "TSLA", cfg.Symbol)
	assert.Equal(t, 5*time.Millisecond, cfg.Publisher().DrainInterval)
	assert.Equal(t, "/tmp/journals", cfg.Journal().Dir)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", `{"heartbeat": "soon"}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yml", "heartbeat: [1, 2]"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MARKET_SYMBOL":           "NVDA",
		"MARKET_HEARTBEAT":        "1s",
		"MARKET_INBOUND_CAPACITY": "64",
		"MARKET_CORS_ORIGINS":     "a,b",
		"MARKET_POSTGRES_DSN":     "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg, err := Default().ApplyEnv(lookup)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", cfg.Symbol)
	assert.Equal(t, Duration(time.Second), cfg.Heartbeat)
	assert.Equal(t, 64, cfg.InboundCapacity)
	assert.Equal(t, []string{"a", "b"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.PostgresDSN)

	env["MARKET_PRICE_SCALE"] = "two"
	_, err = Default().ApplyEnv(lookup)
	assert.Error(t, err)
}

func TestLoadEnvReadsDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "MARKET_JOURNAL_PREFIX=session\n")
	t.Cleanup(func() { os.Unsetenv("MARKET_JOURNAL_PREFIX") })

	cfg, err := LoadEnv(Default(), path)
	require.NoError(t, err)
	assert.Equal(t, "session", cfg.JournalPrefix)
}

func TestLoadEnvRequiresExplicitFile(t *testing.T) {
	_, err := LoadEnv(Default(), filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"long symbol":    func(c *Config) { c.Symbol = "GOOGL" },
		"empty tcp":      func(c *Config) { c.TCPAddr = "" },
		"no journal dir": func(c *Config) { c.JournalDir = "" },
		"bad seed side":  func(c *Config) { c.Seeds = []SeedConfig{{Side: "up", Quantity: 1}} },
		"empty seed":     func(c *Config) { c.Seeds = []SeedConfig{{Side: "bid"}} },
		"zero capacity":  func(c *Config) { c.InboundCapacity = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv(configFilePathENV, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.SymbolList())
	assert.Equal(t, 60, cfg.VolumeWindow())
	assert.Equal(t, 200, cfg.FetchLimit())
	assert.Equal(t, StoreSQLite, cfg.Store())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SYMBOLS", " SOL/USDT , ,XRP/USDT ")
	t.Setenv("RISK_PER_TRADE", "0.01")
	t.Setenv("MAX_CONCURRENT_POS", "3")
	t.Setenv("POLL_INTERVAL", "2")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("BREACH_POLICY", "skip")
	t.Setenv("LOOKBACK", "40")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"SOL/USDT", "XRP/USDT"}, cfg.SymbolList())
	assert.Equal(t, 0.01, cfg.RiskPerTrade)
	assert.Equal(t, 3, cfg.MaxConcurrentPos)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.Equal(t, BreachSkip, cfg.BreachPolicy)
	assert.Equal(t, 40, cfg.VolumeWindow())
	assert.Equal(t, 200, cfg.FetchLimit())
}

func TestLoadBadEnvNumber(t *testing.T) {
	isolate(t)
	t.Setenv("ATR_LEN", "fourteen")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ATR_LEN")
}

func TestLoadYAMLThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
symbols: "BTC/USDT"
timeframe: 5m
hhv_len: 30
poll_interval: 10s
dry_run: true
`), 0o600))
	t.Setenv(configFilePathENV, path)
	t.Setenv("HHV_LEN", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5m", cfg.Timeframe)
	assert.Equal(t, 25, cfg.HHVLen)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 14, cfg.ATRLen)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty symbols", func(c *Config) { c.Symbols = " , " }, "SYMBOLS"},
		{"unknown exchange", func(c *Config) { c.Exchange = "bybit" }, "EXCHANGE"},
		{"zero risk", func(c *Config) { c.RiskPerTrade = 0 }, "RISK_PER_TRADE"},
		{"huge risk", func(c *Config) { c.RiskPerTrade = 0.9 }, "RISK_PER_TRADE"},
		{"dd out of range", func(c *Config) { c.DailyMaxDD = 1 }, "DAILY_MAX_DD"},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentPos = 0 }, "MAX_CONCURRENT_POS"},
		{"zero window", func(c *Config) { c.ATRLen = 0 }, "ATR_LEN"},
		{"zero multiplier", func(c *Config) { c.ATRMultTrail = 0 }, "multipliers"},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, "POLL_INTERVAL"},
		{"bad breach policy", func(c *Config) { c.BreachPolicy = "panic" }, "BREACH_POLICY"},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = StorePostgres }, "DATABASE_DSN"},
		{"unknown store", func(c *Config) { c.StoreDriver = "redis" }, "STORE_DRIVER"},
		{"live without keys", func(c *Config) { c.DryRun = false }, "live mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreSelection(t *testing.T) {
	cfg := Default()
	cfg.DatabaseDSN = "postgres://u:p@localhost:5432/bot"
	assert.Equal(t, StorePostgres, cfg.Store())

	cfg.StoreDriver = StoreMemory
	assert.Equal(t, StoreMemory, cfg.Store())
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.APISecret = "s3cr3t"
	cfg.AdminToken = "adm"

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, out, "s3cr3t")
	assert.NotContains(t, out, "adm\n")
	assert.Contains(t, out, "***")
	assert.Equal(t, "s3cr3t", cfg.APISecret, "original must stay untouched")
}

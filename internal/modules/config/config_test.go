package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, "1d", cfg.Interval)
	assert.Equal(t, 20, cfg.Window)
	assert.Equal(t, 1.0, cfg.RiskFraction)
	assert.Equal(t, "dry", cfg.Executor.Mode)
	assert.Equal(t, int64(5000), cfg.Binance.RecvWindow)

	sc := cfg.StrategyConfig()
	assert.Equal(t, 24*time.Hour, sc.Period)
	assert.Equal(t, 4, sc.MaxUnits)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	p := writeFile(t, `
symbol: ethusdt
interval: 4H
risk_fraction: 0.01
balances:
  usdt: 500
`)
	t.Setenv("TURTLE_BALANCES_BTC", "0.25")
	t.Setenv("TURTLE_HEALTH_ADDR", ":9999")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, "4h", cfg.Interval)
	assert.Equal(t, 0.01, cfg.RiskFraction)
	assert.Equal(t, 500.0, cfg.Balances.USDT)
	assert.Equal(t, 0.25, cfg.Balances.BTC)
	assert.Equal(t, ":9999", cfg.Health.Addr)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad interval", "interval: 2d"},
		{"recv window too big", "binance:\n  recv_window: 60000"},
		{"unknown mode", "executor:\n  mode: yolo"},
		{"live without keys", "executor:\n  mode: live"},
		{"account balances without keys", "balances:\n  source: account"},
		{"unknown journal", "journal:\n  driver: mongo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestValidateLiveWithKeys(t *testing.T) {
	t.Setenv("TURTLE_BINANCE_API_KEY", "k")
	t.Setenv("TURTLE_BINANCE_API_SECRET", "s")
	cfg, err := Load(writeFile(t, "executor:\n  mode: live"))
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.Binance.APIKey)
}

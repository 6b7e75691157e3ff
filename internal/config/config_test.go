package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/breakout-screener/internal/backtest"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScan(t *testing.T) {
	path := writeTempConfig(t, `
symbols: [AAPL, MSFT, GOOG]
benchmark: SPY
start_date: "2023-01-01"
end_date: "2024-12-31"
workers: 8
strategy:
  initial_capital: 100000
  per_trade_amount: 2500
  exit_strategy: per_lot
  target_profit_percent: 5
  max_pyramid_levels: 2
  target_policy: tiered
`)

	cfg, err := LoadScan(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Symbols)
	assert.Equal(t, "SPY", cfg.Benchmark)
	assert.Equal(t, "2023-01-01", cfg.StartDate)
	assert.Equal(t, 8, cfg.Workers)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 100000.0, params.InitialCapital)
	assert.Equal(t, 2500.0, params.PerTradeAmount)
	assert.Equal(t, backtest.ExitPerLot, params.ExitStrategy)
	assert.Equal(t, 5.0, params.TargetProfitPercent)
	assert.Equal(t, 2, params.MaxPyramidLevels)
	assert.Equal(t, backtest.TargetTiered, params.TargetPolicy)
}

func TestLoadScan_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, `
symbols: [AAPL]
strategy:
  initial_capital: 50000
`)

	cfg, err := LoadScan(path)
	require.NoError(t, err)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, params.PerTradeAmount) // capital / 50
	assert.Equal(t, backtest.ExitWeightedAverage, params.ExitStrategy)
	assert.Equal(t, backtest.DefaultTargetProfitPercent, params.TargetProfitPercent)
	assert.Equal(t, backtest.DefaultMaxPyramidLevels, params.MaxPyramidLevels)
	assert.Equal(t, backtest.TargetFlat, params.TargetPolicy)
}

func TestLoadScan_LifoAlias(t *testing.T) {
	path := writeTempConfig(t, `
symbols: [AAPL]
strategy:
  initial_capital: 50000
  exit_strategy: lifo
`)

	cfg, err := LoadScan(path)
	require.NoError(t, err)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, backtest.ExitPerLot, params.ExitStrategy)
}

func TestLoadScan_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty symbols", "symbols: []\nstrategy:\n  initial_capital: 100000\n"},
		{"missing capital", "symbols: [AAPL]\n"},
		{"unknown exit strategy", "symbols: [AAPL]\nstrategy:\n  initial_capital: 100000\n  exit_strategy: fifo\n"},
		{"unknown target policy", "symbols: [AAPL]\nstrategy:\n  initial_capital: 100000\n  target_policy: stepped\n"},
		{"not yaml", "symbols: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, tt.content)
			_, err := LoadScan(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadScan_MissingFile(t *testing.T) {
	_, err := LoadScan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv_Defaults(t *testing.T) {
	// Make sure ambient environment variables do not leak into the test.
	for _, key := range []string{"LOG_LEVEL", "DATA_DIR", "SQLITE_PATH", "ALPACA_API_KEY", "ALPACA_API_SECRET", "PROMETHEUS_PORT", "HEALTH_PORT"} {
		t.Setenv(key, "")
	}

	env := LoadEnv("")
	assert.Equal(t, "info", env.LogLevel)
	assert.Equal(t, "data", env.DataDir)
	assert.Equal(t, "data/screener.db", env.SQLitePath)
	assert.Empty(t, env.Alpaca.APIKey)
	assert.Equal(t, 9090, env.Monitoring.PrometheusPort)
	assert.Equal(t, 9091, env.Monitoring.HealthPort)
}

func TestLoadEnv_ReadsEnvFile(t *testing.T) {
	// godotenv does not override variables that are already set, so these
	// must be truly unset. t.Setenv registers the restore before Unsetenv
	// removes the variable for the test's duration.
	for _, key := range []string{"LOG_LEVEL", "SQLITE_PATH", "PROMETHEUS_PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\nSQLITE_PATH=/tmp/test.db\nPROMETHEUS_PORT=9999\n"), 0o644))

	env := LoadEnv(envFile)
	assert.Equal(t, "debug", env.LogLevel)
	assert.Equal(t, "/tmp/test.db", env.SQLitePath)
	assert.Equal(t, 9999, env.Monitoring.PrometheusPort)
}

func TestLoadEnv_EnvironmentWins(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\n"), 0o644))

	env := LoadEnv(envFile)
	assert.Equal(t, "warn", env.LogLevel)
}

// Command fetch pulls daily US-equity bars from the Alpaca market-data API
// into the local bar store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tradelab/breakout-screener/internal/config"
	"github.com/tradelab/breakout-screener/internal/fetch"
	"github.com/tradelab/breakout-screener/internal/store"
	"github.com/tradelab/breakout-screener/internal/util"
)

func main() {
	var (
		envFile   = flag.String("env", "", "Path to .env file")
		symbolsIn = flag.String("symbols", "", "Comma-separated symbols to fetch")
		startStr  = flag.String("start", "", "Start date YYYY-MM-DD (default 5 years ago)")
		endStr    = flag.String("end", "", "End date YYYY-MM-DD (default today)")
		backend   = flag.String("store", "sqlite", "Storage backend: sqlite or parquet")
		dbPath    = flag.String("db", "", "SQLite database path (default from env)")
		dataDir   = flag.String("data-dir", "", "Parquet data directory (default from env)")
		batchSize = flag.Int("batch", 200, "Symbols per API request")
	)
	flag.Parse()

	env := config.LoadEnv(*envFile)
	logger := util.NewLogger(env.LogLevel)
	slog.SetDefault(logger)

	if err := run(*symbolsIn, *startStr, *endStr, *backend, *dbPath, *dataDir, *batchSize, env, logger); err != nil {
		logger.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func run(symbolsIn, startStr, endStr, backend, dbPath, dataDir string, batchSize int, env *config.Env, logger *slog.Logger) error {
	if symbolsIn == "" {
		return fmt.Errorf("-symbols is required")
	}
	if env.Alpaca.APIKey == "" || env.Alpaca.APISecret == "" {
		return fmt.Errorf("ALPACA_API_KEY and ALPACA_API_SECRET must be set")
	}

	symbols := strings.Split(strings.ToUpper(symbolsIn), ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	start := time.Now().AddDate(-5, 0, 0)
	if startStr != "" {
		var err error
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return fmt.Errorf("parsing -start: %w", err)
		}
	}
	end := time.Now()
	if endStr != "" {
		var err error
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return fmt.Errorf("parsing -end: %w", err)
		}
	}

	var barStore store.BarStore
	switch backend {
	case "sqlite":
		if dbPath == "" {
			dbPath = env.SQLitePath
		}
		db, err := store.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		barStore = db
	case "parquet":
		if dataDir == "" {
			dataDir = env.DataDir
		}
		barStore = store.NewParquetStore(dataDir)
	default:
		return fmt.Errorf("unknown store backend %q", backend)
	}

	logger.Info("fetching daily bars",
		"symbols", len(symbols),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"store", backend)

	fetcher := fetch.NewAlpacaFetcher(env.Alpaca.APIKey, env.Alpaca.APISecret, barStore, batchSize)
	return fetcher.FetchDaily(context.Background(), symbols, start, end)
}

// Command screener classifies every symbol in the universe against the
// pullback-breakout setup and prints a ranking by distance to trigger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tradelab/breakout-screener/internal/analyzer"
	"github.com/tradelab/breakout-screener/internal/config"
	"github.com/tradelab/breakout-screener/internal/scanner"
	"github.com/tradelab/breakout-screener/internal/store"
	"github.com/tradelab/breakout-screener/internal/util"
	"github.com/tradelab/breakout-screener/pkg/reporting"
	"github.com/tradelab/breakout-screener/pkg/types"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to YAML scan configuration")
		envFile    = flag.String("env", "", "Path to .env file")
		dbPath     = flag.String("db", "", "SQLite database with cached bars (default from env)")
		regime     = flag.String("regime", "", "Only show symbols in this regime (neutral, tracking, buy_triggered)")
		jsonOut    = flag.String("json", "", "Also write results to this JSON file")
	)
	flag.Parse()

	env := config.LoadEnv(*envFile)
	logger := util.NewLogger(env.LogLevel)
	slog.SetDefault(logger)

	if err := run(*configFile, *dbPath, *regime, *jsonOut, env, logger); err != nil {
		logger.Error("screener failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile, dbPath, regimeFilter, jsonOut string, env *config.Env, logger *slog.Logger) error {
	ctx := context.Background()

	var symbols []string
	if configFile != "" {
		cfg, err := config.LoadScan(configFile)
		if err != nil {
			return err
		}
		symbols = cfg.Symbols
	}

	if dbPath == "" {
		dbPath = env.SQLitePath
	}
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(symbols) == 0 {
		symbols, err = db.Symbols(ctx)
		if err != nil {
			return err
		}
	}
	logger.Info("screening universe", "symbols", len(symbols))

	earliest := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	var (
		analyses []*types.Analysis
		skipped  int
		progress = scanner.NewProgress(len(symbols))
	)
	for _, symbol := range symbols {
		bars, err := db.LoadBars(ctx, symbol, earliest, now)
		if err != nil {
			return err
		}
		analysis, err := analyzer.Analyze(symbol, store.FillGaps(bars))
		progress.Increment()
		if completed, total, percent, elapsed := progress.Snapshot(); completed%500 == 0 {
			logger.Info("screening progress", "completed", completed, "total", total, "percent", fmt.Sprintf("%.1f", percent), "elapsed", elapsed.Round(time.Second))
		}
		if err != nil {
			skipped++
			continue
		}
		if regimeFilter != "" && analysis.Regime.String() != normalizeRegime(regimeFilter) {
			continue
		}
		analyses = append(analyses, analysis)
	}
	if skipped > 0 {
		logger.Info("skipped symbols with short history", "count", skipped)
	}

	ranked := scanner.RankByDistance(toResults(analyses))
	reporting.NewConsoleReporter().PrintAnalyses(ranked)

	if jsonOut != "" {
		return reporting.WriteJSON(ranked, jsonOut)
	}
	return nil
}

func toResults(analyses []*types.Analysis) []scanner.SymbolResult {
	results := make([]scanner.SymbolResult, len(analyses))
	for i, a := range analyses {
		results[i] = scanner.SymbolResult{Symbol: a.Symbol, Analysis: a}
	}
	return results
}

func normalizeRegime(s string) string {
	switch s {
	case "neutral":
		return "NEUTRAL"
	case "tracking":
		return "TRACKING"
	case "buy_triggered", "buy":
		return "BUY_TRIGGERED"
	default:
		return s
	}
}

// Command backtest replays the pullback-breakout strategy over historical
// daily bars for one or many symbols and reports trades, ledgers, and
// summary statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tradelab/breakout-screener/internal/backtest"
	"github.com/tradelab/breakout-screener/internal/config"
	"github.com/tradelab/breakout-screener/internal/monitoring"
	"github.com/tradelab/breakout-screener/internal/scanner"
	"github.com/tradelab/breakout-screener/internal/store"
	"github.com/tradelab/breakout-screener/internal/util"
	"github.com/tradelab/breakout-screener/pkg/reporting"
	"github.com/tradelab/breakout-screener/pkg/types"
)

// runConfig is the merged result of the YAML config and flag overrides.
type runConfig struct {
	params    backtest.Params
	symbols   []string
	benchmark string
	workers   int
	start     time.Time
	end       time.Time
}

func main() {
	flags := NewFlags()
	flag.Parse()

	env := config.LoadEnv(*flags.EnvFile)
	logger := util.NewLogger(env.LogLevel)
	slog.SetDefault(logger)

	if err := run(flags, env, logger); err != nil {
		logger.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func run(flags *Flags, env *config.Env, logger *slog.Logger) error {
	ctx := context.Background()

	rc, err := resolveConfig(flags)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(rc.params)
	if err != nil {
		return err
	}

	health := monitoring.NewHealthChecker()
	if *flags.MetricsPort > 0 {
		go func() {
			if err := monitoring.Serve(*flags.MetricsPort); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		go func() {
			if err := monitoring.ServeHealth(env.Monitoring.HealthPort, health); err != nil {
				logger.Error("health server stopped", "error", err)
			}
		}()
	}

	jobs, benchmarkBars, err := loadBars(ctx, flags, env, rc)
	if err != nil {
		return err
	}

	logger.Info("starting backtest",
		"symbols", len(jobs),
		"exit_strategy", string(engine.Params().ExitStrategy),
		"target_percent", engine.Params().TargetProfitPercent,
		"max_pyramid", engine.Params().MaxPyramidLevels)

	start := time.Now()
	results := scanner.New(engine, rc.workers).Run(ctx, jobs)
	health.MarkScan()
	logger.Info("backtest finished", "elapsed", time.Since(start).Round(time.Millisecond))

	console := reporting.NewConsoleReporter()
	excel := reporting.NewExcelReporter()
	for _, r := range results {
		trades := 0
		if r.Backtest != nil {
			trades = r.Backtest.TotalTrades
		}
		monitoring.RecordBacktest(r.Skipped, trades, r.Duration.Seconds())

		if r.Skipped {
			logger.Warn("skipped symbol", "symbol", r.Symbol, "reason", "insufficient history")
			continue
		}
		console.PrintBacktest(r.Backtest)

		if !*flags.ConsoleOnly {
			base := filepath.Join(*flags.OutputDir, r.Symbol)
			if err := excel.Write(r.Backtest, base+".xlsx"); err != nil {
				return fmt.Errorf("writing excel for %s: %w", r.Symbol, err)
			}
			if err := reporting.WriteTradesCSV(r.Backtest, base+"_trades.csv"); err != nil {
				return fmt.Errorf("writing trades csv for %s: %w", r.Symbol, err)
			}
			if err := reporting.WriteLedgerCSV(r.Backtest, base+"_ledger.csv"); err != nil {
				return fmt.Errorf("writing ledger csv for %s: %w", r.Symbol, err)
			}
			if err := reporting.WriteJSON(r.Backtest, base+".json"); err != nil {
				return fmt.Errorf("writing json for %s: %w", r.Symbol, err)
			}
		}
	}

	summary := scanner.Aggregate(results, rc.benchmark, benchmarkBars)
	console.PrintSummary(summary)
	if !*flags.ConsoleOnly {
		if err := reporting.WriteJSON(summary, filepath.Join(*flags.OutputDir, "summary.json")); err != nil {
			return err
		}
	}
	return nil
}

// resolveConfig merges the YAML config with command line overrides.
func resolveConfig(flags *Flags) (runConfig, error) {
	rc := runConfig{
		start: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		end:   time.Now(),
	}

	if *flags.ConfigFile != "" {
		cfg, err := config.LoadScan(*flags.ConfigFile)
		if err != nil {
			return runConfig{}, err
		}
		rc.params, err = cfg.Params()
		if err != nil {
			return runConfig{}, err
		}
		rc.symbols = cfg.Symbols
		if *flags.Symbol != "" {
			rc.symbols = []string{*flags.Symbol}
		}
		rc.benchmark = cfg.Benchmark
		rc.workers = cfg.Workers
		if cfg.StartDate != "" {
			if rc.start, err = time.Parse("2006-01-02", cfg.StartDate); err != nil {
				return runConfig{}, fmt.Errorf("bad start_date %q: %w", cfg.StartDate, err)
			}
		}
		if cfg.EndDate != "" {
			if rc.end, err = time.Parse("2006-01-02", cfg.EndDate); err != nil {
				return runConfig{}, fmt.Errorf("bad end_date %q: %w", cfg.EndDate, err)
			}
		}
		return rc, nil
	}

	if *flags.Symbol == "" {
		return runConfig{}, fmt.Errorf("either -config or -symbol is required")
	}
	exit, err := backtest.ParseExitStrategy(*flags.ExitStrategy)
	if err != nil {
		return runConfig{}, err
	}
	rc.params = backtest.Params{
		InitialCapital:      *flags.Balance,
		PerTradeAmount:      *flags.TradeAmount,
		ExitStrategy:        exit,
		TargetProfitPercent: *flags.TargetPct,
		MaxPyramidLevels:    *flags.MaxPyramid,
		TargetPolicy:        backtest.TargetPolicy(*flags.TargetPolicy),
	}
	rc.symbols = []string{*flags.Symbol}
	rc.benchmark = *flags.Benchmark
	rc.workers = *flags.Workers
	return rc, nil
}

// loadBars builds scan jobs from either a CSV file or the SQLite bar cache.
func loadBars(ctx context.Context, flags *Flags, env *config.Env, rc runConfig) ([]scanner.Job, []types.DailyBar, error) {
	if *flags.DataFile != "" {
		if len(rc.symbols) != 1 {
			return nil, nil, fmt.Errorf("-data requires a single -symbol")
		}
		bars, err := store.LoadCSVBars(rc.symbols[0], *flags.DataFile, store.DefaultCSVColumns)
		if err != nil {
			return nil, nil, err
		}
		return []scanner.Job{{Symbol: rc.symbols[0], Bars: store.FillGaps(bars)}}, nil, nil
	}

	dbPath := *flags.DBPath
	if dbPath == "" {
		dbPath = env.SQLitePath
	}
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	jobs := make([]scanner.Job, 0, len(rc.symbols))
	for _, symbol := range rc.symbols {
		bars, err := db.LoadBars(ctx, symbol, rc.start, rc.end)
		if err != nil {
			return nil, nil, fmt.Errorf("loading bars for %s: %w", symbol, err)
		}
		jobs = append(jobs, scanner.Job{Symbol: symbol, Bars: store.FillGaps(bars)})
	}

	var benchmarkBars []types.DailyBar
	if rc.benchmark != "" {
		benchmarkBars, err = db.LoadBars(ctx, rc.benchmark, rc.start, rc.end)
		if err != nil {
			return nil, nil, fmt.Errorf("loading benchmark bars for %s: %w", rc.benchmark, err)
		}
		benchmarkBars = store.FillGaps(benchmarkBars)
	}
	return jobs, benchmarkBars, nil
}

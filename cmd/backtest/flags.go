package main

import "flag"

// Flags holds the command line options for the backtest command.
type Flags struct {
	ConfigFile *string
	EnvFile    *string

	Symbol   *string
	DataFile *string
	DBPath   *string

	Balance      *float64
	TradeAmount  *float64
	ExitStrategy *string
	TargetPct    *float64
	MaxPyramid   *int
	TargetPolicy *string

	Benchmark *string
	Workers   *int

	OutputDir   *string
	ConsoleOnly *bool
	MetricsPort *int
}

// NewFlags registers all backtest flags.
func NewFlags() *Flags {
	return &Flags{
		ConfigFile: flag.String("config", "", "Path to YAML scan configuration"),
		EnvFile:    flag.String("env", "", "Path to .env file"),

		Symbol:   flag.String("symbol", "", "Single symbol to backtest (overrides config symbols)"),
		DataFile: flag.String("data", "", "CSV file with daily bars for -symbol"),
		DBPath:   flag.String("db", "", "SQLite database with cached bars (default from env)"),

		Balance:      flag.Float64("balance", 100000, "Initial capital"),
		TradeAmount:  flag.Float64("amount", 0, "Per-trade amount (0 = capital/50)"),
		ExitStrategy: flag.String("exit", "weighted_average", "Exit strategy: weighted_average or per_lot (alias: lifo)"),
		TargetPct:    flag.Float64("tp", 0, "Target profit percent (0 = 6)"),
		MaxPyramid:   flag.Int("pyramid", 0, "Max pyramid levels (0 = 3)"),
		TargetPolicy: flag.String("policy", "flat", "Target policy: flat or tiered"),

		Benchmark: flag.String("benchmark", "", "Benchmark symbol for buy-and-hold comparison"),
		Workers:   flag.Int("workers", 0, "Concurrent symbols (0 = NumCPU)"),

		OutputDir:   flag.String("out", "results", "Directory for Excel/CSV/JSON reports"),
		ConsoleOnly: flag.Bool("console-only", false, "Skip file reports"),
		MetricsPort: flag.Int("metrics-port", 0, "Serve Prometheus metrics on this port (0 = off)"),
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tradelab/breakout-screener/internal/backtest"
)

// ScanConfig is the YAML configuration for a screening/backtest run.
type ScanConfig struct {
	Symbols   []string `yaml:"symbols"`
	Benchmark string   `yaml:"benchmark"`
	StartDate string   `yaml:"start_date"` // YYYY-MM-DD, empty = full history
	EndDate   string   `yaml:"end_date"`
	Workers   int      `yaml:"workers"` // 0 = NumCPU

	Strategy StrategyConfig `yaml:"strategy"`
}

// StrategyConfig mirrors backtest.Params in YAML form.
type StrategyConfig struct {
	InitialCapital      float64 `yaml:"initial_capital"`
	PerTradeAmount      float64 `yaml:"per_trade_amount"`       // 0 = capital/50
	ExitStrategy        string  `yaml:"exit_strategy"`          // weighted_average | per_lot (alias: lifo)
	TargetProfitPercent float64 `yaml:"target_profit_percent"`  // 0 = 6
	MaxPyramidLevels    int     `yaml:"max_pyramid_levels"`     // 0 = 3
	TargetPolicy        string  `yaml:"target_policy"`          // flat | tiered
}

// LoadScan reads and validates the YAML scan configuration at path.
func LoadScan(path string) (*ScanConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scan config: %w", err)
	}
	var cfg ScanConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing scan config %s: %w", path, err)
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("scan config %s: symbols list is empty", path)
	}
	if _, err := cfg.Params(); err != nil {
		return nil, fmt.Errorf("scan config %s: %w", path, err)
	}
	return &cfg, nil
}

// Params converts the strategy section into normalized, validated engine
// parameters.
func (c *ScanConfig) Params() (backtest.Params, error) {
	p := backtest.Params{
		InitialCapital:      c.Strategy.InitialCapital,
		PerTradeAmount:      c.Strategy.PerTradeAmount,
		TargetProfitPercent: c.Strategy.TargetProfitPercent,
		MaxPyramidLevels:    c.Strategy.MaxPyramidLevels,
	}
	if c.Strategy.ExitStrategy != "" {
		exit, err := backtest.ParseExitStrategy(c.Strategy.ExitStrategy)
		if err != nil {
			return backtest.Params{}, err
		}
		p.ExitStrategy = exit
	}
	if c.Strategy.TargetPolicy != "" {
		p.TargetPolicy = backtest.TargetPolicy(c.Strategy.TargetPolicy)
	}
	p = p.Normalize()
	return p, p.Validate()
}

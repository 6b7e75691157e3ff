package backtest

import (
	"errors"
	"fmt"
	"strings"
)

// ExitStrategy selects how open lots are closed.
type ExitStrategy string

const (
	// ExitWeightedAverage closes every open lot together once the day's
	// high reaches the quantity-weighted average entry price marked up by
	// the first lot's target percent.
	ExitWeightedAverage ExitStrategy = "weighted_average"

	// ExitPerLot closes each lot independently against its own target
	// price. Historically labelled "lifo", but lots are evaluated in entry
	// order and any lot whose target is touched closes that day.
	ExitPerLot ExitStrategy = "per_lot"
)

// ParseExitStrategy maps a config string to an ExitStrategy. "lifo" is
// accepted as a legacy alias for per-lot exits.
func ParseExitStrategy(s string) (ExitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weighted_average", "weighted-average", "wavg":
		return ExitWeightedAverage, nil
	case "per_lot", "per-lot", "lifo":
		return ExitPerLot, nil
	default:
		return "", fmt.Errorf("unknown exit strategy %q", s)
	}
}

// TargetPolicy selects how each entry's target percent is assigned.
type TargetPolicy string

const (
	// TargetFlat applies the configured target percent to every entry.
	TargetFlat TargetPolicy = "flat"

	// TargetTiered applies the legacy 10/8/6 ladder by sequence number.
	TargetTiered TargetPolicy = "tiered"
)

var tieredTargets = []float64{10, 8, 6}

// targetPercentFor resolves the target percent for the given entry sequence
// number (1-based).
func (p TargetPolicy) targetPercentFor(sequence int, flatPercent float64) float64 {
	if p != TargetTiered {
		return flatPercent
	}
	if sequence >= len(tieredTargets) {
		return tieredTargets[len(tieredTargets)-1]
	}
	return tieredTargets[sequence-1]
}

// Defaults applied by Params.Normalize.
const (
	DefaultTargetProfitPercent = 6.0
	DefaultMaxPyramidLevels    = 3
	DefaultPerTradeDivisor     = 50
)

// ErrInvalidParams reports a configuration the simulator refuses to run
// with. Degenerate sizing is rejected up front rather than letting the
// arithmetic produce NaN quantities.
var ErrInvalidParams = errors.New("invalid backtest parameters")

// Params configures one simulator run.
type Params struct {
	InitialCapital      float64
	PerTradeAmount      float64 // 0 means InitialCapital / DefaultPerTradeDivisor
	ExitStrategy        ExitStrategy
	TargetProfitPercent float64 // 0 means DefaultTargetProfitPercent
	MaxPyramidLevels    int     // 0 means DefaultMaxPyramidLevels
	TargetPolicy        TargetPolicy
}

// Normalize fills documented defaults for zero-valued optional fields.
func (p Params) Normalize() Params {
	if p.PerTradeAmount == 0 {
		p.PerTradeAmount = p.InitialCapital / DefaultPerTradeDivisor
	}
	if p.TargetProfitPercent == 0 {
		p.TargetProfitPercent = DefaultTargetProfitPercent
	}
	if p.MaxPyramidLevels == 0 {
		p.MaxPyramidLevels = DefaultMaxPyramidLevels
	}
	if p.ExitStrategy == "" {
		p.ExitStrategy = ExitWeightedAverage
	}
	if p.TargetPolicy == "" {
		p.TargetPolicy = TargetFlat
	}
	return p
}

// Validate rejects parameters the replay arithmetic is not defined for.
func (p Params) Validate() error {
	if p.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidParams, p.InitialCapital)
	}
	if p.PerTradeAmount <= 0 {
		return fmt.Errorf("%w: per-trade amount must be positive, got %v", ErrInvalidParams, p.PerTradeAmount)
	}
	if p.TargetProfitPercent <= 0 {
		return fmt.Errorf("%w: target profit percent must be positive, got %v", ErrInvalidParams, p.TargetProfitPercent)
	}
	if p.MaxPyramidLevels <= 0 {
		return fmt.Errorf("%w: max pyramid levels must be positive, got %d", ErrInvalidParams, p.MaxPyramidLevels)
	}
	switch p.ExitStrategy {
	case ExitWeightedAverage, ExitPerLot:
	default:
		return fmt.Errorf("%w: unknown exit strategy %q", ErrInvalidParams, p.ExitStrategy)
	}
	switch p.TargetPolicy {
	case TargetFlat, TargetTiered:
	default:
		return fmt.Errorf("%w: unknown target policy %q", ErrInvalidParams, p.TargetPolicy)
	}
	return nil
}

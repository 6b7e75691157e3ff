// Package store persists daily bar history. The analyzer and the backtest
// engine never touch storage themselves; the orchestration layer loads bars
// through a BarStore and hands them over as plain slices.
package store

import (
	"context"
	"time"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// BarStore is the repository for daily bar history and the symbol universe.
type BarStore interface {
	// SaveBars upserts bars. Implementations must keep (symbol, date)
	// unique.
	SaveBars(ctx context.Context, bars []types.DailyBar) error

	// LoadBars returns the bars for a symbol within [start, end],
	// date ascending.
	LoadBars(ctx context.Context, symbol string, start, end time.Time) ([]types.DailyBar, error)

	// Symbols lists every symbol with stored history.
	Symbols(ctx context.Context) ([]string, error)

	// LastDate returns the most recent stored bar date for a symbol, or
	// the zero time when none exist.
	LastDate(ctx context.Context, symbol string) (time.Time, error)
}

// FillGaps inserts a synthetic bar for every missing calendar day between
// consecutive bars, carrying the previous close forward with zero volume.
// The engine's trailing windows assume a dense, date-ascending series, so
// gaps are filled before bars reach it. Input must be date ascending.
func FillGaps(bars []types.DailyBar) []types.DailyBar {
	if len(bars) < 2 {
		return bars
	}
	filled := make([]types.DailyBar, 0, len(bars))
	filled = append(filled, bars[0])
	for _, bar := range bars[1:] {
		prev := filled[len(filled)-1]
		for d := prev.Date.AddDate(0, 0, 1); d.Before(bar.Date); d = d.AddDate(0, 0, 1) {
			filled = append(filled, types.DailyBar{
				Symbol: prev.Symbol,
				Date:   d,
				Open:   prev.Close,
				High:   prev.Close,
				Low:    prev.Close,
				Close:  prev.Close,
				Volume: 0,
			})
		}
		filled = append(filled, bar)
	}
	return filled
}

// Package fetch pulls daily bar history from the Alpaca market-data API
// into a BarStore. It is a thin collaborator: it never interprets the bars,
// only retrieves, gap-fills, and persists them.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/tradelab/breakout-screener/internal/monitoring"
	"github.com/tradelab/breakout-screener/internal/store"
	"github.com/tradelab/breakout-screener/pkg/types"
)

// AlpacaFetcher fetches daily US-equity bars via Alpaca.
type AlpacaFetcher struct {
	client    *marketdata.Client
	store     store.BarStore
	batchSize int
	limiter   *throttle
	log       *slog.Logger
}

// NewAlpacaFetcher creates a fetcher with the given credentials and target
// store. batchSize is the number of symbols per multi-bar API call.
func NewAlpacaFetcher(apiKey, apiSecret string, s store.BarStore, batchSize int) *AlpacaFetcher {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		store:     s,
		batchSize: batchSize,
		limiter:   newThrottle(10, 3),
		log:       slog.Default().With("component", "alpaca-fetcher"),
	}
}

// FetchDaily retrieves daily bars for the given symbols between start and
// end, fills calendar gaps, and persists them. Symbols already stored are
// resumed from their last stored date.
func (f *AlpacaFetcher) FetchDaily(ctx context.Context, symbols []string, start, end time.Time) error {
	for i := 0; i < len(symbols); i += f.batchSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		batch := symbols[i:min(i+f.batchSize, len(symbols))]

		batchStart := start
		if len(batch) == 1 {
			// Single-symbol fetches resume from the cache.
			if last, err := f.store.LastDate(ctx, batch[0]); err == nil && last.After(start) {
				batchStart = last.AddDate(0, 0, 1)
			}
		}
		if batchStart.After(end) {
			continue
		}

		if err := f.limiter.wait(ctx); err != nil {
			return err
		}
		multiBars, err := f.client.GetMultiBars(batch, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     batchStart,
			End:       end,
		})
		if err != nil {
			monitoring.RecordError("fetch")
			return fmt.Errorf("fetching bars for batch starting %s: %w", batch[0], err)
		}

		for symbol, alpacaBars := range multiBars {
			bars := make([]types.DailyBar, 0, len(alpacaBars))
			for _, ab := range alpacaBars {
				bars = append(bars, types.DailyBar{
					Symbol: strings.ToUpper(symbol),
					Date:   ab.Timestamp.UTC().Truncate(24 * time.Hour),
					Open:   ab.Open,
					High:   ab.High,
					Low:    ab.Low,
					Close:  ab.Close,
					Volume: float64(ab.Volume),
				})
			}
			bars = store.FillGaps(bars)
			if err := f.store.SaveBars(ctx, bars); err != nil {
				return fmt.Errorf("saving bars for %s: %w", symbol, err)
			}
			monitoring.RecordFetchedBars(strings.ToUpper(symbol), len(bars))
			f.log.Debug("stored bars", "symbol", symbol, "count", len(bars))
		}
		f.log.Info("fetched batch", "symbols", len(batch), "from", batchStart.Format("2006-01-02"), "to", end.Format("2006-01-02"))
	}
	return nil
}

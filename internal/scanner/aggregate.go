package scanner

import (
	"sort"

	"github.com/tradelab/breakout-screener/internal/backtest"
	"github.com/tradelab/breakout-screener/pkg/types"
)

// PortfolioSummary is the simple reduction of per-symbol backtest results:
// sums of trades and profits plus a buy-and-hold benchmark delta.
type PortfolioSummary struct {
	SymbolsTested    int
	SymbolsSkipped   int
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	WinRate          float64
	TotalProfit      float64
	RealizedProfit   float64
	UnrealizedProfit float64
	BlockedCapital   float64
	BenchmarkSymbol  string
	BenchmarkReturn  float64 // buy-and-hold percent over the same horizon
	BenchmarkDelta   float64 // average symbol return minus benchmark return
	AverageReturn    float64 // mean total return percent across symbols
}

// Aggregate reduces scan results into a portfolio summary. benchmarkBars
// may be nil when no benchmark comparison is wanted.
func Aggregate(results []SymbolResult, benchmarkSymbol string, benchmarkBars []types.DailyBar) PortfolioSummary {
	summary := PortfolioSummary{BenchmarkSymbol: benchmarkSymbol}

	returnSum := 0.0
	for _, r := range results {
		if r.Skipped || r.Backtest == nil {
			summary.SymbolsSkipped++
			continue
		}
		bt := r.Backtest
		summary.SymbolsTested++
		summary.TotalTrades += bt.TotalTrades
		summary.WinningTrades += bt.WinningTrades
		summary.LosingTrades += bt.LosingTrades
		summary.TotalProfit += bt.TotalProfit
		summary.RealizedProfit += bt.RealizedProfit
		summary.UnrealizedProfit += bt.UnrealizedProfit
		summary.BlockedCapital += bt.BlockedCapital
		if bt.InitialCapital > 0 {
			returnSum += bt.TotalProfit / bt.InitialCapital * 100
		}
	}
	if summary.TotalTrades > 0 {
		summary.WinRate = float64(summary.WinningTrades) / float64(summary.TotalTrades) * 100
	}
	if summary.SymbolsTested > 0 {
		summary.AverageReturn = returnSum / float64(summary.SymbolsTested)
	}

	// Benchmark over the same horizon the engine evaluates: from the first
	// bar after the warmup window to the last bar.
	if len(benchmarkBars) >= backtest.MinBars {
		first := benchmarkBars[backtest.WindowSize].Close
		last := benchmarkBars[len(benchmarkBars)-1].Close
		if first > 0 {
			summary.BenchmarkReturn = (last - first) / first * 100
			summary.BenchmarkDelta = summary.AverageReturn - summary.BenchmarkReturn
		}
	}
	return summary
}

// RankByDistance sorts analyses by distance to trigger ascending, so the
// symbols closest to a breakout come first. Skipped symbols are dropped.
func RankByDistance(results []SymbolResult) []*types.Analysis {
	ranked := make([]*types.Analysis, 0, len(results))
	for _, r := range results {
		if r.Analysis != nil {
			ranked = append(ranked, r.Analysis)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DistanceToTrigger < ranked[j].DistanceToTrigger
	})
	return ranked
}

// Package reporting renders analyzer and backtest output to the console,
// Excel workbooks, CSV, and JSON.
package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tradelab/breakout-screener/internal/backtest"
	"github.com/tradelab/breakout-screener/internal/scanner"
	"github.com/tradelab/breakout-screener/pkg/types"
)

// ConsoleReporter writes human-readable tables to stdout.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintAnalyses renders the screener ranking, closest-to-trigger first.
func (r *ConsoleReporter) PrintAnalyses(analyses []*types.Analysis) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SCREENER RESULTS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Regime", "Price", "20d High", "20d Low", "To Trigger", "Low Touch", "Breakout"})

	for _, a := range analyses {
		touch := "-"
		if !a.TriggerDate.IsZero() {
			touch = a.TriggerDate.Format("2006-01-02")
		}
		breakout := "-"
		if !a.BuyTriggerDate.IsZero() {
			breakout = a.BuyTriggerDate.Format("2006-01-02")
		}
		t.AppendRow(table.Row{
			a.Symbol,
			a.Regime.String(),
			fmt.Sprintf("%.2f", a.CurrentPrice),
			fmt.Sprintf("%.2f", a.WindowHigh),
			fmt.Sprintf("%.2f", a.WindowLow),
			fmt.Sprintf("%.2f%%", a.DistanceToTrigger),
			touch,
			breakout,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

// PrintBacktest renders one symbol's backtest summary and its trades.
func (r *ConsoleReporter) PrintBacktest(result *backtest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("BACKTEST %s (%s .. %s)",
		result.Symbol,
		result.StartDate.Format("2006-01-02"),
		result.EndDate.Format("2006-01-02")))
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Initial Capital", fmt.Sprintf("$%.2f", result.InitialCapital)},
		{"Final Capital", fmt.Sprintf("$%.2f", result.FinalCapital)},
		{"Total Profit", fmt.Sprintf("$%.2f", result.TotalProfit)},
		{"Realized / Unrealized", fmt.Sprintf("$%.2f / $%.2f", result.RealizedProfit, result.UnrealizedProfit)},
		{"Blocked Capital", fmt.Sprintf("$%.2f", result.BlockedCapital)},
		{"Trades (W/L)", fmt.Sprintf("%d (%d/%d)", result.TotalTrades, result.WinningTrades, result.LosingTrades)},
		{"Win Rate", fmt.Sprintf("%.1f%%", result.WinRate)},
		{"CAGR", fmt.Sprintf("%.2f%%", result.CAGR)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", result.MaxDrawdown)},
	})
	t.Render()

	if len(result.Trades) > 0 {
		r.printTrades(result.Trades)
	}
	if len(result.OpenPositions) > 0 {
		r.printOpenPositions(result.OpenPositions)
	}
}

func (r *ConsoleReporter) printTrades(trades []backtest.ClosedTrade) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("CLOSED TRADES")
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Entry", "Entry Px", "Exit", "Exit Px", "Seq", "Profit", "Profit %", "Days"})
	for i, tr := range trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.EntryDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", tr.EntryPrice),
			tr.ExitDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", tr.ExitPrice),
			tr.SequenceNumber,
			fmt.Sprintf("%.2f", tr.Profit),
			fmt.Sprintf("%.2f%%", tr.ProfitPercent),
			tr.HoldingDays,
		})
	}
	t.Render()
}

func (r *ConsoleReporter) printOpenPositions(positions []backtest.OpenPosition) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("OPEN POSITIONS")
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Entry", "Entry Px", "Qty", "Seq", "Mark Px", "Value", "PnL", "PnL %", "Days"})
	for _, p := range positions {
		t.AppendRow(table.Row{
			p.EntryDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", p.EntryPrice),
			p.Quantity,
			p.SequenceNumber,
			fmt.Sprintf("%.2f", p.CurrentPrice),
			fmt.Sprintf("%.2f", p.CurrentValue),
			fmt.Sprintf("%.2f", p.PnL),
			fmt.Sprintf("%.2f%%", p.PnLPercent),
			p.HoldingDays,
		})
	}
	t.Render()
}

// PrintSummary renders the cross-symbol portfolio summary.
func (r *ConsoleReporter) PrintSummary(s scanner.PortfolioSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PORTFOLIO SUMMARY")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Symbols Tested", s.SymbolsTested},
		{"Symbols Skipped", s.SymbolsSkipped},
		{"Total Trades (W/L)", fmt.Sprintf("%d (%d/%d)", s.TotalTrades, s.WinningTrades, s.LosingTrades)},
		{"Win Rate", fmt.Sprintf("%.1f%%", s.WinRate)},
		{"Total Profit", fmt.Sprintf("$%.2f", s.TotalProfit)},
		{"Realized / Unrealized", fmt.Sprintf("$%.2f / $%.2f", s.RealizedProfit, s.UnrealizedProfit)},
		{"Average Return", fmt.Sprintf("%.2f%%", s.AverageReturn)},
	})
	if s.BenchmarkSymbol != "" {
		t.AppendRows([]table.Row{
			{"Benchmark " + s.BenchmarkSymbol, fmt.Sprintf("%.2f%%", s.BenchmarkReturn)},
			{"Delta vs Benchmark", fmt.Sprintf("%.2f%%", s.BenchmarkDelta)},
		})
	}
	t.Render()
}

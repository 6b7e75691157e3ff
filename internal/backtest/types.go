package backtest

import (
	"time"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// Lot is one open entry inside the current pyramiding cycle. Lots are owned
// exclusively by the simulator while a run is in progress; they are turned
// into ClosedTrades on exit or OpenPositions at the end of the replay.
type Lot struct {
	EntryDate      time.Time
	EntryPrice     float64
	Quantity       int
	SequenceNumber int // 1st/2nd/3rd entry in the current cycle
	TargetPercent  float64
}

// ClosedTrade is a fully exited lot.
type ClosedTrade struct {
	Symbol         string
	EntryDate      time.Time
	EntryPrice     float64
	ExitDate       time.Time
	ExitPrice      float64
	SequenceNumber int
	TargetPercent  float64
	Profit         float64
	ProfitPercent  float64
	HoldingDays    int
}

// OpenPosition is a lot still held when the replay ends, marked at the last
// bar's close.
type OpenPosition struct {
	Symbol         string
	EntryDate      time.Time
	EntryPrice     float64
	Quantity       int
	SequenceNumber int
	TargetPercent  float64
	CurrentPrice   float64
	CurrentValue   float64
	PnL            float64
	PnLPercent     float64
	HoldingDays    int
}

// ActivityKind is the kind of event recorded against a simulated day.
type ActivityKind string

const (
	ActivityBuy     ActivityKind = "BUY"
	ActivitySell    ActivityKind = "SELL"
	ActivitySkipped ActivityKind = "SKIPPED"
)

// Activity is a side record of a lot creation, closure, or rejected entry.
type Activity struct {
	Symbol             string
	Kind               ActivityKind
	Date               time.Time
	Price              float64
	Quantity           int
	Amount             float64
	SequenceNumber     int
	Profit             float64   // SELL only
	HoldingDays        int       // SELL only
	ReferenceEntryDate time.Time // SELL only: the lot's entry date
}

// DailyLedgerEntry is one end-of-day accounting row. Invested value is the
// mark-to-market of all open lots at that day's close.
type DailyLedgerEntry struct {
	Date       time.Time
	Cash       float64
	Invested   float64
	Equity     float64
	DayProfit  float64 // zero for the first entry
	Activities []Activity
}

// Result aggregates everything a single-symbol backtest produced. It is
// built once at the end of the replay and not mutated afterwards.
type Result struct {
	Symbol    string
	StartDate time.Time // first evaluated bar
	EndDate   time.Time

	InitialCapital   float64
	FinalCapital     float64
	TotalProfit      float64
	RealizedProfit   float64
	UnrealizedProfit float64
	BlockedCapital   float64 // cost basis still tied up in open lots

	Trades        []ClosedTrade
	OpenPositions []OpenPosition
	Ledger        []DailyLedgerEntry

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // percent; profit > 0 counts as a win
	CAGR          float64 // percent, annualized over actual elapsed days
	MaxDrawdown   float64 // percent, from the running equity peak
}

// barsWindow returns the highest high and lowest low of the given bars.
func barsWindow(window []types.DailyBar) (high, low float64) {
	high = window[0].High
	low = window[0].Low
	for _, b := range window[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

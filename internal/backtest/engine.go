// Package backtest replays daily bars through the pullback-breakout entry
// rules and produces closed trades, open positions, a daily ledger, and
// summary statistics for one symbol.
package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// WindowSize is the trailing channel length, matching the analyzer.
const WindowSize = 20

// MinBars is the minimum usable history for a run.
const MinBars = WindowSize + 1

// ErrInsufficientData is returned when a symbol has fewer bars than MinBars.
// Callers should skip the symbol rather than treat this as a failure of the
// run itself.
var ErrInsufficientData = errors.New("insufficient bar history")

// Engine runs breakout-after-pullback backtests. An Engine is immutable
// after construction and safe to reuse across symbols; all per-run state
// lives on the stack of Run.
type Engine struct {
	params Params
}

// NewEngine normalizes and validates the given parameters and returns a
// ready-to-use engine.
func NewEngine(params Params) (*Engine, error) {
	p := params.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Params returns the normalized parameters the engine runs with.
func (e *Engine) Params() Params {
	return e.params
}

// Run replays the bar history for one symbol. Bars must be gap-filled and
// date ascending. The replay evaluates each day in a fixed order: exits
// first (using the day's high as the touch price), then the entry check,
// then end-of-day mark-to-market accounting.
func (e *Engine) Run(symbol string, bars []types.DailyBar) (*Result, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d", ErrInsufficientData, symbol, len(bars), MinBars)
	}

	var (
		cash      = e.params.InitialCapital
		tracking  = false
		sequence  = 0
		lots      []Lot
		trades    []ClosedTrade
		ledger    []DailyLedgerEntry
		maxEquity = e.params.InitialCapital
		maxDD     float64
	)

	for i := WindowSize; i < len(bars); i++ {
		day := bars[i]
		windowHigh, windowLow := barsWindow(bars[i-WindowSize : i])
		var activities []Activity

		// 1. Exits. The day's high is treated as an intraday touch, so a
		// target crossed anywhere inside the day's range fills at the
		// target price, not the close.
		var remaining []Lot
		closedAny := false
		switch e.params.ExitStrategy {
		case ExitWeightedAverage:
			remaining = lots
			if len(lots) > 0 {
				target := weightedAverageTarget(lots)
				if day.High >= target {
					for _, lot := range lots {
						trade, act := closeLot(symbol, lot, day, target)
						trades = append(trades, trade)
						activities = append(activities, act)
						cash += target * float64(lot.Quantity)
					}
					remaining = nil
					closedAny = true
				}
			}
		case ExitPerLot:
			// Each lot exits independently against its own target; a newer
			// lot with a lower target can close before an older one.
			for _, lot := range lots {
				target := lot.EntryPrice * (1 + lot.TargetPercent/100)
				if day.High >= target {
					trade, act := closeLot(symbol, lot, day, target)
					trades = append(trades, trade)
					activities = append(activities, act)
					cash += target * float64(lot.Quantity)
					closedAny = true
					continue
				}
				remaining = append(remaining, lot)
			}
		}
		lots = remaining

		// The pyramiding cycle resets once every lot has closed out; a
		// fresh low touch is then required before the next entry.
		if closedAny && len(lots) == 0 && sequence != 0 {
			sequence = 0
			tracking = false
		}

		// 2. Entry. Arming and the breakout check run in the same
		// iteration, so a day that touches the low and clears the high
		// fires an entry immediately.
		if day.Low <= windowLow {
			tracking = true
		}
		if tracking && day.High > windowHigh {
			if sequence < e.params.MaxPyramidLevels {
				sequence++
				targetPercent := e.params.TargetPolicy.targetPercentFor(sequence, e.params.TargetProfitPercent)
				// Entries fill at the breakout level, not the day's close.
				entryPrice := windowHigh
				quantity := int(math.Floor(e.params.PerTradeAmount / entryPrice))
				if quantity > 0 {
					cost := float64(quantity) * entryPrice
					if cash >= cost {
						cash -= cost
						lots = append(lots, Lot{
							EntryDate:      day.Date,
							EntryPrice:     entryPrice,
							Quantity:       quantity,
							SequenceNumber: sequence,
							TargetPercent:  targetPercent,
						})
						activities = append(activities, Activity{
							Symbol:         symbol,
							Kind:           ActivityBuy,
							Date:           day.Date,
							Price:          entryPrice,
							Quantity:       quantity,
							Amount:         cost,
							SequenceNumber: sequence,
						})
					} else {
						activities = append(activities, Activity{
							Symbol:         symbol,
							Kind:           ActivitySkipped,
							Date:           day.Date,
							Price:          entryPrice,
							Quantity:       quantity,
							Amount:         cost,
							SequenceNumber: sequence,
						})
					}
				}
			}
			// A breakout consumes the armed state whether or not a buy
			// happened; the low must be touched again for the next entry.
			tracking = false
		}

		// 3. End-of-day accounting, marked at the close.
		invested := 0.0
		for _, lot := range lots {
			invested += float64(lot.Quantity) * day.Close
		}
		equity := cash + invested
		if equity > maxEquity {
			maxEquity = equity
		}
		if maxEquity > 0 {
			dd := (maxEquity - equity) / maxEquity * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
		ledger = append(ledger, DailyLedgerEntry{
			Date:       day.Date,
			Cash:       cash,
			Invested:   invested,
			Equity:     equity,
			Activities: activities,
		})
	}

	// Day profit needs the full equity series, so it is filled in a second
	// pass. The first entry has no predecessor and stays zero.
	for i := 1; i < len(ledger); i++ {
		ledger[i].DayProfit = ledger[i].Equity - ledger[i-1].Equity
	}

	return e.finalize(symbol, bars, lots, trades, ledger, cash, maxDD), nil
}

// finalize builds the immutable result from the replay's terminal state.
func (e *Engine) finalize(symbol string, bars []types.DailyBar, lots []Lot, trades []ClosedTrade, ledger []DailyLedgerEntry, cash, maxDD float64) *Result {
	first := bars[WindowSize]
	last := bars[len(bars)-1]

	realized := 0.0
	winning := 0
	for _, t := range trades {
		realized += t.Profit
		if t.Profit > 0 {
			winning++
		}
	}

	var (
		open       []OpenPosition
		unrealized float64
		blocked    float64
		openValue  float64
	)
	for _, lot := range lots {
		cost := lot.EntryPrice * float64(lot.Quantity)
		value := last.Close * float64(lot.Quantity)
		pnl := value - cost
		open = append(open, OpenPosition{
			Symbol:         symbol,
			EntryDate:      lot.EntryDate,
			EntryPrice:     lot.EntryPrice,
			Quantity:       lot.Quantity,
			SequenceNumber: lot.SequenceNumber,
			TargetPercent:  lot.TargetPercent,
			CurrentPrice:   last.Close,
			CurrentValue:   value,
			PnL:            pnl,
			PnLPercent:     pnl / cost * 100,
			HoldingDays:    daysBetween(lot.EntryDate, last.Date),
		})
		unrealized += pnl
		blocked += cost
		openValue += value
	}

	finalCapital := cash + openValue

	result := &Result{
		Symbol:           symbol,
		StartDate:        first.Date,
		EndDate:          last.Date,
		InitialCapital:   e.params.InitialCapital,
		FinalCapital:     finalCapital,
		TotalProfit:      finalCapital - e.params.InitialCapital,
		RealizedProfit:   realized,
		UnrealizedProfit: unrealized,
		BlockedCapital:   blocked,
		Trades:           trades,
		OpenPositions:    open,
		Ledger:           ledger,
		TotalTrades:      len(trades),
		WinningTrades:    winning,
		LosingTrades:     len(trades) - winning,
		MaxDrawdown:      maxDD,
	}
	if result.TotalTrades > 0 {
		result.WinRate = float64(winning) / float64(result.TotalTrades) * 100
	}
	result.CAGR = annualizedReturn(e.params.InitialCapital, finalCapital, first.Date, last.Date)
	return result
}

// weightedAverageTarget computes the shared exit price for the weighted
// average strategy: the quantity-weighted average entry price marked up by
// the first (oldest) lot's target percent.
func weightedAverageTarget(lots []Lot) float64 {
	totalCost := 0.0
	totalQty := 0
	for _, lot := range lots {
		totalCost += lot.EntryPrice * float64(lot.Quantity)
		totalQty += lot.Quantity
	}
	avg := totalCost / float64(totalQty)
	return avg * (1 + lots[0].TargetPercent/100)
}

// closeLot converts an open lot into a closed trade at the given exit price
// together with its SELL activity record.
func closeLot(symbol string, lot Lot, day types.DailyBar, exitPrice float64) (ClosedTrade, Activity) {
	profit := (exitPrice - lot.EntryPrice) * float64(lot.Quantity)
	holding := daysBetween(lot.EntryDate, day.Date)
	trade := ClosedTrade{
		Symbol:         symbol,
		EntryDate:      lot.EntryDate,
		EntryPrice:     lot.EntryPrice,
		ExitDate:       day.Date,
		ExitPrice:      exitPrice,
		SequenceNumber: lot.SequenceNumber,
		TargetPercent:  lot.TargetPercent,
		Profit:         profit,
		ProfitPercent:  (exitPrice - lot.EntryPrice) / lot.EntryPrice * 100,
		HoldingDays:    holding,
	}
	activity := Activity{
		Symbol:             symbol,
		Kind:               ActivitySell,
		Date:               day.Date,
		Price:              exitPrice,
		Quantity:           lot.Quantity,
		Amount:             exitPrice * float64(lot.Quantity),
		SequenceNumber:     lot.SequenceNumber,
		Profit:             profit,
		HoldingDays:        holding,
		ReferenceEntryDate: lot.EntryDate,
	}
	return trade, activity
}

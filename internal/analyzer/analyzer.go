// Package analyzer classifies symbols against a pullback-then-breakout
// setup: a touch of the trailing 20-day low arms tracking, and a later move
// above the trailing 20-day high fires the buy trigger.
package analyzer

import (
	"errors"
	"fmt"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// WindowSize is the number of trailing bars used for the high/low channel.
const WindowSize = 20

// MinBars is the minimum history needed: a full window plus one bar to
// evaluate against it.
const MinBars = WindowSize + 1

// ErrInsufficientData is returned when a symbol has fewer bars than MinBars.
var ErrInsufficientData = errors.New("insufficient bar history")

// Analyze replays the full bar history for one symbol and reports the
// current regime, the most recent transition dates, and a snapshot of the
// latest 20-bar channel.
//
// The replay is intentionally stateless between calls: the whole history is
// reprocessed every time so the reported regime is a pure function of the
// input and cannot drift from an incrementally maintained copy.
func Analyze(symbol string, bars []types.DailyBar) (*types.Analysis, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d", ErrInsufficientData, symbol, len(bars), MinBars)
	}

	result := &types.Analysis{
		Symbol: symbol,
		Regime: types.RegimeNeutral,
	}

	tracking := false
	for i := WindowSize; i < len(bars); i++ {
		windowHigh, windowLow := channel(bars[i-WindowSize : i])
		day := bars[i]

		// Breakout is checked against the tracking state carried in from
		// previous days, before any same-day low touch can arm it.
		brokeOut := false
		if tracking && day.High > windowHigh {
			result.Regime = types.RegimeBuyTriggered
			result.BuyTriggerDate = day.Date
			tracking = false
			brokeOut = true
		}

		// A low touch always (re)arms tracking and refreshes the trigger
		// date. It only demotes the regime back to TRACKING when the
		// breakout did not fire on the same day; on a day where both
		// conditions hold, the breakout wins.
		if day.Low <= windowLow {
			tracking = true
			result.TriggerDate = day.Date
			if !brokeOut {
				result.Regime = types.RegimeTracking
			}
		}
	}

	// Snapshot against the 20 bars preceding the most recent bar. This is a
	// "today" view: the distance metric is always quoted against the latest
	// channel high, even when the replay ended in BUY_TRIGGERED.
	last := bars[len(bars)-1]
	windowHigh, windowLow := channel(bars[len(bars)-1-WindowSize : len(bars)-1])
	result.CurrentPrice = last.Close
	result.WindowHigh = windowHigh
	result.WindowLow = windowLow
	if last.Close > 0 {
		result.DistanceToTrigger = (windowHigh - last.Close) / last.Close * 100
	}

	return result, nil
}

// channel returns the highest high and lowest low of the given bars.
func channel(window []types.DailyBar) (high, low float64) {
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

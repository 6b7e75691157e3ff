package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// flatBars builds count quiet bars: close 100, high 101, lows creeping up
// from 99 so no bar ever touches the trailing 20-bar low on its own.
func flatBars(symbol string, count int) []types.DailyBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.DailyBar, count)
	for i := range bars {
		bars[i] = types.DailyBar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   100,
			High:   101,
			Low:    99 + 0.01*float64(i),
			Close:  100,
			Volume: 1000,
		}
	}
	return bars
}

func TestAnalyze_InsufficientData(t *testing.T) {
	_, err := Analyze("AAPL", flatBars("AAPL", 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Analyze("AAPL", flatBars("AAPL", MinBars-1))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyze_FlatHistoryIsNeutral(t *testing.T) {
	result, err := Analyze("AAPL", flatBars("AAPL", 30))
	require.NoError(t, err)

	assert.Equal(t, types.RegimeNeutral, result.Regime)
	assert.True(t, result.TriggerDate.IsZero())
	assert.True(t, result.BuyTriggerDate.IsZero())
	assert.Equal(t, 100.0, result.CurrentPrice)
	assert.Equal(t, 101.0, result.WindowHigh)
	assert.InDelta(t, 99.09, result.WindowLow, 1e-9) // lowest low of bars[9:29]
}

func TestAnalyze_LowTouchArmsTracking(t *testing.T) {
	bars := flatBars("AAPL", 25)
	bars[22].Low = 98 // breaches the trailing 20-bar low

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeTracking, result.Regime)
	assert.Equal(t, bars[22].Date, result.TriggerDate)
	assert.True(t, result.BuyTriggerDate.IsZero())
}

func TestAnalyze_BreakoutAfterPullback(t *testing.T) {
	bars := flatBars("AAPL", 25)
	bars[20].Low = 98   // arm tracking
	bars[22].High = 102 // clear the trailing 20-bar high of 101

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeBuyTriggered, result.Regime)
	assert.Equal(t, bars[20].Date, result.TriggerDate)
	assert.Equal(t, bars[22].Date, result.BuyTriggerDate)
}

func TestAnalyze_RetouchAfterBreakoutOverridesToTracking(t *testing.T) {
	bars := flatBars("AAPL", 28)
	bars[20].Low = 98
	bars[22].High = 102
	bars[25].Low = 97 // fresh low touch after the breakout

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeTracking, result.Regime)
	assert.Equal(t, bars[25].Date, result.TriggerDate)
	assert.Equal(t, bars[22].Date, result.BuyTriggerDate)
}

func TestAnalyze_BreakoutWinsWhenBothFireSameDay(t *testing.T) {
	bars := flatBars("AAPL", 25)
	bars[20].Low = 98
	// Day 22 both breaches the window low and clears the window high.
	bars[22].Low = 97
	bars[22].High = 102

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeBuyTriggered, result.Regime)
	assert.Equal(t, bars[22].Date, result.BuyTriggerDate)
	// The same-day touch still refreshes the trigger date for later use.
	assert.Equal(t, bars[22].Date, result.TriggerDate)
}

func TestAnalyze_BreakoutNeedsPriorArming(t *testing.T) {
	// A neutral symbol whose single wide-range day touches the low and the
	// high does not trigger: the breakout check runs against the tracking
	// state carried in from previous days.
	bars := flatBars("AAPL", 25)
	bars[22].Low = 97
	bars[22].High = 102

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeTracking, result.Regime)
	assert.True(t, result.BuyTriggerDate.IsZero())
}

func TestAnalyze_DistanceToTrigger(t *testing.T) {
	bars := flatBars("AAPL", 30)
	bars[len(bars)-1].Close = 95

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	// (101 - 95) / 95 * 100
	assert.InDelta(t, 6.3158, result.DistanceToTrigger, 0.001)
	assert.Equal(t, 95.0, result.CurrentPrice)
}

func TestAnalyze_SnapshotIgnoresTerminalRegime(t *testing.T) {
	// The snapshot quotes the latest 20-bar channel even when the replay
	// ended in BUY_TRIGGERED.
	bars := flatBars("AAPL", 25)
	bars[20].Low = 98
	bars[24].High = 102 // breakout on the final bar

	result, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, types.RegimeBuyTriggered, result.Regime)
	// Window over bars[4:24]: the armed bar's low is inside it.
	assert.Equal(t, 101.0, result.WindowHigh)
	assert.Equal(t, 98.0, result.WindowLow)
}

func TestAnalyze_Deterministic(t *testing.T) {
	bars := flatBars("AAPL", 40)
	bars[25].Low = 98
	bars[30].High = 103

	first, err := Analyze("AAPL", bars)
	require.NoError(t, err)
	second, err := Analyze("AAPL", bars)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

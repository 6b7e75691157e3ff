package backtest

import (
	"math"
	"time"
)

// daysBetween returns whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// annualizedReturn computes CAGR as a percentage over the actual elapsed
// time between the first evaluated bar and the last bar. Returns 0 when the
// elapsed time is not positive or the final capital is not positive, where
// the compounding formula is undefined.
func annualizedReturn(initial, final float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 || final <= 0 || initial <= 0 {
		return 0
	}
	return (math.Pow(final/initial, 1/years) - 1) * 100
}

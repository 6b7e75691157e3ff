package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, daysBetween(date(2024, 1, 1), date(2024, 1, 1)))
	assert.Equal(t, 1, daysBetween(date(2024, 1, 1), date(2024, 1, 2)))
	assert.Equal(t, 31, daysBetween(date(2024, 1, 1), date(2024, 2, 1)))
	assert.Equal(t, 366, daysBetween(date(2024, 1, 1), date(2025, 1, 1))) // leap year
}

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name     string
		initial  float64
		final    float64
		start    time.Time
		end      time.Time
		expected float64
	}{
		{
			name:    "ten percent over one year",
			initial: 100, final: 110,
			start: date(2024, 1, 1), end: date(2024, 12, 31).Add(6 * time.Hour),
			expected: 10.0,
		},
		{
			name:    "compounding over two years",
			initial: 100, final: 121,
			start: date(2023, 1, 1), end: date(2024, 12, 31).Add(12 * time.Hour),
			expected: 10.0,
		},
		{
			name:    "annualizes a short period upward",
			initial: 100, final: 105,
			start: date(2024, 1, 1), end: date(2024, 1, 1).Add(365.25 / 2 * 24 * time.Hour),
			expected: 10.25,
		},
		{
			name:    "negative return",
			initial: 100, final: 90,
			start: date(2024, 1, 1), end: date(2024, 12, 31).Add(6 * time.Hour),
			expected: -10.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := annualizedReturn(tt.initial, tt.final, tt.start, tt.end)
			assert.InDelta(t, tt.expected, got, 0.01)
		})
	}
}

func TestAnnualizedReturn_Degenerate(t *testing.T) {
	start, end := date(2024, 1, 1), date(2025, 1, 1)

	assert.Equal(t, 0.0, annualizedReturn(100, 110, start, start)) // zero elapsed
	assert.Equal(t, 0.0, annualizedReturn(100, 110, end, start))   // reversed dates
	assert.Equal(t, 0.0, annualizedReturn(100, 0, start, end))     // wiped out
	assert.Equal(t, 0.0, annualizedReturn(0, 110, start, end))
}

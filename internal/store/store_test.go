package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/breakout-screener/pkg/types"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(symbol string, date time.Time, close float64) types.DailyBar {
	return types.DailyBar{
		Symbol: symbol,
		Date:   date,
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 1000,
	}
}

func TestFillGaps(t *testing.T) {
	bars := []types.DailyBar{
		bar("AAPL", day(1), 100),
		bar("AAPL", day(5), 104), // days 2-4 missing
		bar("AAPL", day(6), 105),
	}

	filled := FillGaps(bars)
	require.Len(t, filled, 6)

	for i, b := range filled {
		assert.Equal(t, day(i+1), b.Date, "index %d", i)
		assert.Equal(t, "AAPL", b.Symbol)
	}

	// Synthetic days carry the previous close forward with zero volume, so
	// they can never register as a new window low or high.
	for _, b := range filled[1:4] {
		assert.Equal(t, 100.0, b.Open)
		assert.Equal(t, 100.0, b.High)
		assert.Equal(t, 100.0, b.Low)
		assert.Equal(t, 100.0, b.Close)
		assert.Equal(t, 0.0, b.Volume)
	}

	// Real bars pass through untouched.
	assert.Equal(t, bars[1], filled[4])
	assert.Equal(t, bars[2], filled[5])
}

func TestFillGaps_DenseAndShortInputs(t *testing.T) {
	assert.Empty(t, FillGaps(nil))

	single := []types.DailyBar{bar("AAPL", day(1), 100)}
	assert.Equal(t, single, FillGaps(single))

	dense := []types.DailyBar{
		bar("AAPL", day(1), 100),
		bar("AAPL", day(2), 101),
		bar("AAPL", day(3), 102),
	}
	assert.Equal(t, dense, FillGaps(dense))
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSVBars(t *testing.T) {
	path := writeTempCSV(t, `date,open,high,low,close,volume
2024-01-01,100,101,99,100.5,12000
2024-01-02,100.5,102,100,101.5,9000
`)

	bars, err := LoadCSVBars("AAPL", path, DefaultCSVColumns)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "AAPL", bars[0].Symbol)
	assert.Equal(t, day(1), bars[0].Date)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 101.0, bars[0].High)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 12000.0, bars[0].Volume)
	assert.Equal(t, day(2), bars[1].Date)
}

func TestLoadCSVBars_RejectsBadRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"bad date",
			"date,open,high,low,close,volume\nnot-a-date,100,101,99,100,1000\n",
		},
		{
			"non-positive price",
			"date,open,high,low,close,volume\n2024-01-01,100,101,0,100,1000\n",
		},
		{
			"unparsable price",
			"date,open,high,low,close,volume\n2024-01-01,100,abc,99,100,1000\n",
		},
		{
			"too few columns",
			"date,open,high,low,close,volume\n2024-01-01,100,101\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, tt.content)
			_, err := LoadCSVBars("AAPL", path, DefaultCSVColumns)
			assert.Error(t, err)
		})
	}
}

func TestLoadCSVBars_MissingFile(t *testing.T) {
	_, err := LoadCSVBars("AAPL", filepath.Join(t.TempDir(), "missing.csv"), DefaultCSVColumns)
	assert.Error(t, err)
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	bars := []types.DailyBar{
		bar("AAPL", day(1), 100),
		bar("AAPL", day(2), 101),
		bar("MSFT", day(1), 300),
	}
	require.NoError(t, s.SaveBars(ctx, bars))

	loaded, err := s.LoadBars(ctx, "AAPL", day(1), day(31))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, bars[0], loaded[0])
	assert.Equal(t, bars[1], loaded[1])

	// Range bounds are inclusive.
	loaded, err = s.LoadBars(ctx, "AAPL", day(2), day(2))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, day(2), loaded[0].Date)
}

func TestSQLiteStore_SaveIsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBars(ctx, []types.DailyBar{bar("AAPL", day(1), 100)}))
	updated := bar("AAPL", day(1), 105)
	require.NoError(t, s.SaveBars(ctx, []types.DailyBar{updated}))

	loaded, err := s.LoadBars(ctx, "AAPL", day(1), day(1))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 105.0, loaded[0].Close)
}

func TestSQLiteStore_Symbols(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	symbols, err := s.Symbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	require.NoError(t, s.SaveBars(ctx, []types.DailyBar{
		bar("MSFT", day(1), 300),
		bar("AAPL", day(1), 100),
		bar("AAPL", day(2), 101),
	}))

	symbols, err = s.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestSQLiteStore_LastDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	last, err := s.LastDate(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	require.NoError(t, s.SaveBars(ctx, []types.DailyBar{
		bar("AAPL", day(3), 102),
		bar("AAPL", day(1), 100),
	}))

	last, err = s.LastDate(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, day(3), last)
}

func TestSQLiteStore_SaveEmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.SaveBars(context.Background(), nil))
}

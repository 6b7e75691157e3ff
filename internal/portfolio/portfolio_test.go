package portfolio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelab/breakout-screener/internal/store"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ledger, err := NewLedger(s.DB())
	require.NoError(t, err)
	return ledger
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestLedger_AddAndList(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	id1, err := ledger.Add(ctx, Entry{Symbol: "AAPL", Side: SideBuy, Price: 100, Quantity: 10, Date: day(2), Note: "initial"})
	require.NoError(t, err)
	id2, err := ledger.Add(ctx, Entry{Symbol: "MSFT", Side: SideBuy, Price: 300, Quantity: 5, Date: day(1)})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Oldest first.
	assert.Equal(t, "MSFT", entries[0].Symbol)
	assert.Equal(t, "AAPL", entries[1].Symbol)
	assert.Equal(t, SideBuy, entries[1].Side)
	assert.Equal(t, 100.0, entries[1].Price)
	assert.Equal(t, 10, entries[1].Quantity)
	assert.Equal(t, day(2), entries[1].Date)
	assert.Equal(t, "initial", entries[1].Note)
}

func TestLedger_AddRejectsDegenerateEntries(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Add(ctx, Entry{Symbol: "AAPL", Side: SideBuy, Price: 0, Quantity: 10, Date: day(1)})
	assert.Error(t, err)

	_, err = ledger.Add(ctx, Entry{Symbol: "AAPL", Side: SideBuy, Price: 100, Quantity: -5, Date: day(1)})
	assert.Error(t, err)
}

func TestLedger_Delete(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	id, err := ledger.Add(ctx, Entry{Symbol: "AAPL", Side: SideBuy, Price: 100, Quantity: 10, Date: day(1)})
	require.NoError(t, err)
	require.NoError(t, ledger.Delete(ctx, id))

	entries, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLedger_Holdings(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	// Two buys at different prices and a partial sell.
	mustAdd(t, ledger, Entry{Symbol: "AAPL", Side: SideBuy, Price: 100, Quantity: 10, Date: day(1)})
	mustAdd(t, ledger, Entry{Symbol: "AAPL", Side: SideBuy, Price: 110, Quantity: 10, Date: day(2)})
	mustAdd(t, ledger, Entry{Symbol: "AAPL", Side: SideSell, Price: 120, Quantity: 5, Date: day(3)})
	mustAdd(t, ledger, Entry{Symbol: "MSFT", Side: SideBuy, Price: 300, Quantity: 2, Date: day(1)})

	holdings, err := ledger.Holdings(ctx, map[string]float64{"AAPL": 115})
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	aapl := holdings[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, 15, aapl.Quantity)
	// Avg cost before the sell: (100*10 + 110*10) / 20 = 105. The sell
	// releases 5 shares at that average.
	assert.InDelta(t, 105.0, aapl.AvgCost, 1e-9)
	assert.InDelta(t, 1575.0, aapl.CostBasis, 1e-9)
	assert.Equal(t, 115.0, aapl.CurrentPrice)
	assert.InDelta(t, 15*115.0, aapl.CurrentValue, 1e-9)
	assert.InDelta(t, aapl.CurrentValue-aapl.CostBasis, aapl.PnL, 1e-9)

	// No close supplied for MSFT: position reported without valuation.
	msft := holdings[1]
	assert.Equal(t, "MSFT", msft.Symbol)
	assert.Equal(t, 2, msft.Quantity)
	assert.Equal(t, 0.0, msft.CurrentPrice)
	assert.Equal(t, 0.0, msft.PnL)
}

func TestLedger_HoldingsOmitsClosedPositions(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	mustAdd(t, ledger, Entry{Symbol: "AAPL", Side: SideBuy, Price: 100, Quantity: 10, Date: day(1)})
	mustAdd(t, ledger, Entry{Symbol: "AAPL", Side: SideSell, Price: 110, Quantity: 10, Date: day(2)})

	holdings, err := ledger.Holdings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func mustAdd(t *testing.T, ledger *Ledger, e Entry) {
	t.Helper()
	_, err := ledger.Add(context.Background(), e)
	require.NoError(t, err)
}

// Package portfolio is the persistent ledger for manual buy/sell
// bookkeeping. It is plain CRUD over SQLite; valuation happens against the
// latest close supplied by the caller.
package portfolio

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Side is the direction of a ledger entry.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Entry is one manually recorded transaction.
type Entry struct {
	ID       int64
	Symbol   string
	Side     Side
	Price    float64
	Quantity int
	Date     time.Time
	Note     string
}

// Holding is the net position in one symbol derived from the ledger.
type Holding struct {
	Symbol       string
	Quantity     int
	AvgCost      float64
	CostBasis    float64
	CurrentPrice float64
	CurrentValue float64
	PnL          float64
	PnLPercent   float64
}

// Ledger persists entries in a SQLite database. It can share the bar
// cache's database file.
type Ledger struct {
	db *sql.DB
}

// NewLedger wraps an open database and ensures the schema exists.
func NewLedger(db *sql.DB) (*Ledger, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS portfolio_entries (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol   TEXT NOT NULL,
			side     TEXT NOT NULL,
			price    REAL NOT NULL,
			quantity INTEGER NOT NULL,
			date     TEXT NOT NULL,
			note     TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return nil, fmt.Errorf("creating portfolio table: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Add records a transaction and returns its assigned ID.
func (l *Ledger) Add(ctx context.Context, e Entry) (int64, error) {
	if e.Price <= 0 || e.Quantity <= 0 {
		return 0, fmt.Errorf("entry for %s must have positive price and quantity", e.Symbol)
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO portfolio_entries (symbol, side, price, quantity, date, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Symbol, string(e.Side), e.Price, e.Quantity, e.Date.Format("2006-01-02"), e.Note)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Delete removes an entry by ID.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM portfolio_entries WHERE id = ?`, id)
	return err
}

// List returns all entries, oldest first.
func (l *Ledger) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, symbol, side, price, quantity, date, note
		FROM portfolio_entries ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var side, date string
		if err := rows.Scan(&e.ID, &e.Symbol, &side, &e.Price, &e.Quantity, &date, &e.Note); err != nil {
			return nil, err
		}
		e.Side = Side(side)
		e.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", date, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Holdings reduces the ledger to net positions and marks them against the
// given close prices (symbol -> latest close). Symbols whose net quantity
// is zero are omitted.
func (l *Ledger) Holdings(ctx context.Context, closes map[string]float64) ([]Holding, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		quantity int
		cost     float64
	}
	bySymbol := make(map[string]*acc)
	var order []string
	for _, e := range entries {
		a, ok := bySymbol[e.Symbol]
		if !ok {
			a = &acc{}
			bySymbol[e.Symbol] = a
			order = append(order, e.Symbol)
		}
		switch e.Side {
		case SideBuy:
			a.quantity += e.Quantity
			a.cost += e.Price * float64(e.Quantity)
		case SideSell:
			// Sells release cost basis at the average cost of the
			// remaining shares.
			if a.quantity > 0 {
				avg := a.cost / float64(a.quantity)
				a.cost -= avg * float64(e.Quantity)
			}
			a.quantity -= e.Quantity
		}
	}

	var holdings []Holding
	for _, symbol := range order {
		a := bySymbol[symbol]
		if a.quantity == 0 {
			continue
		}
		h := Holding{
			Symbol:    symbol,
			Quantity:  a.quantity,
			CostBasis: a.cost,
		}
		if a.quantity != 0 {
			h.AvgCost = a.cost / float64(a.quantity)
		}
		if price, ok := closes[symbol]; ok {
			h.CurrentPrice = price
			h.CurrentValue = price * float64(a.quantity)
			h.PnL = h.CurrentValue - h.CostBasis
			if h.CostBasis > 0 {
				h.PnLPercent = h.PnL / h.CostBasis * 100
			}
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

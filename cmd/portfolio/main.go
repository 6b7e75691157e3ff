// Command portfolio maintains the manual buy/sell ledger and values current
// holdings against the latest cached closes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tradelab/breakout-screener/internal/config"
	"github.com/tradelab/breakout-screener/internal/portfolio"
	"github.com/tradelab/breakout-screener/internal/store"
	"github.com/tradelab/breakout-screener/internal/util"
)

func main() {
	var (
		envFile  = flag.String("env", "", "Path to .env file")
		dbPath   = flag.String("db", "", "SQLite database path (default from env)")
		add      = flag.String("add", "", "Record a transaction: buy or sell")
		symbol   = flag.String("symbol", "", "Symbol for -add")
		price    = flag.Float64("price", 0, "Price for -add")
		quantity = flag.Int("qty", 0, "Quantity for -add")
		dateStr  = flag.String("date", "", "Date for -add, YYYY-MM-DD (default today)")
		note     = flag.String("note", "", "Optional note for -add")
		deleteID = flag.Int64("delete", 0, "Delete the entry with this ID")
		list     = flag.Bool("list", false, "List all ledger entries")
		holdings = flag.Bool("holdings", false, "Show net holdings valued at the latest cached close")
	)
	flag.Parse()

	env := config.LoadEnv(*envFile)
	logger := util.NewLogger(env.LogLevel)
	slog.SetDefault(logger)

	if *dbPath == "" {
		*dbPath = env.SQLitePath
	}
	if err := run(*dbPath, *add, *symbol, *price, *quantity, *dateStr, *note, *deleteID, *list, *holdings); err != nil {
		logger.Error("portfolio command failed", "error", err)
		os.Exit(1)
	}
}

func run(dbPath, add, symbol string, price float64, quantity int, dateStr, note string, deleteID int64, list, holdings bool) error {
	ctx := context.Background()

	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ledger, err := portfolio.NewLedger(db.DB())
	if err != nil {
		return err
	}

	switch {
	case add != "":
		return runAdd(ctx, ledger, add, symbol, price, quantity, dateStr, note)
	case deleteID > 0:
		return ledger.Delete(ctx, deleteID)
	case list:
		return runList(ctx, ledger)
	case holdings:
		return runHoldings(ctx, ledger, db)
	default:
		return fmt.Errorf("one of -add, -delete, -list, or -holdings is required")
	}
}

func runAdd(ctx context.Context, ledger *portfolio.Ledger, side, symbol string, price float64, quantity int, dateStr, note string) error {
	var entrySide portfolio.Side
	switch strings.ToLower(side) {
	case "buy":
		entrySide = portfolio.SideBuy
	case "sell":
		entrySide = portfolio.SideSell
	default:
		return fmt.Errorf("-add must be buy or sell, got %q", side)
	}
	if symbol == "" {
		return fmt.Errorf("-symbol is required with -add")
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if dateStr != "" {
		var err error
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("parsing -date: %w", err)
		}
	}

	id, err := ledger.Add(ctx, portfolio.Entry{
		Symbol:   strings.ToUpper(symbol),
		Side:     entrySide,
		Price:    price,
		Quantity: quantity,
		Date:     date,
		Note:     note,
	})
	if err != nil {
		return err
	}
	fmt.Printf("recorded entry %d\n", id)
	return nil
}

func runList(ctx context.Context, ledger *portfolio.Ledger) error {
	entries, err := ledger.List(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("LEDGER")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Date", "Symbol", "Side", "Price", "Qty", "Note"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ID,
			e.Date.Format("2006-01-02"),
			e.Symbol,
			string(e.Side),
			fmt.Sprintf("%.2f", e.Price),
			e.Quantity,
			e.Note,
		})
	}
	t.Render()
	return nil
}

func runHoldings(ctx context.Context, ledger *portfolio.Ledger, db *store.SQLiteStore) error {
	entries, err := ledger.List(ctx)
	if err != nil {
		return err
	}

	// Latest cached close per held symbol; symbols without cached bars are
	// reported unvalued.
	closes := make(map[string]float64)
	earliest := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range entries {
		if _, ok := closes[e.Symbol]; ok {
			continue
		}
		bars, err := db.LoadBars(ctx, e.Symbol, earliest, time.Now())
		if err != nil {
			return err
		}
		if len(bars) > 0 {
			closes[e.Symbol] = bars[len(bars)-1].Close
		}
	}

	positions, err := ledger.Holdings(ctx, closes)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("HOLDINGS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Qty", "Avg Cost", "Cost Basis", "Last Close", "Value", "PnL", "PnL %"})
	for _, h := range positions {
		t.AppendRow(table.Row{
			h.Symbol,
			h.Quantity,
			fmt.Sprintf("%.2f", h.AvgCost),
			fmt.Sprintf("%.2f", h.CostBasis),
			fmt.Sprintf("%.2f", h.CurrentPrice),
			fmt.Sprintf("%.2f", h.CurrentValue),
			fmt.Sprintf("%.2f", h.PnL),
			fmt.Sprintf("%.2f%%", h.PnLPercent),
		})
	}
	t.Render()
	return nil
}

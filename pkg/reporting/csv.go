package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tradelab/breakout-screener/internal/backtest"
)

// WriteTradesCSV writes closed trades to a CSV file.
func WriteTradesCSV(result *backtest.Result, path string) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"symbol", "entry_date", "entry_price", "exit_date", "exit_price", "sequence", "target_percent", "profit", "profit_percent", "holding_days"}); err != nil {
			return err
		}
		for _, tr := range result.Trades {
			record := []string{
				tr.Symbol,
				tr.EntryDate.Format("2006-01-02"),
				formatFloat(tr.EntryPrice),
				tr.ExitDate.Format("2006-01-02"),
				formatFloat(tr.ExitPrice),
				strconv.Itoa(tr.SequenceNumber),
				formatFloat(tr.TargetPercent),
				formatFloat(tr.Profit),
				formatFloat(tr.ProfitPercent),
				strconv.Itoa(tr.HoldingDays),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteLedgerCSV writes the daily ledger to a CSV file.
func WriteLedgerCSV(result *backtest.Result, path string) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"date", "cash", "invested", "equity", "day_profit"}); err != nil {
			return err
		}
		for _, entry := range result.Ledger {
			record := []string{
				entry.Date.Format("2006-01-02"),
				formatFloat(entry.Cash),
				formatFloat(entry.Invested),
				formatFloat(entry.Equity),
				formatFloat(entry.DayProfit),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, write func(*csv.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

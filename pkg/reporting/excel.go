package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/tradelab/breakout-screener/internal/backtest"
)

// ExcelReporter writes a backtest result to an .xlsx workbook with Summary,
// Trades, and Daily Ledger sheets.
type ExcelReporter struct{}

// NewExcelReporter creates an Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

const (
	summarySheet = "Summary"
	tradesSheet  = "Trades"
	ledgerSheet  = "Daily Ledger"
)

// Write saves the workbook at path, creating parent directories as needed.
func (r *ExcelReporter) Write(result *backtest.Result, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(ledgerSheet); err != nil {
		return err
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := r.writeSummary(fx, result, headerStyle); err != nil {
		return err
	}
	if err := r.writeTrades(fx, result, headerStyle); err != nil {
		return err
	}
	if err := r.writeLedger(fx, result, headerStyle); err != nil {
		return err
	}
	return fx.SaveAs(path)
}

func (r *ExcelReporter) writeSummary(fx *excelize.File, result *backtest.Result, headerStyle int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Symbol", result.Symbol},
		{"Start Date", result.StartDate.Format("2006-01-02")},
		{"End Date", result.EndDate.Format("2006-01-02")},
		{"Initial Capital", result.InitialCapital},
		{"Final Capital", result.FinalCapital},
		{"Total Profit", result.TotalProfit},
		{"Realized Profit", result.RealizedProfit},
		{"Unrealized Profit", result.UnrealizedProfit},
		{"Blocked Capital", result.BlockedCapital},
		{"Total Trades", result.TotalTrades},
		{"Winning Trades", result.WinningTrades},
		{"Losing Trades", result.LosingTrades},
		{"Win Rate %", result.WinRate},
		{"CAGR %", result.CAGR},
		{"Max Drawdown %", result.MaxDrawdown},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
}

func (r *ExcelReporter) writeTrades(fx *excelize.File, result *backtest.Result, headerStyle int) error {
	header := []interface{}{"Entry Date", "Entry Price", "Exit Date", "Exit Price", "Sequence", "Target %", "Profit", "Profit %", "Holding Days"}
	if err := fx.SetSheetRow(tradesSheet, "A1", &header); err != nil {
		return err
	}
	for i, tr := range result.Trades {
		row := []interface{}{
			tr.EntryDate.Format("2006-01-02"),
			tr.EntryPrice,
			tr.ExitDate.Format("2006-01-02"),
			tr.ExitPrice,
			tr.SequenceNumber,
			tr.TargetPercent,
			tr.Profit,
			tr.ProfitPercent,
			tr.HoldingDays,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(tradesSheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(tradesSheet, "A1", "I1", headerStyle)
}

func (r *ExcelReporter) writeLedger(fx *excelize.File, result *backtest.Result, headerStyle int) error {
	header := []interface{}{"Date", "Cash", "Invested", "Equity", "Day Profit", "Activities"}
	if err := fx.SetSheetRow(ledgerSheet, "A1", &header); err != nil {
		return err
	}
	for i, entry := range result.Ledger {
		activities := ""
		for j, a := range entry.Activities {
			if j > 0 {
				activities += "; "
			}
			activities += fmt.Sprintf("%s %d @ %.2f", a.Kind, a.Quantity, a.Price)
		}
		row := []interface{}{
			entry.Date.Format("2006-01-02"),
			entry.Cash,
			entry.Invested,
			entry.Equity,
			entry.DayProfit,
			activities,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(ledgerSheet, cell, &row); err != nil {
			return err
		}
	}
	return fx.SetCellStyle(ledgerSheet, "A1", "F1", headerStyle)
}

package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// CSVColumns defines the column layout of a bar CSV file.
type CSVColumns struct {
	Date       int
	Open       int
	High       int
	Low        int
	Close      int
	Volume     int
	MinColumns int
	DateFormat string
}

// DefaultCSVColumns matches "date,open,high,low,close,volume" exports.
var DefaultCSVColumns = CSVColumns{
	Date:       0,
	Open:       1,
	High:       2,
	Low:        3,
	Close:      4,
	Volume:     5,
	MinColumns: 6,
	DateFormat: "2006-01-02",
}

// LoadCSVBars reads daily bars for one symbol from a CSV file with a header
// row. Rows with unparsable or non-positive prices are rejected, keeping
// the series safe for the engine's arithmetic.
func LoadCSVBars(symbol, path string, cols CSVColumns) ([]types.DailyBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	var bars []types.DailyBar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s line %d: %w", path, line+1, err)
		}
		line++

		if len(record) < cols.MinColumns {
			return nil, fmt.Errorf("%s line %d: expected %d columns, got %d", path, line, cols.MinColumns, len(record))
		}
		date, err := time.Parse(cols.DateFormat, record[cols.Date])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", path, line, record[cols.Date], err)
		}
		open, err := parsePrice(record[cols.Open])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: open: %w", path, line, err)
		}
		high, err := parsePrice(record[cols.High])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: high: %w", path, line, err)
		}
		low, err := parsePrice(record[cols.Low])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: low: %w", path, line, err)
		}
		closePrice, err := parsePrice(record[cols.Close])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: close: %w", path, line, err)
		}
		volume, err := strconv.ParseFloat(record[cols.Volume], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad volume %q", path, line, record[cols.Volume])
		}

		bars = append(bars, types.DailyBar{
			Symbol: symbol,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}
	return bars, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad price %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive price %v", v)
	}
	return v, nil
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/tradelab/breakout-screener/pkg/types"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using Parquet files on disk, one file
// per symbol and year:
//
//	<DataDir>/daily/<SYMBOL>/<YYYY>.parquet
//
// It suits bulk archived history; the SQLite store is the working cache.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// barRecord is the on-disk Parquet schema for daily bars.
type barRecord struct {
	Symbol string  `parquet:"symbol"`
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume float64 `parquet:"volume"`
}

func (s *ParquetStore) symbolDir(symbol string) string {
	return filepath.Join(s.DataDir, "daily", strings.ToUpper(symbol))
}

func (s *ParquetStore) yearFile(symbol string, year int) string {
	return filepath.Join(s.symbolDir(symbol), fmt.Sprintf("%04d.parquet", year))
}

// SaveBars writes bars grouped by symbol and year. Existing bars for the
// same (symbol, date) are replaced by merging with the file's current rows.
func (s *ParquetStore) SaveBars(_ context.Context, bars []types.DailyBar) error {
	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]types.DailyBar)
	for _, b := range bars {
		k := key{symbol: strings.ToUpper(b.Symbol), year: b.Date.Year()}
		groups[k] = append(groups[k], b)
	}

	for k, group := range groups {
		path := s.yearFile(k.symbol, k.year)
		merged := make(map[string]types.DailyBar)
		if existing, err := parquet.ReadFile[barRecord](path); err == nil {
			for _, rec := range existing {
				b := rec.toBar()
				merged[b.Date.Format(dateLayout)] = b
			}
		}
		for _, b := range group {
			merged[b.Date.Format(dateLayout)] = b
		}

		records := make([]barRecord, 0, len(merged))
		for _, b := range merged {
			records = append(records, toRecord(b))
		}
		sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := parquet.WriteFile(path, records); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// LoadBars reads every year file spanned by [start, end] and returns the
// bars in range, date ascending.
func (s *ParquetStore) LoadBars(_ context.Context, symbol string, start, end time.Time) ([]types.DailyBar, error) {
	var bars []types.DailyBar
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.yearFile(symbol, year)
		records, err := parquet.ReadFile[barRecord](path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, rec := range records {
			b := rec.toBar()
			if b.Date.Before(start) || b.Date.After(end) {
				continue
			}
			bars = append(bars, b)
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// Symbols lists the symbol directories under the store root.
func (s *ParquetStore) Symbols(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "daily"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// LastDate returns the latest bar date across the symbol's year files.
func (s *ParquetStore) LastDate(ctx context.Context, symbol string) (time.Time, error) {
	entries, err := os.ReadDir(s.symbolDir(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	if len(entries) == 0 {
		return time.Time{}, nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() > entries[j].Name() })

	records, err := parquet.ReadFile[barRecord](filepath.Join(s.symbolDir(symbol), entries[0].Name()))
	if err != nil {
		return time.Time{}, err
	}
	var last time.Time
	for _, rec := range records {
		if d := rec.toBar().Date; d.After(last) {
			last = d
		}
	}
	return last, nil
}

func toRecord(b types.DailyBar) barRecord {
	return barRecord{
		Symbol: strings.ToUpper(b.Symbol),
		Date:   b.Date.UTC().UnixMilli(),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: b.Volume,
	}
}

func (r barRecord) toBar() types.DailyBar {
	return types.DailyBar{
		Symbol: r.Symbol,
		Date:   time.UnixMilli(r.Date).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

// Package scanner fans a symbol universe out across a bounded worker pool,
// running the analyzer and the backtest engine per symbol. Each symbol's
// computation is pure and isolated, so no locking is needed beyond the job
// and result channels.
package scanner

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/tradelab/breakout-screener/internal/analyzer"
	"github.com/tradelab/breakout-screener/internal/backtest"
	"github.com/tradelab/breakout-screener/pkg/types"
)

// Job is one symbol's input: its full gap-filled, date-ascending history.
type Job struct {
	Symbol string
	Bars   []types.DailyBar
}

// SymbolResult carries the per-symbol outputs. Skipped is set when the
// symbol had fewer bars than the analyzer/engine minimum; Err is reserved
// for genuine failures.
type SymbolResult struct {
	Symbol   string
	Analysis *types.Analysis
	Backtest *backtest.Result
	Skipped  bool
	Duration time.Duration
	Err      error
}

// Scanner owns a worker pool configuration and the engine shared by all
// workers. The engine is read-only during a scan, so sharing it is safe.
type Scanner struct {
	engine  *backtest.Engine
	workers int
}

// New creates a scanner running at most workers concurrent symbols.
// workers <= 0 means runtime.NumCPU().
func New(engine *backtest.Engine, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{engine: engine, workers: workers}
}

// Run processes all jobs and returns one result per job, in completion
// order. Cancelling the context stops feeding new jobs; in-flight symbols
// finish since a single run is bounded and fast.
func (s *Scanner) Run(ctx context.Context, jobs []Job) []SymbolResult {
	jobCh := make(chan Job)
	resultCh := make(chan SymbolResult, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				resultCh <- s.process(job)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]SymbolResult, 0, len(jobs))
	for r := range resultCh {
		results = append(results, r)
	}
	return results
}

func (s *Scanner) process(job Job) SymbolResult {
	start := time.Now()
	result := SymbolResult{Symbol: job.Symbol}

	analysis, err := analyzer.Analyze(job.Symbol, job.Bars)
	if err != nil {
		// Too little history is expected for young listings; report the
		// symbol as skipped instead of failing the scan.
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}
	result.Analysis = analysis

	bt, err := s.engine.Run(job.Symbol, job.Bars)
	if err != nil {
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}
	result.Backtest = bt
	result.Duration = time.Since(start)
	return result
}

// Progress tracks completion across a long scan for periodic logging.
type Progress struct {
	total     int
	completed int
	startTime time.Time
	mu        sync.RWMutex
}

// NewProgress creates a tracker for total jobs.
func NewProgress(total int) *Progress {
	return &Progress{total: total, startTime: time.Now()}
}

// Increment records one completed job.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
}

// Snapshot returns completed count, total, percent done, and elapsed time.
func (p *Progress) Snapshot() (completed, total int, percent float64, elapsed time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	percent = 0
	if p.total > 0 {
		percent = float64(p.completed) / float64(p.total) * 100
	}
	return p.completed, p.total, percent, time.Since(p.startTime)
}

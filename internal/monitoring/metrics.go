// Package monitoring exposes Prometheus metrics and a health endpoint for
// long-running scan processes.
package monitoring

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_backtests_total",
			Help: "Backtests completed, by outcome",
		},
		[]string{"outcome"}, // completed | skipped
	)

	simulatedTrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_simulated_trades_total",
			Help: "Closed trades produced across all backtests",
		},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screener_symbol_scan_seconds",
			Help:    "Per-symbol analyze+backtest duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	fetchedBars = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_fetched_bars_total",
			Help: "Daily bars fetched from the market-data provider",
		},
		[]string{"symbol"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_errors_total",
			Help: "Errors by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(backtestsTotal)
	prometheus.MustRegister(simulatedTrades)
	prometheus.MustRegister(scanDuration)
	prometheus.MustRegister(fetchedBars)
	prometheus.MustRegister(errorsTotal)
}

// RecordBacktest records one finished per-symbol run.
func RecordBacktest(skipped bool, trades int, seconds float64) {
	outcome := "completed"
	if skipped {
		outcome = "skipped"
	}
	backtestsTotal.WithLabelValues(outcome).Inc()
	simulatedTrades.Add(float64(trades))
	scanDuration.Observe(seconds)
}

// RecordFetchedBars counts bars stored for a symbol.
func RecordFetchedBars(symbol string, count int) {
	fetchedBars.WithLabelValues(symbol).Add(float64(count))
}

// RecordError counts an error by type.
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

// Serve starts the metrics endpoint on the given port. It blocks, so run it
// in a goroutine.
func Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

package monitoring

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports liveness for a scan process.
type HealthChecker struct {
	mu       sync.RWMutex
	lastScan time.Time
	errors   []string
}

// HealthStatus is the JSON payload served at /health.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastScan  time.Time `json:"last_scan"`
	Uptime    string    `json:"uptime"`
	Errors    []string  `json:"errors,omitempty"`
}

// NewHealthChecker creates an empty health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// MarkScan records a completed scan pass.
func (h *HealthChecker) MarkScan() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastScan = time.Now()
}

// RecordError appends an error message, keeping the most recent few.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	status := "healthy"
	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	json.NewEncoder(w).Encode(HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		LastScan:  h.lastScan,
		Uptime:    time.Since(startTime).String(),
		Errors:    h.errors,
	})
}

// ServeHealth starts the health endpoint on the given port. It blocks.
func ServeHealth(port int, checker *HealthChecker) error {
	mux := http.NewServeMux()
	mux.Handle("/health", checker)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

package fetch

import (
	"context"
	"sync"
	"time"
)

// throttle is a token bucket guarding market-data API calls. Alpaca's free
// tier allows 200 requests per minute; the defaults stay under that.
type throttle struct {
	capacity   int
	tokens     int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newThrottle(capacity, refillRate int) *throttle {
	return &throttle{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// wait blocks until one request is allowed or the context is cancelled.
func (t *throttle) wait(ctx context.Context) error {
	for {
		if t.allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.nextToken()):
		}
	}
}

func (t *throttle) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refill()
	if t.tokens > 0 {
		t.tokens--
		return true
	}
	return false
}

// nextToken estimates how long until a token becomes available.
func (t *throttle) nextToken() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refill()
	if t.tokens > 0 {
		return 0
	}
	return time.Second/time.Duration(t.refillRate) + 50*time.Millisecond
}

func (t *throttle) refill() {
	now := time.Now()
	elapsed := now.Sub(t.lastRefill)
	if elapsed < time.Second {
		return
	}
	t.tokens += int(elapsed.Seconds()) * t.refillRate
	if t.tokens > t.capacity {
		t.tokens = t.capacity
	}
	t.lastRefill = now
}

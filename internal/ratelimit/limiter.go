package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"poma/internal/store/ephemeral"
)

var incrementsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "poma_ratelimit_increments_total",
	Help: "Total rate limit counter increments",
})

const rateKeyPrefix = "mcp:rate:"

// DefaultWindow applies when a caller passes a non-positive window.
const DefaultWindow = 60 * time.Second

// Limiter maintains per-key request counters on the ephemeral store.
//
// These are refreshing-window counters, not fixed or sliding windows: every
// increment resets the key's expiry to the full window, so a counter only
// returns to zero after an inactivity gap longer than the window. A key is
// therefore in one of two states: absent (reads as 0), or active with a
// deadline that each hit pushes forward. Callers relying on periodic resets
// under sustained traffic will not get them.
type Limiter struct {
	store ephemeral.Store
}

// NewLimiter builds a limiter on the given store.
func NewLimiter(store ephemeral.Store) *Limiter {
	return &Limiter{store: store}
}

// Increment bumps the counter for key and resets its expiry to window, as a
// single atomic unit. Returns the post-increment count.
func (l *Limiter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	count, err := l.store.IncrExpire(ctx, rateKeyPrefix+key, window)
	if err != nil {
		return 0, fmt.Errorf("increment rate limit %q: %w", key, err)
	}
	incrementsTotal.Inc()
	return count, nil
}

// Get reads the current count for key. A key that was never incremented, or
// whose window has lapsed, reads as 0.
func (l *Limiter) Get(ctx context.Context, key string) (int64, error) {
	count, err := l.store.GetInt64(ctx, rateKeyPrefix+key)
	if err != nil {
		return 0, fmt.Errorf("get rate limit %q: %w", key, err)
	}
	return count, nil
}

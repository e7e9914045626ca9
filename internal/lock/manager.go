package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"poma/internal/store/ephemeral"
)

var (
	acquireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poma_lock_acquire_total",
		Help: "Lock acquire attempts by outcome (acquired, contended)",
	}, []string{"outcome"})

	releaseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poma_lock_release_total",
		Help: "Lock release attempts by outcome (released, missed)",
	}, []string{"outcome"})
)

const lockKeyPrefix = "mcp:locks:"

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = 30 * time.Second

// Manager provides distributed mutual exclusion on the ephemeral store.
// A lock is a marker key with a TTL; mutual exclusion holds as long as the
// store's conditional set is atomic across concurrent callers. Acquire never
// blocks or retries: contention is a normal false return, and store failures
// propagate verbatim.
type Manager struct {
	store ephemeral.Store
}

// NewManager builds a lock manager on the given store.
func NewManager(store ephemeral.Store) *Manager {
	return &Manager{store: store}
}

// Acquire attempts to take the lock for resource with the given TTL, in a
// single non-waiting attempt. On success it returns an opaque holder token
// and true; the token authorizes an ownership-checked Release. A held lock
// yields ("", false, nil).
func (m *Manager) Acquire(ctx context.Context, resource string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token := uuid.NewString()
	ok, err := m.store.SetNX(ctx, lockKeyPrefix+resource, token, ttl)
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %q: %w", resource, err)
	}
	if !ok {
		acquireTotal.WithLabelValues("contended").Inc()
		return "", false, nil
	}
	acquireTotal.WithLabelValues("acquired").Inc()
	return token, true, nil
}

// Release drops the lock for resource and reports whether a live lock was
// actually removed.
//
// With a non-empty token the delete is ownership-checked: it only succeeds
// when the stored marker still equals the token, so a caller can never drop
// a lock it does not hold (or one that expired and was re-acquired).
// With an empty token the delete is unconditional, preserving the legacy
// any-caller-can-release behavior for callers that never kept a token.
func (m *Manager) Release(ctx context.Context, resource, token string) (bool, error) {
	var (
		ok  bool
		err error
	)
	if token != "" {
		ok, err = m.store.DelIfEqual(ctx, lockKeyPrefix+resource, token)
	} else {
		ok, err = m.store.Del(ctx, lockKeyPrefix+resource)
	}
	if err != nil {
		return false, fmt.Errorf("release lock %q: %w", resource, err)
	}
	if ok {
		releaseTotal.WithLabelValues("released").Inc()
	} else {
		releaseTotal.WithLabelValues("missed").Inc()
	}
	return ok, nil
}

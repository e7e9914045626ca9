package ephemeral

import (
	"context"
	"time"
)

// Entry is a single record read back from a topic log. ID is the store's
// append identifier; entries within one topic are strictly ordered by it.
type Entry struct {
	ID   string
	Data []byte
}

// Store is the keyed coordination store. Every method maps to a single
// atomic command (or pipelined atomic unit) in the backing implementation;
// correctness of the callers depends on that atomicity under concurrency.
//
// Keyed values may expire. Topic logs are append-only and strictly ordered.
type Store interface {
	// SetNX writes value under key only if the key is absent, with the given
	// TTL. Returns true iff this call performed the write.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Del removes key unconditionally. Returns true iff a key was deleted.
	Del(ctx context.Context, key string) (bool, error)

	// DelIfEqual removes key only if its current value equals value.
	// Returns true iff a key was deleted.
	DelIfEqual(ctx context.Context, key, value string) (bool, error)

	// IncrExpire increments the integer counter under key and resets its TTL
	// to ttl, as one atomic unit. Returns the post-increment count.
	IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// GetInt64 reads the counter under key. A missing key reads as 0.
	GetInt64(ctx context.Context, key string) (int64, error)

	// Append adds data to the named topic log and returns the entry ID.
	Append(ctx context.Context, topic string, data []byte) (string, error)

	// Range reads up to limit entries from the topic log in append order.
	// limit <= 0 reads the whole topic.
	Range(ctx context.Context, topic string, limit int64) ([]Entry, error)

	// Health reports whether the store is reachable.
	Health(ctx context.Context) error
}

package ephemeral

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryStore implements Store with process-local state. It exists for unit
// tests; production deployments use RedisStore. TTLs are honored against the
// wall clock, checked lazily on access.
type MemoryStore struct {
	mu     sync.Mutex
	keys   map[string]memoryValue
	topics map[string][]Entry
	seq    uint64
}

type memoryValue struct {
	value     string
	count     int64
	expiresAt time.Time
}

func (v memoryValue) expired(now time.Time) bool {
	return !v.expiresAt.IsZero() && now.After(v.expiresAt)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:   make(map[string]memoryValue),
		topics: make(map[string][]Entry),
	}
}

func (s *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if v, ok := s.keys[key]; ok && !v.expired(now) {
		return false, nil
	}
	s.keys[key] = memoryValue{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Del(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.keys[key]
	delete(s.keys, key)
	return ok && !v.expired(time.Now()), nil
}

func (s *MemoryStore) DelIfEqual(_ context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.keys[key]
	if !ok || v.expired(time.Now()) || v.value != value {
		return false, nil
	}
	delete(s.keys, key)
	return true, nil
}

func (s *MemoryStore) IncrExpire(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	v, ok := s.keys[key]
	if !ok || v.expired(now) {
		v = memoryValue{}
	}
	v.count++
	v.value = strconv.FormatInt(v.count, 10)
	v.expiresAt = now.Add(ttl)
	s.keys[key] = v
	return v.count, nil
}

func (s *MemoryStore) GetInt64(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.keys[key]
	if !ok || v.expired(time.Now()) {
		return 0, nil
	}
	return v.count, nil
}

func (s *MemoryStore) Append(_ context.Context, topic string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	// Mimic stream entry ID shape so callers see comparable identifiers.
	id := fmt.Sprintf("%d-0", s.seq)
	s.topics[topic] = append(s.topics[topic], Entry{ID: id, Data: append([]byte(nil), data...)})
	return id, nil
}

func (s *MemoryStore) Range(_ context.Context, topic string, limit int64) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.topics[topic]
	if limit > 0 && int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return append([]Entry(nil), entries...), nil
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}

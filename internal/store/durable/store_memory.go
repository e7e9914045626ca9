package durable

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements Store with process-local maps, for unit tests.
type MemoryStore struct {
	mu    sync.RWMutex
	keyed map[string]map[string]Document
	all   map[string][]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keyed: make(map[string]map[string]Document),
		all:   make(map[string][]Document),
	}
}

func (s *MemoryStore) Insert(_ context.Context, collection, key string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		byKey := s.keyed[collection]
		if byKey == nil {
			byKey = make(map[string]Document)
			s.keyed[collection] = byKey
		}
		if _, exists := byKey[key]; exists {
			return fmt.Errorf("insert into %s: %w", collection, ErrDuplicate)
		}
		byKey[key] = cloneDocument(doc)
	}
	s.all[collection] = append(s.all[collection], cloneDocument(doc))
	return nil
}

func (s *MemoryStore) FindOne(_ context.Context, collection, key string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.keyed[collection][key]
	if !ok {
		return nil, fmt.Errorf("find in %s: %w", collection, ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Merge(_ context.Context, collection, key string, patch Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.keyed[collection][key]
	if !ok {
		return fmt.Errorf("merge in %s: %w", collection, ErrNotFound)
	}
	for k, v := range patch {
		doc[k] = v
	}
	return nil
}

// List returns every document inserted into a collection, in insert order.
// Test helper; not part of the Store interface.
func (s *MemoryStore) List(collection string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.all[collection]))
	for _, doc := range s.all[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	return docs
}

func (s *MemoryStore) Health(context.Context) error {
	return nil
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

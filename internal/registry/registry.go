// Package registry manages module registry entries in the durable store.
// Entries are plain documents keyed by module name; this package adds only
// timestamp stamping on top of the store's insert/find/merge semantics.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"poma/internal/store/durable"
)

const collection = "module_registry"

// Entry describes a registered module. ModuleName, Version and Status are
// required; everything else is optional. Extra carries fields beyond the
// declared schema.
type Entry struct {
	ModuleName         string
	Emoji              string
	Version            string
	Status             string
	Scope              string
	Description        string
	Outputs            string
	Dependencies       []string
	Owner              string
	InvocationExamples []string
	Procedures         []map[string]any
	Extra              map[string]any
}

func (e Entry) document(now time.Time) durable.Document {
	doc := make(durable.Document, len(e.Extra)+12)
	for k, v := range e.Extra {
		doc[k] = v
	}
	doc["module_name"] = e.ModuleName
	doc["version"] = e.Version
	doc["status"] = e.Status
	if e.Emoji != "" {
		doc["emoji"] = e.Emoji
	}
	if e.Scope != "" {
		doc["scope"] = e.Scope
	}
	if e.Description != "" {
		doc["description"] = e.Description
	}
	if e.Outputs != "" {
		doc["outputs"] = e.Outputs
	}
	if len(e.Dependencies) > 0 {
		doc["dependencies"] = e.Dependencies
	}
	if e.Owner != "" {
		doc["owner"] = e.Owner
	}
	if len(e.InvocationExamples) > 0 {
		doc["invocation_examples"] = e.InvocationExamples
	}
	if len(e.Procedures) > 0 {
		doc["procedures"] = e.Procedures
	}
	ts := now.Format(time.RFC3339Nano)
	doc["created_at"] = ts
	doc["updated_at"] = ts
	return doc
}

// Service exposes registry entry CRUD over the durable store.
type Service struct {
	store  durable.Store
	logger *slog.Logger
}

// New constructs a registry service.
func New(store durable.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Add inserts a new entry, stamping created_at and updated_at. A second
// entry for the same module name fails with durable.ErrDuplicate.
func (s *Service) Add(ctx context.Context, entry Entry) error {
	if err := s.store.Insert(ctx, collection, entry.ModuleName, entry.document(time.Now().UTC())); err != nil {
		return fmt.Errorf("add registry entry %q: %w", entry.ModuleName, err)
	}
	s.logger.InfoContext(ctx, "registry entry added", "module_name", entry.ModuleName, "version", entry.Version)
	return nil
}

// Update merges patch into an existing entry and restamps updated_at.
// Returns durable.ErrNotFound when the module is not registered.
func (s *Service) Update(ctx context.Context, moduleName string, patch durable.Document) error {
	merged := make(durable.Document, len(patch)+1)
	for k, v := range patch {
		merged[k] = v
	}
	merged["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.store.Merge(ctx, collection, moduleName, merged); err != nil {
		return fmt.Errorf("update registry entry %q: %w", moduleName, err)
	}
	return nil
}

// Get fetches an entry by module name.
func (s *Service) Get(ctx context.Context, moduleName string) (durable.Document, error) {
	doc, err := s.store.FindOne(ctx, collection, moduleName)
	if err != nil {
		return nil, fmt.Errorf("get registry entry %q: %w", moduleName, err)
	}
	return doc, nil
}

package durable

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a keyed lookup or merge matches nothing.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert collides on (collection, key).
	ErrDuplicate = errors.New("document already exists")
)

// Document is a schemaless JSON object as stored.
type Document map[string]any

// Store is the durable document store. Collections are flat namespaces.
// Keyed documents (non-empty key) are unique per collection and support
// merge updates; keyless inserts (empty key) form unordered archives, used
// by the event mirror and the archive endpoints.
type Store interface {
	Insert(ctx context.Context, collection, key string, doc Document) error
	FindOne(ctx context.Context, collection, key string) (Document, error)
	// Merge applies patch on top of the stored document (shallow merge,
	// patch fields win). Returns ErrNotFound when no document matches.
	Merge(ctx context.Context, collection, key string, patch Document) error
	Health(ctx context.Context) error
}

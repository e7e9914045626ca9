package durable

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore implements Store on a single JSONB documents table. One
// table rather than a table per collection keeps the schema closed while
// collections stay free-form.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table and its indexes if missing.
// Keyed documents are unique per (collection, doc_key); keyless inserts
// (doc_key = '') are exempt via the partial index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			collection TEXT NOT NULL,
			doc_key TEXT NOT NULL DEFAULT '',
			doc JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS documents_collection_key
			ON documents (collection, doc_key) WHERE doc_key <> ''`,
		`CREATE INDEX IF NOT EXISTS documents_collection
			ON documents (collection)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure documents schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, collection, key string, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := `INSERT INTO documents (id, collection, doc_key, doc) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, uuid.New(), collection, key, payload); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert into %s: %w", collection, ErrDuplicate)
		}
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) FindOne(ctx context.Context, collection, key string) (Document, error) {
	query := `SELECT doc FROM documents WHERE collection = $1 AND doc_key = $2`
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, collection, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find in %s: %w", collection, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}

	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Merge(ctx context.Context, collection, key string, patch Document) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	query := `UPDATE documents SET doc = doc || $3::jsonb WHERE collection = $1 AND doc_key = $2`
	res, err := s.db.ExecContext(ctx, query, collection, key, payload)
	if err != nil {
		return fmt.Errorf("merge in %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("merge in %s: %w", collection, err)
	}
	if n == 0 {
		return fmt.Errorf("merge in %s: %w", collection, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

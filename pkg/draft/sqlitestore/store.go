// Package sqlitestore persists drafts in a local SQLite database using the
// pure-Go modernc.org/sqlite driver. Record payloads are stored as compressed
// JSON blobs, one row per key.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formdraft/internal/compression"
	"github.com/goliatone/go-formdraft/pkg/draft"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS drafts (
    key TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    payload BLOB NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// Store is a draft.Store backed by SQLite.
type Store struct {
	mu         sync.RWMutex
	db         *sql.DB
	compressor compression.Compressor
	closed     bool
}

var (
	_ draft.Store  = (*Store)(nil)
	_ draft.Lister = (*Store)(nil)
)

// Option configures the store.
type Option func(*Store)

// WithoutCompression stores payloads as plain JSON.
func WithoutCompression() Option {
	return func(s *Store) {
		s.compressor = compression.None{}
	}
}

// WithCompressor overrides the payload codec.
func WithCompressor(c compression.Compressor) Option {
	return func(s *Store) {
		if c != nil {
			s.compressor = c
		}
	}
}

// Open opens (or creates) the database at path and ensures the drafts table
// exists. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlitestore: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}

	return New(db, options...), nil
}

// New wraps an existing database handle. The drafts table must already exist.
func New(db *sql.DB, options ...Option) *Store {
	s := &Store{
		db:         db,
		compressor: compression.Zstd{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetItem loads the record stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (draft.Draft, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return draft.Draft{}, false, draft.ErrStoreClosed
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return draft.Draft{}, false, nil
	}
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("sqlitestore: get %q: %w", key, err)
	}

	raw, err := s.compressor.Decompress(payload)
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("sqlitestore: decompress %q: %w", key, err)
	}
	d, err := draft.Decode(raw)
	if err != nil {
		return draft.Draft{}, false, fmt.Errorf("sqlitestore: %q: %w", key, err)
	}
	return d, true, nil
}

// SetItem writes d under key, replacing any previous row.
func (s *Store) SetItem(ctx context.Context, key string, d draft.Draft) error {
	if err := draft.ValidateKey(key); err != nil {
		return err
	}
	raw, err := draft.Encode(d)
	if err != nil {
		return err
	}
	payload, err := s.compressor.Compress(raw)
	if err != nil {
		return fmt.Errorf("sqlitestore: compress %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return draft.ErrStoreClosed
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO drafts (key, timestamp, payload, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET
    timestamp = excluded.timestamp,
    payload = excluded.payload,
    updated_at = excluded.updated_at`, key, d.Timestamp, payload)
	if err != nil {
		return fmt.Errorf("sqlitestore: set %q: %w", key, err)
	}
	return nil
}

// RemoveItem deletes the row for key, if any.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return draft.ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: remove %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, draft.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM drafts ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: rows iteration: %w", err)
	}
	return keys, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

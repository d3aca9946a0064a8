// Package lexicon provides the linguistic lookups used when scoring
// sonnet-writing runs: a permissive syllable-count heuristic and a
// file-backed memo cache shared across runs.
//
// The cache holds results of lookups that are expensive or want stability
// across processes. Entries are write-once: a key's first value wins and
// later writes are ignored, so concurrent runs can share one cache file
// without coordination beyond SQLite's own locking.
package lexicon

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Store is an append-only key/value memo cache backed by SQLite.
// Reads may run concurrently; writes are serialized.
type Store struct {
	db *sql.DB

	mu sync.Mutex // serializes writes
}

// Open opens (creating if needed) a cache database at path.
// Use ":memory:" for an ephemeral cache.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize lexicon cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached value for key, with ok reporting whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM lookups WHERE key = ?`, key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("lexicon cache read: %w", err)
	default:
		return value, true, nil
	}
}

// Put records value for key. If the key already exists the existing value is
// kept; the cache never rewrites history.
func (s *Store) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT OR IGNORE INTO lookups (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("lexicon cache write: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

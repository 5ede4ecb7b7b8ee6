package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/hitcapsule/internal/match"
)

// SQLite persists query results in the query_cache table so that repeated
// resolutions of the same chart reuse earlier search traffic.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open database handle. The query_cache table must exist
// (see the shared migrations).
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Get returns the cached candidates for key, deserialized from the stored
// JSON payload. A row holding an empty candidate list is still a hit.
func (s *SQLite) Get(key string) ([]match.Candidate, bool) {
	var payload string
	err := s.db.QueryRow(`SELECT candidates FROM query_cache WHERE query_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	var candidates []match.Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, false
	}

	return candidates, true
}

// Put stores candidates under key. Existing rows are kept (first write wins),
// matching the in-memory cache semantics.
func (s *SQLite) Put(key string, candidates []match.Candidate) error {
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to serialize candidates for %q: %w", key, err)
	}

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO query_cache (query_key, candidates) VALUES (?, ?)`,
		key, string(payload),
	); err != nil {
		return fmt.Errorf("failed to cache query %q: %w", key, err)
	}

	return nil
}

// Stats reports the number of cached queries and total candidates.
func (s *SQLite) Stats() (queries int, candidates int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM query_cache`).Scan(&queries); err != nil {
		return 0, 0, fmt.Errorf("failed to count cached queries: %w", err)
	}

	rows, err := s.db.Query(`SELECT candidates FROM query_cache`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cached queries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return 0, 0, err
		}
		var parsed []match.Candidate
		if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
			continue
		}
		candidates += len(parsed)
	}

	return queries, candidates, rows.Err()
}

// Clear removes every cached query and returns the number of rows deleted.
func (s *SQLite) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM query_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear query cache: %w", err)
	}
	return result.RowsAffected()
}

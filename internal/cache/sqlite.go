// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/resultlens/pkg/types"
)

// SQLite is a Cache persisted in a SQLite database file.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now Clock
}

// OpenSQLite opens or creates the cache database at path and creates the
// schema if it does not exist. ttl and now default as in NewMemory.
func OpenSQLite(path string, ttl time.Duration, now Clock) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if ttl <= 0 {
		ttl = types.DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	s := &SQLite{db: db, ttl: ttl, now: now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS result_sets (
			workspace_id INTEGER NOT NULL,
			content_id INTEGER NOT NULL,
			run_id INTEGER NOT NULL,
			stored_at INTEGER NOT NULL,
			results TEXT NOT NULL,
			PRIMARY KEY (workspace_id, content_id, run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_result_sets_stored_at ON result_sets(stored_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached results for key. Expired rows are purged first, so
// they are never returned.
func (s *SQLite) Get(ctx context.Context, key Key) ([]types.Result, bool, error) {
	cutoff := s.now().Add(-s.ttl).UnixNano()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM result_sets WHERE stored_at <= ?`, cutoff); err != nil {
		return nil, false, fmt.Errorf("purging expired entries: %w", err)
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT results FROM result_sets WHERE workspace_id = ? AND content_id = ? AND run_id = ?`,
		key.WorkspaceID, key.ContentID, key.RunID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	var results []types.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return results, true, nil
}

// Set stores results under key, replacing any previous entry.
func (s *SQLite) Set(ctx context.Context, key Key, results []types.Result) error {
	if results == nil {
		results = []types.Result{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO result_sets (workspace_id, content_id, run_id, stored_at, results)
		VALUES (?, ?, ?, ?, ?)`,
		key.WorkspaceID, key.ContentID, key.RunID, s.now().UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the entry for key.
func (s *SQLite) Invalidate(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM result_sets WHERE workspace_id = ? AND content_id = ? AND run_id = ?`,
		key.WorkspaceID, key.ContentID, key.RunID,
	)
	if err != nil {
		return fmt.Errorf("invalidating cache entry %s: %w", key, err)
	}
	return nil
}

// Clear drops every entry.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM result_sets`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

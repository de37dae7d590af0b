// Package cache persists post-processed pages in SQLite so repeated requests
// skip conversion. Entries are keyed by source file path and validated
// against the file's modification time.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docbrowse/internal/page"
)

// Store is a SQLite-backed render cache. The zero value is unusable; use Open.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the cache database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		path TEXT PRIMARY KEY,
		mtime INTEGER NOT NULL,
		html TEXT NOT NULL,
		title TEXT NOT NULL,
		toc BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the cached page for path if it was stored with the same mtime.
func (s *Store) Get(ctx context.Context, path string, mtime int64) (page.Result, bool) {
	if s == nil {
		return page.Result{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		storedMtime int64
		res         page.Result
		tocJSON     []byte
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT mtime, html, title, toc FROM pages WHERE path = ?`, path)
	if err := row.Scan(&storedMtime, &res.HTML, &res.Title, &tocJSON); err != nil {
		return page.Result{}, false
	}
	if storedMtime != mtime {
		return page.Result{}, false
	}
	if err := json.Unmarshal(tocJSON, &res.TOC); err != nil {
		return page.Result{}, false
	}
	return res, true
}

// Put stores or replaces the cached page for path.
func (s *Store) Put(ctx context.Context, path string, mtime int64, res page.Result) error {
	if s == nil {
		return nil
	}
	tocJSON, err := json.Marshal(res.TOC)
	if err != nil {
		return fmt.Errorf("marshal toc: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pages (path, mtime, html, title, toc) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, html = excluded.html,
		 title = excluded.title, toc = excluded.toc`,
		path, mtime, res.HTML, res.Title, tocJSON)
	if err != nil {
		return fmt.Errorf("store page: %w", err)
	}
	return nil
}

// Invalidate drops the entry for path, if any.
func (s *Store) Invalidate(ctx context.Context, path string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE path = ?`, path)
	return err
}

// Purge drops every cached page.
func (s *Store) Purge(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM pages`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return errors.New("cache store not open")
	}
	return s.db.Close()
}

package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"yonote/internal/utils"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	parent_id     TEXT NOT NULL DEFAULT '',
	collection_id TEXT NOT NULL DEFAULT '',
	child_ids     TEXT,
	fetched_at    TEXT NOT NULL,
	url           TEXT NOT NULL DEFAULT ''
);
`

// sqliteStore mirrors the entry table in memory and writes mutations through
// to a single SQLite database file. A database that cannot be opened degrades
// to an in-memory-only store with a warning, matching the JSON store's
// fail-soft policy.
type sqliteStore struct {
	mu      sync.RWMutex
	path    string
	db      *sql.DB
	entries map[string]Entry
}

func openSQLite(path string) (*sqliteStore, error) {
	s := &sqliteStore{
		path:    path,
		entries: make(map[string]Entry),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err == nil {
		_, err = db.Exec(sqliteSchema)
	}
	if err != nil {
		utils.Warnf("cache database %s unusable, continuing in memory: %v", path, err)
		if db != nil {
			_ = db.Close()
		}
		return s, nil
	}
	s.db = db

	rows, err := db.Query(`SELECT id, kind, title, parent_id, collection_id, child_ids, fetched_at, url FROM entries`)
	if err != nil {
		utils.Warnf("cache database %s unreadable, starting empty: %v", path, err)
		return s, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var entry Entry
		var kind, fetchedAt string
		var childIDs sql.NullString
		if err := rows.Scan(&entry.ID, &kind, &entry.Title, &entry.ParentID,
			&entry.CollectionID, &childIDs, &fetchedAt, &entry.URL); err != nil {
			utils.Warnf("cache row unreadable, skipping: %v", err)
			continue
		}
		entry.Kind = Kind(kind)
		if t, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
			entry.FetchedAt = t
		}
		if childIDs.Valid {
			var ids []string
			if err := json.Unmarshal([]byte(childIDs.String), &ids); err == nil {
				entry.Children = KnownChildren(ids)
			}
		}
		s.entries[entry.ID] = entry
	}
	return s, nil
}

func (s *sqliteStore) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

func (s *sqliteStore) Put(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry

	if s.db == nil {
		return
	}
	var childIDs interface{}
	if entry.Children.Known {
		data, err := json.Marshal(entry.Children.IDs)
		if err == nil {
			childIDs = string(data)
		}
	}
	_, err := s.db.Exec(`INSERT INTO entries (id, kind, title, parent_id, collection_id, child_ids, fetched_at, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			parent_id = excluded.parent_id,
			collection_id = excluded.collection_id,
			child_ids = excluded.child_ids,
			fetched_at = excluded.fetched_at,
			url = excluded.url`,
		entry.ID, string(entry.Kind), entry.Title, entry.ParentID,
		entry.CollectionID, childIDs, entry.FetchedAt.Format(time.RFC3339Nano), entry.URL)
	if err != nil {
		utils.Warnf("cache write failed, continuing in memory: %v", err)
		_ = s.db.Close()
		s.db = nil
	}
}

func (s *sqliteStore) InvalidateSubtree(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return
	}
	entry.Children = ChildList{}
	s.entries[id] = entry

	if s.db == nil {
		return
	}
	if _, err := s.db.Exec(`UPDATE entries SET child_ids = NULL WHERE id = ?`, id); err != nil {
		utils.Warnf("cache write failed, continuing in memory: %v", err)
		_ = s.db.Close()
		s.db = nil
	}
}

func (s *sqliteStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats Stats
	for _, entry := range s.entries {
		switch entry.Kind {
		case KindCollection:
			stats.Collections++
		case KindDocument:
			stats.Documents++
		}
	}
	return stats
}

// Flush is a no-op for the write-through SQLite store.
func (s *sqliteStore) Flush() error {
	return nil
}

func (s *sqliteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)

	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache database: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

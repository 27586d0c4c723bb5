package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yonote/internal/utils"
)

// cacheFile is the on-disk shape of the JSON store.
type cacheFile struct {
	SavedAt time.Time        `json:"saved_at"`
	Entries map[string]Entry `json:"entries"`
}

// jsonStore keeps all entries in memory and snapshots them to a single JSON
// file on Flush.
type jsonStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

func openJSON(path string) (*jsonStore, error) {
	s := &jsonStore{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			utils.Warnf("cache file %s unreadable, starting empty: %v", path, err)
		}
		return s, nil
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		utils.Warnf("cache file %s corrupt, starting empty: %v", path, err)
		return s, nil
	}
	if file.Entries != nil {
		s.entries = file.Entries
	}
	return s, nil
}

func (s *jsonStore) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

func (s *jsonStore) Put(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

func (s *jsonStore) InvalidateSubtree(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return
	}
	entry.Children = ChildList{}
	s.entries[id] = entry
}

func (s *jsonStore) Stats() Stats {
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

func (s *jsonStore) Flush() error {
	s.mu.RLock()
	file := cacheFile{
		SavedAt: time.Now(),
		Entries: s.entries,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (s *jsonStore) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]Entry)
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

func (s *jsonStore) Close() error {
	return nil
}

package cache_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"yonote/internal/cache"
)

// TestChildListTriState verifies that an unknown child list serializes to
// null, a known-empty one to [], and a populated one to the id array.
func TestChildListTriState(t *testing.T) {
	cases := []struct {
		name string
		list cache.ChildList
		want string
	}{
		{"unknown", cache.ChildList{}, "null"},
		{"known empty", cache.KnownChildren(nil), "[]"},
		{"populated", cache.KnownChildren([]string{"a", "b"}), `["a","b"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.list)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tc.want {
				t.Errorf("expected %s, got %s", tc.want, data)
			}

			var back cache.ChildList
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back.Known != tc.list.Known {
				t.Errorf("expected Known=%v after round trip, got %v", tc.list.Known, back.Known)
			}
			if len(back.IDs) != len(tc.list.IDs) {
				t.Errorf("expected %d ids after round trip, got %d", len(tc.list.IDs), len(back.IDs))
			}
		})
	}
}

func openJSONStore(t *testing.T) (cache.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := cache.Open(cache.BackendJSON, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store, path
}

// TestStorePutGet verifies basic insert and lookup.
func TestStorePutGet(t *testing.T) {
	store, _ := openJSONStore(t)
	defer func() { _ = store.Close() }()

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection, Title: "Docs"})

	entry, ok := store.Get("c1")
	if !ok {
		t.Fatal("expected entry to be present")
	}
	if entry.Title != "Docs" {
		t.Errorf("expected title Docs, got %s", entry.Title)
	}
	if _, ok := store.Get("missing"); ok {
		t.Error("expected absent id to report ok=false")
	}
}

// TestStoreLastWriteWins verifies that Put overwrites a prior entry.
func TestStoreLastWriteWins(t *testing.T) {
	store, _ := openJSONStore(t)
	defer func() { _ = store.Close() }()

	store.Put(cache.Entry{ID: "d1", Kind: cache.KindDocument, Title: "old"})
	store.Put(cache.Entry{ID: "d1", Kind: cache.KindDocument, Title: "new"})

	entry, _ := store.Get("d1")
	if entry.Title != "new" {
		t.Errorf("expected latest write to win, got %s", entry.Title)
	}
}

// TestInvalidateSubtreeLocality verifies that invalidation only marks the
// named entry's child list unknown and leaves everything else untouched.
func TestInvalidateSubtreeLocality(t *testing.T) {
	store, _ := openJSONStore(t)
	defer func() { _ = store.Close() }()

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection, Children: cache.KnownChildren([]string{"d1"})})
	store.Put(cache.Entry{ID: "d1", Kind: cache.KindDocument, ParentID: "c1", Children: cache.KnownChildren(nil)})
	store.Put(cache.Entry{ID: "c2", Kind: cache.KindCollection, Children: cache.KnownChildren([]string{"d2"})})

	store.InvalidateSubtree("c1")

	c1, _ := store.Get("c1")
	if c1.Children.Known {
		t.Error("expected c1 child list to become unknown")
	}
	d1, ok := store.Get("d1")
	if !ok {
		t.Fatal("expected d1 to survive invalidation")
	}
	if !d1.Children.Known {
		t.Error("expected d1 child list to stay known")
	}
	c2, _ := store.Get("c2")
	if !c2.Children.Known {
		t.Error("expected unrelated branch c2 to stay known")
	}
}

// TestStoreStats verifies per-kind counting.
func TestStoreStats(t *testing.T) {
	store, _ := openJSONStore(t)
	defer func() { _ = store.Close() }()

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection})
	store.Put(cache.Entry{ID: "d1", Kind: cache.KindDocument})
	store.Put(cache.Entry{ID: "d2", Kind: cache.KindDocument})

	stats := store.Stats()
	if stats.Collections != 1 || stats.Documents != 2 {
		t.Errorf("expected 1 collection and 2 documents, got %+v", stats)
	}
}

// TestJSONFlushAndReload verifies that a flushed store can be reopened with
// its contents intact, including the tri-state child lists.
func TestJSONFlushAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := cache.Open(cache.BackendJSON, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection, Children: cache.KnownChildren([]string{"d1"})})
	store.Put(cache.Entry{ID: "d1", Kind: cache.KindDocument, ParentID: "c1"})
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	_ = store.Close()

	reopened, err := cache.Open(cache.BackendJSON, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	c1, ok := reopened.Get("c1")
	if !ok {
		t.Fatal("expected c1 after reload")
	}
	if !c1.Children.Known || len(c1.Children.IDs) != 1 {
		t.Errorf("expected known child list [d1], got %+v", c1.Children)
	}
	d1, ok := reopened.Get("d1")
	if !ok {
		t.Fatal("expected d1 after reload")
	}
	if d1.Children.Known {
		t.Error("expected d1 child list to stay unknown")
	}
}

// TestJSONCorruptFileStartsEmpty verifies that an unreadable cache file is
// treated as a cold cache instead of an error.
func TestJSONCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store, err := cache.Open(cache.BackendJSON, path)
	if err != nil {
		t.Fatalf("expected corrupt cache to open empty, got %v", err)
	}
	defer func() { _ = store.Close() }()

	stats := store.Stats()
	if stats.Collections != 0 || stats.Documents != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
}

// TestClearRemovesFile verifies that Clear empties the store and deletes the
// backing file.
func TestClearRemovesFile(t *testing.T) {
	store, path := openJSONStore(t)
	defer func() { _ = store.Close() }()

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection})
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, ok := store.Get("c1"); ok {
		t.Error("expected store to be empty after clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected backing file to be removed")
	}
}

// TestSQLiteRoundTrip verifies the write-through backend persists entries
// across reopen.
func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.Open(cache.BackendSQLite, path)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection, Title: "Docs", Children: cache.KnownChildren([]string{"d1"})})
	store.Put(cache.Entry{ID: "d1", Kind: cache.KindDocument, ParentID: "c1", CollectionID: "c1", Title: "Readme"})
	_ = store.Close()

	reopened, err := cache.Open(cache.BackendSQLite, path)
	if err != nil {
		t.Fatalf("reopen sqlite store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	c1, ok := reopened.Get("c1")
	if !ok {
		t.Fatal("expected c1 after reopen")
	}
	if !c1.Children.Known || len(c1.Children.IDs) != 1 || c1.Children.IDs[0] != "d1" {
		t.Errorf("expected known child list [d1], got %+v", c1.Children)
	}
	d1, ok := reopened.Get("d1")
	if !ok {
		t.Fatal("expected d1 after reopen")
	}
	if d1.Children.Known {
		t.Error("expected d1 child list to stay unknown")
	}
}

// TestSQLiteInvalidatePersists verifies that invalidation survives reopen.
func TestSQLiteInvalidatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := cache.Open(cache.BackendSQLite, path)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}

	store.Put(cache.Entry{ID: "c1", Kind: cache.KindCollection, Children: cache.KnownChildren([]string{"d1"})})
	store.InvalidateSubtree("c1")
	_ = store.Close()

	reopened, err := cache.Open(cache.BackendSQLite, path)
	if err != nil {
		t.Fatalf("reopen sqlite store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	c1, _ := reopened.Get("c1")
	if c1.Children.Known {
		t.Error("expected invalidated child list to stay unknown after reopen")
	}
}

// Package cache provides the persistent metadata store for collections and
// documents mirrored from the service.
package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind distinguishes entry types in the store.
type Kind string

const (
	KindRoot       Kind = "root"
	KindCollection Kind = "collection"
	KindDocument   Kind = "document"
)

// RootID is the id of the synthetic root entry whose children are the
// workspace's top-level collections.
const RootID = ""

// ChildList is a tri-state list of child ids: unknown (never fetched),
// confirmed empty, or populated. Unknown serializes as JSON null so it stays
// distinct from an empty list across runs.
type ChildList struct {
	Known bool
	IDs   []string
}

// KnownChildren returns a ChildList in the known state.
func KnownChildren(ids []string) ChildList {
	if ids == nil {
		ids = []string{}
	}
	return ChildList{Known: true, IDs: ids}
}

// MarshalJSON encodes unknown as null and known as a (possibly empty) array.
func (c ChildList) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return []byte("null"), nil
	}
	ids := c.IDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// UnmarshalJSON decodes null (or a missing field) as unknown.
func (c *ChildList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ChildList{}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*c = KnownChildren(ids)
	return nil
}

// Entry is the last-known metadata for one collection or document.
type Entry struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Title        string    `json:"title,omitempty"`
	ParentID     string    `json:"parentId,omitempty"`
	CollectionID string    `json:"collectionId,omitempty"`
	Children     ChildList `json:"childIds"`
	FetchedAt    time.Time `json:"fetchedAt"`
	URL          string    `json:"url,omitempty"`
}

// Stats summarizes store contents for informational reporting.
type Stats struct {
	Collections int
	Documents   int
}

// Store is the persistent id-to-entry mapping. Implementations serialize
// mutations internally; reads and writes are safe from concurrent goroutines.
type Store interface {
	// Get returns the entry for id, or ok=false when absent.
	Get(id string) (Entry, bool)
	// Put inserts or overwrites an entry by id. Last write wins.
	Put(entry Entry)
	// InvalidateSubtree marks the entry's child list unknown without
	// touching the entry itself or any other branch.
	InvalidateSubtree(id string)
	// Stats counts cached collections and documents.
	Stats() Stats
	// Flush persists the current state. A failed flush leaves the
	// in-memory state usable for the rest of the run.
	Flush() error
	// Clear empties the store and removes its backing file.
	Clear() error
	// Close releases any resources held by the store.
	Close() error
}

// Backend selects a Store implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Open creates or loads a store at path using the given backend. An
// unreadable or corrupt backing file degrades to an empty store; only I/O
// errors that cannot be defaulted (e.g. an uncreatable directory) are
// returned.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return openJSON(path)
	case BackendSQLite:
		return openSQLite(path)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", backend)
	}
}

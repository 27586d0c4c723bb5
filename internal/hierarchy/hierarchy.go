// Package hierarchy maintains the lazy in-memory tree of collections and
// documents, layered over the cache store and the service API.
package hierarchy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yonote/internal/api"
	"yonote/internal/cache"
)

// Node is a runtime wrapper over a cache entry. Loaded reports whether the
// node's children have been materialized this run, as opposed to being known
// only as ids.
type Node struct {
	Entry  cache.Entry
	Loaded bool
}

// Title returns the display title, never empty.
func (n *Node) Title() string {
	if n.Entry.Title == "" {
		return "(untitled)"
	}
	return n.Entry.Title
}

// Model owns all nodes for one run. Nodes are indexed by id; parent/child
// relations live in the cache entries' child lists. One lock covers the node
// table and content memo; the store serializes its own mutations.
type Model struct {
	store cache.Store
	svc   api.Service

	mu      sync.Mutex
	nodes   map[string]*Node
	content map[string]string
}

// New creates a model over the given store and service client.
func New(store cache.Store, svc api.Service) *Model {
	return &Model{
		store:   store,
		svc:     svc,
		nodes:   make(map[string]*Node),
		content: make(map[string]string),
	}
}

// Node returns the materialized node for id, if any.
func (m *Model) Node(id string) (*Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	return n, ok
}

// Roots lists the top-level collections, following the same caching policy as
// Children.
func (m *Model) Roots(ctx context.Context, forceRefresh bool) ([]*Node, error) {
	return m.Children(ctx, cache.RootID, forceRefresh)
}

// Children returns the child nodes of nodeID. Cached child lists are served
// without touching the service unless forceRefresh is set or the list was
// never fetched. A fresh fetch rewrites the parent's child list completely;
// children that disappeared upstream stay in the store but become
// unreachable.
func (m *Model) Children(ctx context.Context, nodeID string, forceRefresh bool) ([]*Node, error) {
	parent, err := m.entry(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	if !forceRefresh && parent.Children.Known {
		return m.resolve(ctx, parent.Children.IDs)
	}

	metas, err := m.listChildren(ctx, parent)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(metas))
	nodes := make([]*Node, len(metas))
	now := time.Now()

	m.mu.Lock()
	for i, meta := range metas {
		ids[i] = meta.ID
		entry := entryFromMeta(meta, now)
		// A refetched listing must not discard what we already know
		// about the child's own children.
		if prev, ok := m.store.Get(meta.ID); ok {
			entry.Children = prev.Children
		}
		m.store.Put(entry)
		nodes[i] = m.materializeLocked(entry)
	}

	parent.Children = cache.KnownChildren(ids)
	parent.FetchedAt = now
	m.store.Put(parent)
	parentNode := m.materializeLocked(parent)
	parentNode.Loaded = true
	m.mu.Unlock()

	return nodes, nil
}

// Document returns the full text of a document. Content is memoized for the
// run but never persisted; only metadata is cached.
func (m *Model) Document(ctx context.Context, id string, forceRefresh bool) (string, error) {
	if !forceRefresh {
		m.mu.Lock()
		text, ok := m.content[id]
		m.mu.Unlock()
		if ok {
			return text, nil
		}
	}

	text, err := m.svc.DocumentContent(ctx, id)
	if err != nil {
		return "", fmt.Errorf("document %s: %w", id, err)
	}

	m.mu.Lock()
	m.content[id] = text
	m.mu.Unlock()
	return text, nil
}

// Register records a node created on the service (during import) in the
// store and node table, appending it to its parent's known children.
func (m *Model) Register(meta api.NodeMeta, parentID string) *Node {
	now := time.Now()
	entry := entryFromMeta(meta, now)
	entry.Children = cache.KnownChildren(nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Put(entry)

	if parent, ok := m.store.Get(parentID); ok && parent.Children.Known {
		parent.Children = cache.KnownChildren(append(parent.Children.IDs, meta.ID))
		m.store.Put(parent)
	}

	node := m.materializeLocked(entry)
	node.Loaded = true
	return node
}

// Materialize ensures id and its ancestors are present in the store, so
// Path can reconstruct the full ancestry even when the run started with a
// cold cache.
func (m *Model) Materialize(ctx context.Context, id string) error {
	seen := make(map[string]bool)
	cur := id
	for cur != "" && !seen[cur] {
		seen[cur] = true
		entry, err := m.entry(ctx, cur)
		if err != nil {
			return err
		}
		if entry.Kind != cache.KindDocument {
			return nil
		}
		if entry.ParentID != "" {
			cur = entry.ParentID
		} else {
			cur = entry.CollectionID
		}
	}
	return nil
}

// Path returns the ancestry entries from the collection down to id,
// inclusive, using cached metadata only.
func (m *Model) Path(id string) []cache.Entry {
	var parts []cache.Entry
	seen := make(map[string]bool)
	cur := id
	for cur != "" && !seen[cur] {
		seen[cur] = true
		entry, ok := m.store.Get(cur)
		if !ok {
			break
		}
		parts = append([]cache.Entry{entry}, parts...)
		if entry.Kind == cache.KindCollection {
			break
		}
		if entry.ParentID != "" {
			cur = entry.ParentID
		} else {
			cur = entry.CollectionID
		}
	}
	return parts
}

// DocumentIDs walks the subtree under nodeID, materializing unloaded branches
// from the service as needed, and returns the ids of every document in it.
// With forceRefresh every level is refetched instead of trusting cached child
// lists, so documents added upstream since the last run are included.
func (m *Model) DocumentIDs(ctx context.Context, nodeID string, forceRefresh bool) ([]string, error) {
	var ids []string
	stack := []string{nodeID}
	seen := make(map[string]bool)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true

		if entry, ok := m.store.Get(cur); ok && entry.Kind == cache.KindDocument {
			ids = append(ids, cur)
		}

		children, err := m.Children(ctx, cur, forceRefresh)
		if err != nil {
			if api.IsNotFound(err) {
				// Branch disappeared upstream; what we collected so
				// far is still valid.
				continue
			}
			return nil, err
		}
		for _, child := range children {
			stack = append(stack, child.Entry.ID)
		}
	}
	return ids, nil
}

// entry fetches the cache entry for id, resolving absent documents through
// the service. The synthetic root always resolves.
func (m *Model) entry(ctx context.Context, id string) (cache.Entry, error) {
	if entry, ok := m.store.Get(id); ok {
		return entry, nil
	}
	if id == cache.RootID {
		return cache.Entry{ID: cache.RootID, Kind: cache.KindRoot}, nil
	}

	meta, err := m.svc.DocumentInfo(ctx, id)
	if err != nil {
		// Collections have no single-item info endpoint; a miss may mean
		// the id is a collection we have not listed yet.
		if api.IsNotFound(err) {
			if cols, lerr := m.svc.ListCollections(ctx); lerr == nil {
				now := time.Now()
				for _, c := range cols {
					centry := entryFromMeta(c, now)
					if prev, ok := m.store.Get(c.ID); ok {
						centry.Children = prev.Children
					}
					m.store.Put(centry)
				}
				if entry, ok := m.store.Get(id); ok {
					return entry, nil
				}
			}
		}
		return cache.Entry{}, fmt.Errorf("node %s: %w", id, err)
	}
	entry := entryFromMeta(meta, time.Now())
	m.store.Put(entry)
	return entry, nil
}

// resolve maps cached child ids to nodes, fetching any entry that is absent
// from the store.
func (m *Model) resolve(ctx context.Context, ids []string) ([]*Node, error) {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		entry, err := m.entry(ctx, id)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		nodes = append(nodes, m.materializeLocked(entry))
		m.mu.Unlock()
	}
	return nodes, nil
}

// listChildren asks the service for the children of the given entry.
func (m *Model) listChildren(ctx context.Context, parent cache.Entry) ([]api.NodeMeta, error) {
	switch parent.Kind {
	case cache.KindRoot:
		return m.svc.ListCollections(ctx)
	case cache.KindCollection:
		return m.svc.ListDocuments(ctx, parent.ID, "")
	default:
		collectionID := parent.CollectionID
		if collectionID == "" {
			collectionID = parent.ID
		}
		return m.svc.ListDocuments(ctx, collectionID, parent.ID)
	}
}

// materializeLocked updates or creates the node for entry. Caller holds m.mu.
func (m *Model) materializeLocked(entry cache.Entry) *Node {
	if node, ok := m.nodes[entry.ID]; ok {
		node.Entry = entry
		return node
	}
	node := &Node{Entry: entry}
	m.nodes[entry.ID] = node
	return node
}

func entryFromMeta(meta api.NodeMeta, fetchedAt time.Time) cache.Entry {
	kind := cache.KindDocument
	if meta.Kind == api.KindCollection {
		kind = cache.KindCollection
	}
	return cache.Entry{
		ID:           meta.ID,
		Kind:         kind,
		Title:        meta.Title,
		ParentID:     meta.ParentID,
		CollectionID: meta.CollectionID,
		FetchedAt:    fetchedAt,
		URL:          meta.URL,
	}
}

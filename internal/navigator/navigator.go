// Package navigator implements the interactive traversal state machine over
// the hierarchy model. It consumes discrete navigation events and exposes the
// resulting state; rendering is a separate concern (see internal/tui).
package navigator

import (
	"context"
	"strings"

	"yonote/internal/cache"
	"yonote/internal/hierarchy"
)

// Mode selects what the navigator is collecting.
type Mode int

const (
	// ModeExport collects a selection set of documents and collections.
	ModeExport Mode = iota
	// ModePick collects a single destination node for import.
	ModePick
)

// Phase is the state-machine state.
type Phase int

const (
	Browsing Phase = iota
	Searching
	Confirmed
	Cancelled
)

// EventKind enumerates the discrete navigation events.
type EventKind int

const (
	EvUp EventKind = iota
	EvDown
	EvPageUp
	EvPageDown
	EvDescend
	EvBack
	EvToggle
	EvSearchToggle
	EvSearchSet
	EvSearchNext
	EvRefresh
	EvConfirm
	EvCancel
)

// Event is one navigation input. Query is only meaningful for EvSearchSet.
type Event struct {
	Kind  EventKind
	Query string
}

// Signal tells the caller what to do after an event was handled.
type Signal int

const (
	// SignalRedraw means state changed and the view should re-render.
	SignalRedraw Signal = iota
	// SignalDone means the navigator reached a terminal phase.
	SignalDone
)

// pageStep is how far PageUp/PageDown move the cursor.
const pageStep = 10

// Item is one visible row, ready for projection by a renderer.
type Item struct {
	ID          string
	Title       string
	Kind        cache.Kind
	Selected    bool
	HasChildren bool
}

// Selection is the set of ids chosen in export mode. Collections are
// expanded into their document subtrees by the transfer engine, not here,
// since descendants may not be loaded yet.
type Selection struct {
	DocumentIDs   []string
	CollectionIDs []string
}

// Empty reports whether nothing was selected.
func (s Selection) Empty() bool {
	return len(s.DocumentIDs) == 0 && len(s.CollectionIDs) == 0
}

// Target is the destination chosen in pick mode.
type Target struct {
	CollectionID string
	ParentID     string // empty means the collection root
	Label        string
}

type crumb struct {
	id    string
	title string
}

// Navigator drives traversal over the hierarchy model. It is not safe for
// concurrent use; one goroutine owns it.
type Navigator struct {
	model *hierarchy.Model
	mode  Mode

	phase     Phase
	currentID string
	crumbs    []crumb
	children  []*hierarchy.Node
	cursor    int

	selected map[string]bool // export mode: toggled ids
	picked   string          // pick mode: chosen document id, "" when none
	pickColl crumb           // pick mode: collection whose root was chosen

	searchQuery string
	searchIndex int
}

// New creates a navigator in the Browsing phase at the synthetic root.
func New(model *hierarchy.Model, mode Mode) *Navigator {
	return &Navigator{
		model:     model,
		mode:      mode,
		phase:     Browsing,
		currentID: cache.RootID,
		selected:  make(map[string]bool),
	}
}

// Init loads the root level. forceRefresh bypasses cached listings.
func (n *Navigator) Init(ctx context.Context, forceRefresh bool) error {
	children, err := n.model.Children(ctx, cache.RootID, forceRefresh)
	if err != nil {
		return err
	}
	n.children = children
	n.cursor = 0
	return nil
}

// Phase returns the current state-machine state.
func (n *Navigator) Phase() Phase { return n.phase }

// Cursor returns the index of the highlighted row within Visible().
func (n *Navigator) Cursor() int { return n.cursor }

// SearchQuery returns the active search filter, if any.
func (n *Navigator) SearchQuery() string { return n.searchQuery }

// Path returns the breadcrumb path of the current level.
func (n *Navigator) Path() string {
	if len(n.crumbs) == 0 {
		return "Collections"
	}
	parts := make([]string, len(n.crumbs))
	for i, c := range n.crumbs {
		parts[i] = c.title
	}
	return strings.Join(parts, " / ")
}

// AtRoot reports whether the current level is the synthetic root.
func (n *Navigator) AtRoot() bool { return n.currentID == cache.RootID }

// Visible returns the rows for the current level. While searching, only rows
// whose title contains the query (case-insensitively) are included.
func (n *Navigator) Visible() []Item {
	items := make([]Item, 0, len(n.children))
	for _, child := range n.children {
		if n.phase == Searching && n.searchQuery != "" && !matches(child.Title(), n.searchQuery) {
			continue
		}
		items = append(items, Item{
			ID:          child.Entry.ID,
			Title:       child.Title(),
			Kind:        child.Entry.Kind,
			Selected:    n.isSelected(child.Entry.ID),
			HasChildren: child.Entry.Children.Known && len(child.Entry.Children.IDs) > 0,
		})
	}
	return items
}

// Selection returns the collected selection set. Valid after Confirmed in
// export mode.
func (n *Navigator) Selection() Selection {
	var sel Selection
	for id := range n.selected {
		if node, ok := n.model.Node(id); ok && node.Entry.Kind == cache.KindCollection {
			sel.CollectionIDs = append(sel.CollectionIDs, id)
		} else {
			sel.DocumentIDs = append(sel.DocumentIDs, id)
		}
	}
	return sel
}

// Target returns the chosen destination. Valid after Confirmed in pick mode;
// ok is false when nothing was picked.
func (n *Navigator) Target() (Target, bool) {
	if n.pickColl.id != "" {
		return Target{CollectionID: n.pickColl.id, Label: n.pickColl.title}, true
	}
	if n.picked == "" {
		return Target{}, false
	}
	entry, ok := n.model.Node(n.picked)
	if !ok {
		return Target{}, false
	}
	return Target{
		CollectionID: entry.Entry.CollectionID,
		ParentID:     n.picked,
		Label:        n.Path() + " / " + entry.Title(),
	}, true
}

// Handle processes one event and reports whether the navigator is done.
// Events arriving in a terminal phase are ignored.
func (n *Navigator) Handle(ctx context.Context, ev Event) (Signal, error) {
	if n.phase == Confirmed || n.phase == Cancelled {
		return SignalDone, nil
	}

	switch ev.Kind {
	case EvUp:
		n.moveCursor(-1)
	case EvDown:
		n.moveCursor(1)
	case EvPageUp:
		n.moveCursor(-pageStep)
	case EvPageDown:
		n.moveCursor(pageStep)

	case EvDescend:
		return SignalRedraw, n.descend(ctx)

	case EvBack:
		return SignalRedraw, n.ascend(ctx)

	case EvToggle:
		n.toggle()

	case EvSearchToggle:
		if n.phase == Searching {
			n.phase = Browsing
			n.searchQuery = ""
			n.searchIndex = 0
			n.clampCursor()
		} else {
			n.phase = Searching
			n.searchIndex = 0
		}

	case EvSearchSet:
		if n.phase == Searching {
			n.searchQuery = ev.Query
			n.searchIndex = 0
			n.cursor = 0
			n.clampCursor()
		}

	case EvSearchNext:
		if n.phase == Searching {
			visible := n.Visible()
			if len(visible) > 0 {
				n.searchIndex = (n.searchIndex + 1) % len(visible)
				n.cursor = n.searchIndex
			}
		}

	case EvRefresh:
		children, err := n.model.Children(ctx, n.currentID, true)
		if err != nil {
			return SignalRedraw, err
		}
		n.children = children
		n.clampCursor()

	case EvConfirm:
		n.phase = Confirmed
		return SignalDone, nil

	case EvCancel:
		n.phase = Cancelled
		return SignalDone, nil
	}

	return SignalRedraw, nil
}

func (n *Navigator) moveCursor(step int) {
	n.cursor += step
	n.clampCursor()
}

func (n *Navigator) clampCursor() {
	visible := len(n.Visible())
	if n.cursor >= visible {
		n.cursor = visible - 1
	}
	if n.cursor < 0 {
		n.cursor = 0
	}
}

// current returns the highlighted item, if any.
func (n *Navigator) current() (Item, bool) {
	visible := n.Visible()
	if len(visible) == 0 || n.cursor >= len(visible) {
		return Item{}, false
	}
	return visible[n.cursor], true
}

// descend pushes the highlighted child onto the path and loads its children
// lazily. Leaving a search resets the filter.
func (n *Navigator) descend(ctx context.Context) error {
	item, ok := n.current()
	if !ok {
		return nil
	}

	children, err := n.model.Children(ctx, item.ID, false)
	if err != nil {
		return err
	}

	n.crumbs = append(n.crumbs, crumb{id: item.ID, title: item.Title})
	n.currentID = item.ID
	n.children = children
	n.cursor = 0
	if n.phase == Searching {
		n.phase = Browsing
		n.searchQuery = ""
	}
	return nil
}

// ascend pops the path. Already-materialized levels are re-read from the
// model without a service call. On error the current level stays intact.
func (n *Navigator) ascend(ctx context.Context) error {
	if len(n.crumbs) == 0 {
		return nil
	}
	parentID := cache.RootID
	if len(n.crumbs) > 1 {
		parentID = n.crumbs[len(n.crumbs)-2].id
	}

	// The parent level was materialized on the way down; a cache read
	// suffices.
	children, err := n.model.Children(ctx, parentID, false)
	if err != nil {
		return err
	}

	n.crumbs = n.crumbs[:len(n.crumbs)-1]
	n.currentID = parentID
	n.children = children
	n.cursor = 0
	if n.phase == Searching {
		n.phase = Browsing
		n.searchQuery = ""
	}
	return nil
}

// toggle flips selection state of the highlighted item (export mode) or
// picks it as the destination (pick mode).
func (n *Navigator) toggle() {
	item, ok := n.current()
	if !ok {
		return
	}
	switch n.mode {
	case ModeExport:
		if n.selected[item.ID] {
			delete(n.selected, item.ID)
		} else {
			n.selected[item.ID] = true
		}
	case ModePick:
		if item.Kind == cache.KindCollection {
			// Toggling a collection targets its root.
			if n.pickColl.id == item.ID {
				n.pickColl = crumb{}
			} else {
				n.pickColl = crumb{id: item.ID, title: item.Title}
				n.picked = ""
			}
			return
		}
		if n.picked == item.ID {
			n.picked = ""
		} else {
			n.picked = item.ID
			n.pickColl = crumb{}
		}
	}
}

// PickRoot marks the current collection's root as the destination. Only
// meaningful in pick mode while inside a collection.
func (n *Navigator) PickRoot() {
	if n.mode != ModePick || len(n.crumbs) == 0 {
		return
	}
	if n.pickColl.id == n.crumbs[0].id {
		n.pickColl = crumb{}
		return
	}
	n.pickColl = n.crumbs[0]
	n.picked = ""
}

// RootPicked reports whether a collection root is the chosen destination.
func (n *Navigator) RootPicked() bool { return n.pickColl.id != "" }

func (n *Navigator) isSelected(id string) bool {
	if n.mode == ModePick {
		return n.picked == id || n.pickColl.id == id
	}
	return n.selected[id]
}

func matches(title, query string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(query))
}

// Package api provides a client for the Yonote document service API.
package api

import "time"

// Kind distinguishes the two node types the service exposes.
type Kind string

const (
	KindCollection Kind = "collection"
	KindDocument   Kind = "document"
)

// NodeMeta is the metadata the service reports for a collection or document.
// Collections have no parent; documents always carry their collection id and
// optionally a parent document id.
type NodeMeta struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Title        string    `json:"title"`
	CollectionID string    `json:"collectionId,omitempty"`
	ParentID     string    `json:"parentDocumentId,omitempty"`
	URL          string    `json:"url,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// User is a service account as returned by users.list.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
	Suspended bool   `json:"isSuspended"`
}

// Group is a user group as returned by groups.list.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

// AuthInfo describes the authenticated user and workspace.
type AuthInfo struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Team struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"team"`
}

// collectionJSON is the wire shape of a collection item.
type collectionJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// documentJSON is the wire shape of a document item.
type documentJSON struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	CollectionID     string    `json:"collectionId"`
	ParentDocumentID string    `json:"parentDocumentId"`
	URL              string    `json:"url"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (c collectionJSON) meta() NodeMeta {
	return NodeMeta{
		ID:        c.ID,
		Kind:      KindCollection,
		Title:     c.Name,
		URL:       c.URL,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d documentJSON) meta() NodeMeta {
	return NodeMeta{
		ID:           d.ID,
		Kind:         KindDocument,
		Title:        d.Title,
		CollectionID: d.CollectionID,
		ParentID:     d.ParentDocumentID,
		URL:          d.URL,
		UpdatedAt:    d.UpdatedAt,
	}
}

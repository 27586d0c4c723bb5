package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"yonote/internal/api"
)

// CreatedDoc records one CreateDocument call in arrival order.
type CreatedDoc struct {
	ID           string
	CollectionID string
	ParentID     string
	Title        string
}

// FakeService is an in-memory stand-in for the remote document service. It
// implements the full client surface including the directory endpoints, so
// it can be injected straight into the CLI.
type FakeService struct {
	mu          sync.Mutex
	collections []api.NodeMeta
	documents   map[string]api.NodeMeta
	content     map[string]string
	users       []api.User
	groups      []api.Group
	auth        api.AuthInfo

	// Calls counts invocations per method name.
	Calls map[string]int
	// CreateLog records document creations in the order they happened.
	CreateLog []CreatedDoc
	// FailContent makes DocumentContent fail for specific ids.
	FailContent map[string]error
	// FailList makes ListDocuments fail for specific collection ids.
	FailList map[string]error
	// deleted ids answer every lookup with api.ErrNotFound.
	deleted map[string]bool
}

// NewFakeService creates an empty fake workspace.
func NewFakeService() *FakeService {
	f := &FakeService{
		documents:   make(map[string]api.NodeMeta),
		content:     make(map[string]string),
		Calls:       make(map[string]int),
		FailContent: make(map[string]error),
		FailList:    make(map[string]error),
		deleted:     make(map[string]bool),
	}
	f.auth.User.ID = uuid.NewString()
	f.auth.User.Name = "Test User"
	f.auth.User.Email = "test@example.com"
	f.auth.Team.Name = "Test Team"
	return f
}

// AddCollection registers a collection and returns its metadata.
func (f *FakeService) AddCollection(name string) api.NodeMeta {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta := api.NodeMeta{
		ID:    uuid.NewString(),
		Kind:  api.KindCollection,
		Title: name,
	}
	f.collections = append(f.collections, meta)
	return meta
}

// AddDocument registers a document with its content and returns its metadata.
func (f *FakeService) AddDocument(collectionID, parentID, title, text string) api.NodeMeta {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta := api.NodeMeta{
		ID:           uuid.NewString(),
		Kind:         api.KindDocument,
		Title:        title,
		CollectionID: collectionID,
		ParentID:     parentID,
	}
	f.documents[meta.ID] = meta
	f.content[meta.ID] = text
	return meta
}

// AddUser registers a directory user.
func (f *FakeService) AddUser(name, email string, admin bool) api.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := api.User{ID: uuid.NewString(), Name: name, Email: email, IsAdmin: admin}
	f.users = append(f.users, u)
	return u
}

// AddGroup registers a directory group.
func (f *FakeService) AddGroup(name string, members int) api.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := api.Group{ID: uuid.NewString(), Name: name, MemberCount: members}
	f.groups = append(f.groups, g)
	return g
}

// MarkDeleted makes every subsequent lookup of id fail with api.ErrNotFound,
// simulating a document removed upstream after it was cached.
func (f *FakeService) MarkDeleted(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[id] = true
}

// CallCount returns how many times the named method ran.
func (f *FakeService) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

// Created returns a copy of the creation log.
func (f *FakeService) Created() []CreatedDoc {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CreatedDoc, len(f.CreateLog))
	copy(out, f.CreateLog)
	return out
}

func (f *FakeService) ListCollections(ctx context.Context) ([]api.NodeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListCollections"]++
	out := make([]api.NodeMeta, 0, len(f.collections))
	for _, c := range f.collections {
		if !f.deleted[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *FakeService) ListDocuments(ctx context.Context, collectionID, parentDocumentID string) ([]api.NodeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListDocuments"]++
	if err := f.FailList[collectionID]; err != nil {
		return nil, err
	}
	if f.deleted[collectionID] {
		return nil, &api.StatusError{Status: 404}
	}
	var out []api.NodeMeta
	for _, d := range f.documents {
		if f.deleted[d.ID] {
			continue
		}
		if d.CollectionID == collectionID && d.ParentID == parentDocumentID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *FakeService) DocumentInfo(ctx context.Context, id string) (api.NodeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["DocumentInfo"]++
	if f.deleted[id] {
		return api.NodeMeta{}, &api.StatusError{Status: 404}
	}
	meta, ok := f.documents[id]
	if !ok {
		return api.NodeMeta{}, &api.StatusError{Status: 404}
	}
	return meta, nil
}

func (f *FakeService) DocumentContent(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["DocumentContent"]++
	if err, ok := f.FailContent[id]; ok {
		return "", err
	}
	if f.deleted[id] {
		return "", &api.StatusError{Status: 404}
	}
	text, ok := f.content[id]
	if !ok {
		return "", &api.StatusError{Status: 404}
	}
	return text, nil
}

func (f *FakeService) CreateDocument(ctx context.Context, collectionID, parentDocumentID, title, text string) (api.NodeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["CreateDocument"]++
	if parentDocumentID != "" {
		if _, ok := f.documents[parentDocumentID]; !ok {
			return api.NodeMeta{}, fmt.Errorf("parent %s does not exist", parentDocumentID)
		}
	}
	meta := api.NodeMeta{
		ID:           uuid.NewString(),
		Kind:         api.KindDocument,
		Title:        title,
		CollectionID: collectionID,
		ParentID:     parentDocumentID,
	}
	f.documents[meta.ID] = meta
	f.content[meta.ID] = text
	f.CreateLog = append(f.CreateLog, CreatedDoc{
		ID:           meta.ID,
		CollectionID: collectionID,
		ParentID:     parentDocumentID,
		Title:        title,
	})
	return meta, nil
}

func (f *FakeService) CreateCollection(ctx context.Context, name string) (api.NodeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["CreateCollection"]++
	meta := api.NodeMeta{
		ID:    uuid.NewString(),
		Kind:  api.KindCollection,
		Title: name,
	}
	f.collections = append(f.collections, meta)
	return meta, nil
}

func (f *FakeService) AuthInfo(ctx context.Context) (api.AuthInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["AuthInfo"]++
	return f.auth, nil
}

func (f *FakeService) ListUsers(ctx context.Context, query string) ([]api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListUsers"]++
	if query == "" {
		return append([]api.User(nil), f.users...), nil
	}
	var out []api.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(query)) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *FakeService) ListGroups(ctx context.Context) ([]api.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ListGroups"]++
	return append([]api.Group(nil), f.groups...), nil
}

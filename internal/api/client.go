package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"yonote/internal/ratelimit"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "https://app.yonote.ru/api"

	// MaxPageLimit is the largest value the service accepts for the
	// pagination "limit" parameter.
	MaxPageLimit = 100
)

// Service is the surface of the document service consumed by the rest of the
// program. *Client implements it; tests substitute fakes.
type Service interface {
	ListCollections(ctx context.Context) ([]NodeMeta, error)
	ListDocuments(ctx context.Context, collectionID, parentDocumentID string) ([]NodeMeta, error)
	DocumentInfo(ctx context.Context, id string) (NodeMeta, error)
	DocumentContent(ctx context.Context, id string) (string, error)
	CreateDocument(ctx context.Context, collectionID, parentDocumentID, title, text string) (NodeMeta, error)
	CreateCollection(ctx context.Context, name string) (NodeMeta, error)
}

// Config holds service connection settings.
type Config struct {
	BaseURL    string
	Token      string
	Workers    int // pagination fan-out, defaults to 8
	MaxRetries int
	RetryDelay time.Duration
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		BaseURL: os.Getenv("YONOTE_BASE_URL"),
		Token:   os.Getenv("YONOTE_TOKEN"),
	}
}

// Client talks to the Yonote HTTP API.
type Client struct {
	config  Config
	client  *http.Client
	baseURL string
}

// New creates a new service client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("service API token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	// The service expects the /api prefix; tolerate configs that omit it.
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/api") {
		baseURL += "/api"
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
	}, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if transport, ok := c.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}

// doPost performs an authenticated POST request and decodes the JSON response
// into out when out is non-nil. Retries are attempted only for transient
// failures.
func (c *Client) doPost(ctx context.Context, path string, payload, out interface{}) error {
	url := c.baseURL + path

	maxRetries := c.config.MaxRetries
	backoff := ratelimit.Backoff{Base: c.config.RetryDelay, Jitter: true}

	var lastErr error
	var retryAfter *time.Duration
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff.Delay(attempt-1, retryAfter)):
			}
		}

		body, err := c.postOnce(ctx, url, payload)
		if err != nil {
			lastErr = err
			if IsTransient(err) {
				retryAfter = nil
				var statusErr *StatusError
				if errors.As(err, &statusErr) {
					retryAfter = statusErr.RetryAfter
				}
				continue
			}
			return err
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
		return nil
	}
	return lastErr
}

func (c *Client) postOnce(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Status:     resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: ratelimit.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return body, nil
}

// page is the envelope the service wraps list responses in.
type page[T any] struct {
	Data       []T `json:"data"`
	Pagination struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

// fetchAll retrieves every page of a list endpoint. The first page is fetched
// alone; if it comes back full, further pages are fetched in waves of
// c.config.Workers concurrent requests until a short page is observed.
func fetchAll[T any](ctx context.Context, c *Client, path string, params map[string]interface{}) ([]T, error) {
	limit := MaxPageLimit

	first, err := fetchPage[T](ctx, c, path, params, limit, 0)
	if err != nil {
		return nil, err
	}
	items := first
	if len(first) < limit {
		return items, nil
	}

	workers := c.config.Workers
	nextOffset := limit
	for {
		offsets := make([]int, 0, workers)
		for off := nextOffset; off < nextOffset+limit*workers; off += limit {
			offsets = append(offsets, off)
		}

		type result struct {
			offset int
			items  []T
			err    error
		}
		results := make(chan result, len(offsets))
		var wg sync.WaitGroup
		for _, off := range offsets {
			wg.Add(1)
			go func(off int) {
				defer wg.Done()
				pageItems, err := fetchPage[T](ctx, c, path, params, limit, off)
				results <- result{offset: off, items: pageItems, err: err}
			}(off)
		}
		wg.Wait()
		close(results)

		// Reassemble in offset order so callers see a stable sequence.
		byOffset := make(map[int]result, len(offsets))
		for r := range results {
			if r.err != nil {
				return nil, r.err
			}
			byOffset[r.offset] = r
		}

		done := false
		for _, off := range offsets {
			r := byOffset[off]
			items = append(items, r.items...)
			if len(r.items) < limit {
				done = true
				break
			}
		}
		if done {
			return items, nil
		}
		nextOffset += limit * workers
	}
}

func fetchPage[T any](ctx context.Context, c *Client, path string, params map[string]interface{}, limit, offset int) ([]T, error) {
	payload := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		payload[k] = v
	}
	payload["limit"] = limit
	payload["offset"] = offset

	var envelope page[T]
	if err := c.doPost(ctx, path, payload, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// ListCollections returns every collection in the workspace.
func (c *Client) ListCollections(ctx context.Context) ([]NodeMeta, error) {
	cols, err := fetchAll[collectionJSON](ctx, c, "/collections.list", nil)
	if err != nil {
		return nil, err
	}
	metas := make([]NodeMeta, len(cols))
	for i, col := range cols {
		metas[i] = col.meta()
	}
	return metas, nil
}

// ListDocuments returns documents in a collection. When parentDocumentID is
// non-empty only that document's direct children are returned, otherwise the
// collection's top-level documents.
func (c *Client) ListDocuments(ctx context.Context, collectionID, parentDocumentID string) ([]NodeMeta, error) {
	params := map[string]interface{}{"collectionId": collectionID}
	if parentDocumentID != "" {
		params["parentDocumentId"] = parentDocumentID
	}
	docs, err := fetchAll[documentJSON](ctx, c, "/documents.list", params)
	if err != nil {
		return nil, err
	}
	metas := make([]NodeMeta, 0, len(docs))
	for _, d := range docs {
		// The service returns the whole collection when no parent filter
		// is given; keep only the requested level.
		if d.ParentDocumentID != parentDocumentID {
			continue
		}
		metas = append(metas, d.meta())
	}
	return metas, nil
}

// DocumentInfo returns metadata for a single document.
func (c *Client) DocumentInfo(ctx context.Context, id string) (NodeMeta, error) {
	var resp struct {
		Data documentJSON `json:"data"`
	}
	if err := c.doPost(ctx, "/documents.info", map[string]interface{}{"id": id}, &resp); err != nil {
		return NodeMeta{}, err
	}
	return resp.Data.meta(), nil
}

// CreateDocument creates a published document under the given collection and
// optional parent document, returning the new node's metadata.
func (c *Client) CreateDocument(ctx context.Context, collectionID, parentDocumentID, title, text string) (NodeMeta, error) {
	payload := map[string]interface{}{
		"title":        title,
		"text":         text,
		"collectionId": collectionID,
		"publish":      true,
	}
	if parentDocumentID != "" {
		payload["parentDocumentId"] = parentDocumentID
	}
	var resp struct {
		Data documentJSON `json:"data"`
	}
	if err := c.doPost(ctx, "/documents.create", payload, &resp); err != nil {
		return NodeMeta{}, err
	}
	return resp.Data.meta(), nil
}

// CreateCollection creates a new top-level collection.
func (c *Client) CreateCollection(ctx context.Context, name string) (NodeMeta, error) {
	var resp struct {
		Data collectionJSON `json:"data"`
	}
	if err := c.doPost(ctx, "/collections.create", map[string]interface{}{"name": name}, &resp); err != nil {
		return NodeMeta{}, err
	}
	return resp.Data.meta(), nil
}

// AuthInfo returns the authenticated user and workspace details.
func (c *Client) AuthInfo(ctx context.Context) (AuthInfo, error) {
	var resp struct {
		Data AuthInfo `json:"data"`
	}
	if err := c.doPost(ctx, "/auth.info", map[string]interface{}{}, &resp); err != nil {
		return AuthInfo{}, err
	}
	return resp.Data, nil
}

// ListUsers returns workspace users, optionally filtered by a search query.
func (c *Client) ListUsers(ctx context.Context, query string) ([]User, error) {
	params := map[string]interface{}{"filter": "all"}
	if query != "" {
		params["query"] = query
	}
	return fetchAll[User](ctx, c, "/users.list", params)
}

// ListGroups returns workspace groups.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	return fetchAll[Group](ctx, c, "/groups.list", nil)
}

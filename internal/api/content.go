package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// exportPollAttempts bounds how long DocumentContent waits for the service to
// finish preparing an asynchronous export.
const exportPollAttempts = 6

// DocumentContent returns the exported text of a document. The export
// endpoint either answers with the content inline or with a fileOperation
// that must be polled via fileOperations.redirect until a presigned Location
// becomes available.
func (c *Client) DocumentContent(ctx context.Context, id string) (string, error) {
	var resp struct {
		Data          json.RawMessage `json:"data"`
		FileOperation *struct {
			ID string `json:"id"`
		} `json:"fileOperation"`
	}
	if err := c.doPost(ctx, "/documents.export", map[string]interface{}{"id": id}, &resp); err != nil {
		return "", err
	}

	if len(resp.Data) > 0 {
		text, inline, err := decodeContent(resp.Data)
		if err != nil {
			return "", err
		}
		if inline {
			return text, nil
		}
	}

	if resp.FileOperation == nil {
		return "", fmt.Errorf("document %s: export returned neither content nor a file operation", id)
	}
	return c.awaitExport(ctx, resp.FileOperation.ID)
}

// decodeContent normalizes the shapes the service uses for exported content:
// a plain string, or a Node.js Buffer serialized as
// {"type":"Buffer","data":[...]}, possibly wrapped in a {"data": ...} object.
// The second return value is false when raw holds a non-content object such
// as a pending fileOperation envelope.
func decodeContent(raw json.RawMessage) (string, bool, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true, nil
	}

	var buf struct {
		Type string `json:"type"`
		Data []int  `json:"data"`
	}
	if err := json.Unmarshal(raw, &buf); err == nil && buf.Type == "Buffer" {
		b := make([]byte, len(buf.Data))
		for i, v := range buf.Data {
			b[i] = byte(v)
		}
		return string(b), true, nil
	}

	var wrapped struct {
		Data          json.RawMessage `json:"data"`
		FileOperation json.RawMessage `json:"fileOperation"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if len(wrapped.FileOperation) > 0 && string(wrapped.FileOperation) != "null" {
			return "", false, nil
		}
		if len(wrapped.Data) > 0 && string(wrapped.Data) != "null" {
			return decodeContent(wrapped.Data)
		}
	}
	return "", false, nil
}

// awaitExport polls fileOperations.redirect until the service answers with a
// redirect to the finished export, then downloads it.
func (c *Client) awaitExport(ctx context.Context, operationID string) (string, error) {
	// Redirects must not be followed automatically: the Location header is
	// the artifact we are waiting for.
	noRedirect := &http.Client{
		Timeout: c.client.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	payload, err := json.Marshal(map[string]string{"id": operationID})
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < exportPollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/fileOperations.redirect", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.Token)

		resp, err := noRedirect.Do(req)
		if err != nil {
			return "", err
		}
		location := resp.Header.Get("Location")
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if location != "" {
			return c.download(ctx, location)
		}
		if resp.StatusCode == http.StatusOK && readErr == nil {
			// Inline body without redirect: the operation finished fast.
			var inline struct {
				Data json.RawMessage `json:"data"`
			}
			if json.Unmarshal(body, &inline) == nil && len(inline.Data) > 0 {
				if text, ok, err := decodeContent(inline.Data); err == nil && ok {
					return text, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return "", fmt.Errorf("export operation %s timed out", operationID)
}

// download fetches the finished export artifact from a presigned URL.
func (c *Client) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}

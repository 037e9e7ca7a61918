// CLAUDE:SUMMARY Content platform collaborator: Fetch/Update client interface plus the JSON-over-HTTP implementation.
// Package platform talks to the external content store. Auth, retry policy
// and transport-level resilience stay out here at the boundary; the engine
// only ever sees the Client interface.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound is returned when the platform has no content for the id.
var ErrNotFound = errors.New("platform: content not found")

// Content is the fetched state of one piece of platform content.
type Content struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// UpdateRequest carries the new serialized content plus opaque metadata the
// platform understands (title, status, taxonomy).
type UpdateRequest struct {
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Client is the engine's view of the content platform.
type Client interface {
	Fetch(ctx context.Context, contentID string) (*Content, error)
	Update(ctx context.Context, contentID string, req UpdateRequest) error
}

// HTTPClient implements Client against a REST endpoint with bearer auth.
// No retries: a failed update surfaces immediately and the session keeps its
// state, so the caller can retry at its own pace.
type HTTPClient struct {
	base  string
	token string
	http  *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPDoer replaces the underlying http.Client, mainly for tests.
func WithHTTPDoer(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

// NewHTTPClient creates a client for the given base URL and bearer token.
func NewHTTPClient(base, token string, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *HTTPClient) Fetch(ctx context.Context, contentID string) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.contentURL(contentID), nil)
	if err != nil {
		return nil, err
	}
	h.authorize(req)

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, contentID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform fetch: unexpected status %d", resp.StatusCode)
	}

	var c Content
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return nil, fmt.Errorf("platform fetch: decode: %w", err)
	}
	if c.ID == "" {
		c.ID = contentID
	}
	return &c, nil
}

func (h *HTTPClient) Update(ctx context.Context, contentID string, ur UpdateRequest) error {
	body, err := json.Marshal(ur)
	if err != nil {
		return fmt.Errorf("platform update: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.contentURL(contentID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	h.authorize(req)

	resp, err := h.http.Do(req)
	if err != nil {
		return fmt.Errorf("platform update: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, contentID)
	default:
		return fmt.Errorf("platform update: unexpected status %d", resp.StatusCode)
	}
}

func (h *HTTPClient) contentURL(contentID string) string {
	return h.base + "/content/" + url.PathEscape(contentID)
}

func (h *HTTPClient) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}

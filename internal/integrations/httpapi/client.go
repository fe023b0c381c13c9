// Package httpapi is the small JSON-over-HTTP client shared by the vendor
// adapters that have no Go SDK.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lexdesk/internal/practice"
)

// DefaultTimeout bounds every vendor call.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a vendor response is read.
const maxResponseSize = 8 << 20

// Client sends JSON requests to one vendor API.
type Client struct {
	BaseURL string
	Header  http.Header
	HTTP    *http.Client
}

// New returns a Client for baseURL with the given fixed headers.
func New(baseURL string, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Header:  header,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Do sends body (JSON-encoded when non-nil) to BaseURL+path and returns the
// raw response body. Responses with status >= 400 become errors wrapping
// practice.ErrUpstream.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", practice.ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", practice.ErrUpstream, path, err)
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// StatusError is a vendor response with an error status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(body))
}

// Unwrap makes every StatusError match practice.ErrUpstream.
func (e *StatusError) Unwrap() error {
	return practice.ErrUpstream
}

// Package research searches published court opinions on CourtListener.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lexdesk/internal/config"
	"lexdesk/internal/integrations/httpapi"
	"lexdesk/internal/practice"
)

const defaultBaseURL = "https://www.courtlistener.com/api/rest/v3"

// Client calls the CourtListener search API.
type Client struct {
	api *httpapi.Client
}

// NewClient returns a client, or nil when no API key is configured.
func NewClient(cfg config.CourtListenerConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	h := http.Header{}
	h.Set("Authorization", "Token "+cfg.APIKey)
	return &Client{api: httpapi.New(baseURL, h)}
}

// SearchRequest is a full-text opinion search. Court is optional.
type SearchRequest struct {
	Query string `json:"query"`
	Court string `json:"court"`
	Page  int    `json:"page"`
}

// Search returns CourtListener's result page unchanged.
func (c *Client) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", practice.ErrInvalidInput)
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("page", strconv.Itoa(page))
	if req.Court != "" {
		q.Set("court", req.Court)
	}

	data, err := c.api.Do(ctx, http.MethodGet, "/search/", q, nil)
	if err != nil {
		return nil, fmt.Errorf("searching opinions: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: search returned invalid JSON", practice.ErrUpstream)
	}
	return data, nil
}

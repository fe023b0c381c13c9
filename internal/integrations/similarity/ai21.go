// Package similarity scores the semantic similarity of two texts with AI21.
package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lexdesk/internal/config"
	"lexdesk/internal/integrations/httpapi"
	"lexdesk/internal/practice"
)

const defaultBaseURL = "https://api.ai21.com/studio/v1"

// Client calls the AI21 similarity endpoint.
type Client struct {
	api *httpapi.Client
}

// NewClient returns a client, or nil when no API key is configured.
func NewClient(cfg config.AI21Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+cfg.APIKey)
	return &Client{api: httpapi.New(baseURL, h)}
}

type similarityRequest struct {
	Texts []string `json:"texts"`
}

// Score returns the vendor's similarity response unchanged.
func (c *Client) Score(ctx context.Context, text1, text2 string) (json.RawMessage, error) {
	if strings.TrimSpace(text1) == "" || strings.TrimSpace(text2) == "" {
		return nil, fmt.Errorf("%w: two texts are required", practice.ErrInvalidInput)
	}
	data, err := c.api.Do(ctx, http.MethodPost, "/experimental/similarity", nil,
		similarityRequest{Texts: []string{text1, text2}})
	if err != nil {
		return nil, fmt.Errorf("calculating similarity: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: similarity returned invalid JSON", practice.ErrUpstream)
	}
	return data, nil
}

// Package timetracking relays timer actions to Clockify.
package timetracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lexdesk/internal/config"
	"lexdesk/internal/integrations/httpapi"
	"lexdesk/internal/practice"
)

const defaultBaseURL = "https://api.clockify.me/api/v1"

// Clockify implements practice.TimeTracker against one workspace.
type Clockify struct {
	api         *httpapi.Client
	workspaceID string
	now         func() time.Time
}

var _ practice.TimeTracker = (*Clockify)(nil)

// NewClockify returns a tracker, or nil when the API key or workspace is
// not configured.
func NewClockify(cfg config.ClockifyConfig) *Clockify {
	if cfg.APIKey == "" || cfg.WorkspaceID == "" {
		return nil
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	h := http.Header{}
	h.Set("X-Api-Key", cfg.APIKey)
	return &Clockify{api: httpapi.New(baseURL, h), workspaceID: cfg.WorkspaceID, now: time.Now}
}

type startRequest struct {
	Start       string  `json:"start"`
	Description string  `json:"description"`
	ProjectID   string  `json:"projectId,omitempty"`
	Billable    bool    `json:"billable"`
	HourlyRate  float64 `json:"hourlyRate"`
}

type stopRequest struct {
	End string `json:"end"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// timeEntry is the subset of Clockify's time entry response that is mirrored.
type timeEntry struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Billable     bool   `json:"billable"`
	TimeInterval struct {
		Start *time.Time `json:"start"`
		End   *time.Time `json:"end"`
	} `json:"timeInterval"`
	HourlyRate *struct {
		Amount float64 `json:"amount"`
	} `json:"hourlyRate"`
}

// Track sends one action. Start creates a new entry; stop, pause and resume
// act on the user's running entry.
func (c *Clockify) Track(ctx context.Context, action string, req practice.TrackRequest) (*practice.TrackedEntry, error) {
	var (
		method string
		path   string
		body   any
	)
	ts := c.now().UTC().Format(time.RFC3339)
	switch action {
	case practice.TrackStart:
		method, path = http.MethodPost, "/workspaces/"+c.workspaceID+"/time-entries"
		body = startRequest{
			Start:       ts,
			Description: req.Description,
			ProjectID:   req.ProjectID,
			Billable:    req.Billable,
			HourlyRate:  req.HourlyRate,
		}
	case practice.TrackStop:
		method, path = http.MethodPatch, "/workspaces/"+c.workspaceID+"/user/time-entries"
		body = stopRequest{End: ts}
	case practice.TrackPause:
		method, path = http.MethodPatch, "/workspaces/"+c.workspaceID+"/user/time-entries"
		body = statusRequest{Status: "PAUSED"}
	case practice.TrackResume:
		method, path = http.MethodPatch, "/workspaces/"+c.workspaceID+"/user/time-entries"
		body = statusRequest{Status: "RUNNING"}
	default:
		return nil, fmt.Errorf("%w: invalid action %q", practice.ErrInvalidInput, action)
	}

	data, err := c.api.Do(ctx, method, path, nil, body)
	if err != nil {
		return nil, fmt.Errorf("clockify %s: %w", action, err)
	}
	return parseEntry(data)
}

// parseEntry extracts the mirrored fields. The raw payload is kept for
// callers that relay it unchanged.
func parseEntry(data []byte) (*practice.TrackedEntry, error) {
	out := &practice.TrackedEntry{Raw: data}
	if len(data) == 0 {
		return out, nil
	}
	var e timeEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: decoding clockify response: %v", practice.ErrUpstream, err)
	}
	out.ExternalID = e.ID
	out.Description = e.Description
	out.Billable = e.Billable
	if e.TimeInterval.Start != nil {
		out.Start = *e.TimeInterval.Start
	}
	out.End = e.TimeInterval.End
	if e.HourlyRate != nil {
		// Clockify reports rates in cents.
		out.HourlyRate = e.HourlyRate.Amount / 100
	}
	return out, nil
}

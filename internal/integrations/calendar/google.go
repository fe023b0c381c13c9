// Package calendar reads and writes the user's primary Google Calendar with
// the access token supplied by the browser.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"lexdesk/internal/config"
	"lexdesk/internal/practice"
)

const primaryCalendar = "primary"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Client builds per-request calendar services from user access tokens.
type Client struct {
	oauth   *oauth2.Config
	baseURL string
}

// NewClient returns a client, or nil when OAuth credentials are missing.
func NewClient(cfg config.CalendarConfig) *Client {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     googleEndpoint,
			Scopes:       []string{gcal.CalendarEventsScope},
		},
		baseURL: cfg.BaseURL,
	}
}

func (c *Client) service(ctx context.Context, accessToken string) (*gcal.Service, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: no access token provided", practice.ErrInvalidInput)
	}
	ts := c.oauth.TokenSource(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if c.baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(c.baseURL, "/")+"/"))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return svc, nil
}

// ParseDay accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// start of that day in the timestamp's zone (UTC for a bare date).
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", practice.ErrInvalidInput, s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
}

// EventsForDay lists single events on the primary calendar from day 00:00
// to the next day 00:00, ordered by start time.
func (c *Client) EventsForDay(ctx context.Context, accessToken string, day time.Time) ([]*gcal.Event, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	events, err := svc.Events.List(primaryCalendar).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(start.AddDate(0, 0, 1).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, upstream("listing events", err)
	}
	if events.Items == nil {
		return []*gcal.Event{}, nil
	}
	return events.Items, nil
}

// TaskEvent is the task data mirrored into the calendar.
type TaskEvent struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// CreateDeadlineEvent inserts a zero-length UTC event at the task deadline.
func (c *Client) CreateDeadlineEvent(ctx context.Context, accessToken string, task TaskEvent) (*gcal.Event, error) {
	if task.Deadline == nil {
		return nil, fmt.Errorf("%w: task has no deadline", practice.ErrInvalidInput)
	}
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	at := &gcal.EventDateTime{DateTime: task.Deadline.UTC().Format(time.RFC3339), TimeZone: "UTC"}
	ev, err := svc.Events.Insert(primaryCalendar, &gcal.Event{
		Summary:     task.Title,
		Description: task.Description,
		Start:       at,
		End:         at,
	}).Context(ctx).Do()
	if err != nil {
		return nil, upstream("creating event", err)
	}
	return ev, nil
}

func upstream(what string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%w: calendar %s: status %d: %s", practice.ErrUpstream, what, gerr.Code, gerr.Message)
	}
	return fmt.Errorf("%w: calendar %s: %v", practice.ErrUpstream, what, err)
}

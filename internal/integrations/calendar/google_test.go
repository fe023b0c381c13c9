package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexdesk/internal/config"
	"lexdesk/internal/practice"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(config.CalendarConfig{ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL})
	require.NotNil(t, c)
	return c
}

func TestNewClient_Unconfigured(t *testing.T) {
	assert.Nil(t, NewClient(config.CalendarConfig{ClientID: "id"}))
	assert.Nil(t, NewClient(config.CalendarConfig{ClientSecret: "secret"}))
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2025-01-15", want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{in: "2025-01-15T18:45:00Z", want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{in: "15/01/2025", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDay(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, practice.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "ParseDay() = %v, want %v", got, tt.want)
		})
	}
}

func TestClient_EventsForDay(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		gotQuery = map[string]string{
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"singleEvents": q.Get("singleEvents"),
			"orderBy":      q.Get("orderBy"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"ev1","summary":"Hearing"}]}`))
	})

	events, err := c.EventsForDay(context.Background(), "tok", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Hearing", events[0].Summary)
	assert.Equal(t, map[string]string{
		"timeMin":      "2025-01-15T00:00:00Z",
		"timeMax":      "2025-01-16T00:00:00Z",
		"singleEvents": "true",
		"orderBy":      "startTime",
	}, gotQuery)
}

func TestClient_EventsForDay_NoToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})
	_, err := c.EventsForDay(context.Background(), "", time.Now())
	require.ErrorIs(t, err, practice.ErrInvalidInput)
}

func TestClient_CreateDeadlineEvent(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ev9","summary":"File motion"}`))
	})

	deadline := time.Date(2025, 2, 1, 17, 0, 0, 0, time.UTC)
	ev, err := c.CreateDeadlineEvent(context.Background(), "tok", TaskEvent{
		Title:       "File motion",
		Description: "Motion to dismiss",
		Deadline:    &deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, "ev9", ev.Id)

	assert.Equal(t, "File motion", body["summary"])
	assert.Equal(t, "Motion to dismiss", body["description"])
	start := body["start"].(map[string]any)
	assert.Equal(t, "2025-02-01T17:00:00Z", start["dateTime"])
	assert.Equal(t, "UTC", start["timeZone"])
	assert.Equal(t, body["start"], body["end"])
}

func TestClient_CreateDeadlineEvent_Errors(t *testing.T) {
	t.Run("no deadline", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected without a deadline")
		})
		_, err := c.CreateDeadlineEvent(context.Background(), "tok", TaskEvent{Title: "x"})
		require.ErrorIs(t, err, practice.ErrInvalidInput)
	})

	t.Run("upstream failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
		})
		deadline := time.Now()
		_, err := c.CreateDeadlineEvent(context.Background(), "expired", TaskEvent{Title: "x", Deadline: &deadline})
		require.Error(t, err)
		assert.True(t, errors.Is(err, practice.ErrUpstream))
	})
}

package practice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lexdesk/internal/practice"
	"lexdesk/internal/testutil"
)

func TestService_RecordTimeEntry(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	user := env.AddUser(t, "ada@example.com")
	other := env.AddUser(t, "bob@example.com")
	c := mustCreateCase(t, env, user.ID, practice.CaseInput{Title: "Smith v. Jones"})

	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	e, err := env.Service.RecordTimeEntry(ctx, user.ID, practice.TimeEntryInput{
		CaseID:      &c.ID,
		Description: "Drafting motion",
		Start:       start,
		End:         end,
		Billable:    true,
		HourlyRate:  200,
	})
	if err != nil {
		t.Fatalf("RecordTimeEntry() error = %v", err)
	}
	if e.DurationSeconds != 5400 || e.Status != practice.TimeCompleted || e.Hours() != 1.5 {
		t.Errorf("entry = %+v, want 5400s completed", e)
	}

	tests := []struct {
		name   string
		userID string
		in     practice.TimeEntryInput
		want   error
	}{
		{"missing times", user.ID, practice.TimeEntryInput{}, practice.ErrInvalidInput},
		{"end before start", user.ID, practice.TimeEntryInput{Start: end, End: start}, practice.ErrInvalidInput},
		{"zero length", user.ID, practice.TimeEntryInput{Start: start, End: start}, practice.ErrInvalidInput},
		{"negative rate", user.ID, practice.TimeEntryInput{Start: start, End: end, HourlyRate: -1}, practice.ErrInvalidInput},
		{"invisible case", other.ID, practice.TimeEntryInput{CaseID: &c.ID, Start: start, End: end}, practice.ErrNotFound},
		{"anonymous", "", practice.TimeEntryInput{Start: start, End: end}, practice.ErrUnauthenticated},
	}
	for _, tt := range tests {
		if _, err := env.Service.RecordTimeEntry(ctx, tt.userID, tt.in); !errors.Is(err, tt.want) {
			t.Errorf("%s: RecordTimeEntry() error = %v, want %v", tt.name, err, tt.want)
		}
	}

	from := start.Add(-time.Hour)
	to := start.Add(time.Hour)
	list, err := env.Service.ListTimeEntries(ctx, user.ID, &from, &to)
	if err != nil {
		t.Fatalf("ListTimeEntries() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != e.ID {
		t.Errorf("ListTimeEntries() = %+v, want [%s]", list, e.ID)
	}
	later := end
	if list, _ := env.Service.ListTimeEntries(ctx, user.ID, &later, nil); len(list) != 0 {
		t.Errorf("ListTimeEntries(from end) = %d entries, want 0", len(list))
	}
}

func TestService_TrackTime(t *testing.T) {
	ctx := context.Background()

	t.Run("start then stop by external id", func(t *testing.T) {
		env := testutil.NewEnv(t)
		user := env.AddUser(t, "ada@example.com")
		started := env.Clock.Now()
		env.Tracker.Entry = &practice.TrackedEntry{
			ExternalID:  "te-1",
			Description: "Client call",
			Start:       started,
			Raw:         []byte(`{"id":"te-1"}`),
		}
		req := practice.TrackRequest{Description: "Client call", Billable: true, HourlyRate: 150}

		tracked, entry, err := env.Service.TrackTime(ctx, user.ID, "START", req)
		if err != nil {
			t.Fatalf("TrackTime(start) error = %v", err)
		}
		if string(tracked.Raw) != `{"id":"te-1"}` {
			t.Errorf("Raw = %s, want the upstream payload", tracked.Raw)
		}
		if entry.Status != practice.TimeRunning || entry.ExternalID != "te-1" || !entry.Billable || entry.HourlyRate != 150 {
			t.Errorf("entry = %+v, want running te-1", entry)
		}

		env.Clock.Advance(90 * time.Minute)
		_, stopped, err := env.Service.TrackTime(ctx, user.ID, practice.TrackStop, req)
		if err != nil {
			t.Fatalf("TrackTime(stop) error = %v", err)
		}
		if stopped.ID != entry.ID || stopped.Status != practice.TimeCompleted || stopped.DurationSeconds != 5400 {
			t.Errorf("stopped = %+v, want entry %s completed after 5400s", stopped, entry.ID)
		}
		if stopped.EndTime == nil || !stopped.EndTime.Equal(env.Clock.Now()) {
			t.Errorf("EndTime = %v, want %v", stopped.EndTime, env.Clock.Now())
		}

		// Replaying the stop converges on the same row.
		if _, _, err := env.Service.TrackTime(ctx, user.ID, practice.TrackStop, req); err != nil {
			t.Fatalf("TrackTime(stop again) error = %v", err)
		}
		list, err := env.Service.ListTimeEntries(ctx, user.ID, nil, nil)
		if err != nil {
			t.Fatalf("ListTimeEntries() error = %v", err)
		}
		if len(list) != 1 || list[0].DurationSeconds != 5400 {
			t.Errorf("entries = %+v, want one 5400s entry", list)
		}
		if got := strings.Join(env.Tracker.Actions(), ","); got != "start,stop,stop" {
			t.Errorf("tracker actions = %s, want start,stop,stop", got)
		}
	})

	t.Run("without external id updates the latest unfinished entry", func(t *testing.T) {
		env := testutil.NewEnv(t)
		user := env.AddUser(t, "ada@example.com")
		req := practice.TrackRequest{Description: "Research"}

		_, first, err := env.Service.TrackTime(ctx, user.ID, practice.TrackStart, req)
		if err != nil {
			t.Fatalf("TrackTime(start) error = %v", err)
		}
		if first.Description != "Research" || !first.StartTime.Equal(env.Clock.Now()) {
			t.Errorf("entry = %+v, want Research started now", first)
		}

		env.Clock.Advance(30 * time.Minute)
		_, paused, err := env.Service.TrackTime(ctx, user.ID, practice.TrackPause, req)
		if err != nil {
			t.Fatalf("TrackTime(pause) error = %v", err)
		}
		if paused.ID != first.ID || paused.Status != practice.TimePaused || paused.DurationSeconds != 1800 {
			t.Errorf("paused = %+v, want entry %s paused after 1800s", paused, first.ID)
		}

		_, resumed, err := env.Service.TrackTime(ctx, user.ID, practice.TrackResume, req)
		if err != nil {
			t.Fatalf("TrackTime(resume) error = %v", err)
		}
		if resumed.ID != first.ID || resumed.Status != practice.TimeRunning {
			t.Errorf("resumed = %+v, want entry %s running", resumed, first.ID)
		}
	})

	t.Run("nothing running", func(t *testing.T) {
		env := testutil.NewEnv(t)
		user := env.AddUser(t, "ada@example.com")

		if _, _, err := env.Service.TrackTime(ctx, user.ID, practice.TrackPause, practice.TrackRequest{}); !errors.Is(err, practice.ErrNotFound) {
			t.Errorf("TrackTime(pause) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("tracker failure records nothing", func(t *testing.T) {
		env := testutil.NewEnv(t)
		user := env.AddUser(t, "ada@example.com")
		env.Tracker.Err = errors.New("503")

		if _, _, err := env.Service.TrackTime(ctx, user.ID, practice.TrackStart, practice.TrackRequest{}); err == nil {
			t.Fatal("TrackTime() error = nil, want tracker error")
		}
		if list, _ := env.Service.ListTimeEntries(ctx, user.ID, nil, nil); len(list) != 0 {
			t.Errorf("entries = %d, want 0", len(list))
		}
	})

	t.Run("invalid action is not relayed", func(t *testing.T) {
		env := testutil.NewEnv(t)
		user := env.AddUser(t, "ada@example.com")

		if _, _, err := env.Service.TrackTime(ctx, user.ID, "rewind", practice.TrackRequest{}); !errors.Is(err, practice.ErrInvalidInput) {
			t.Errorf("TrackTime(rewind) error = %v, want ErrInvalidInput", err)
		}
		if n := len(env.Tracker.Actions()); n != 0 {
			t.Errorf("tracker saw %d actions, want 0", n)
		}
	})

	t.Run("unconfigured tracker", func(t *testing.T) {
		env := testutil.NewEnv(t, testutil.WithoutIntegrations())
		user := env.AddUser(t, "ada@example.com")

		if _, _, err := env.Service.TrackTime(ctx, user.ID, practice.TrackStart, practice.TrackRequest{}); !errors.Is(err, practice.ErrUpstream) {
			t.Errorf("TrackTime() error = %v, want ErrUpstream", err)
		}
	})
}

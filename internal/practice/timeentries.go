package practice

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Time-tracking actions relayed to the external tracker.
const (
	TrackStart  = "start"
	TrackStop   = "stop"
	TrackPause  = "pause"
	TrackResume = "resume"
)

// TrackRequest is the entry data sent with a time-tracking action.
type TrackRequest struct {
	Description string  `json:"description"`
	ProjectID   string  `json:"projectId,omitempty"`
	CaseID      *string `json:"caseId,omitempty"`
	ClientID    *string `json:"clientId,omitempty"`
	Billable    bool    `json:"billable"`
	HourlyRate  float64 `json:"hourlyRate"`
}

// TrackedEntry is the tracker's view of a time entry after an action.
type TrackedEntry struct {
	ExternalID  string
	Description string
	Start       time.Time
	End         *time.Time
	Billable    bool
	HourlyRate  float64
	Raw         []byte // upstream payload, returned verbatim to callers
}

// TimeTracker relays actions to an external time-tracking service.
type TimeTracker interface {
	Track(ctx context.Context, action string, req TrackRequest) (*TrackedEntry, error)
}

// TimeEntryInput is a manually recorded time entry.
type TimeEntryInput struct {
	CaseID      *string   `json:"case_id"`
	ClientID    *string   `json:"client_id"`
	Description string    `json:"description"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	Billable    bool      `json:"billable"`
	HourlyRate  float64   `json:"hourly_rate"`
}

func validAction(action string) bool {
	switch action {
	case TrackStart, TrackStop, TrackPause, TrackResume:
		return true
	}
	return false
}

// RecordTimeEntry stores a completed entry without involving the tracker.
func (s *Service) RecordTimeEntry(ctx context.Context, userID string, in TimeEntryInput) (*TimeEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return nil, fmt.Errorf("%w: start and end time are required", ErrInvalidInput)
	}
	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	if in.HourlyRate < 0 {
		return nil, fmt.Errorf("%w: hourly rate cannot be negative", ErrInvalidInput)
	}
	if in.CaseID != nil {
		if _, err := s.loadCase(ctx, userID, *in.CaseID, false); err != nil {
			return nil, err
		}
	}
	now := s.clock.Now()
	end := in.End
	e := &TimeEntry{
		ID:              s.idgen.New(),
		UserID:          userID,
		CaseID:          in.CaseID,
		ClientID:        in.ClientID,
		Description:     in.Description,
		StartTime:       in.Start,
		EndTime:         &end,
		DurationSeconds: int64(in.End.Sub(in.Start) / time.Second),
		Billable:        in.Billable,
		HourlyRate:      in.HourlyRate,
		Status:          TimeCompleted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateTimeEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("creating time entry: %w", err)
	}
	return e, nil
}

// ListTimeEntries returns the user's entries that started within [from, to].
// Nil bounds are open.
func (s *Service) ListTimeEntries(ctx context.Context, userID string, from, to *time.Time) ([]*TimeEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListTimeEntries(ctx, TimeEntryQuery{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	return entries, nil
}

// TrackTime relays an action to the external tracker and then mirrors the
// result locally. The two writes are not atomic; replaying the same action
// converges because the local write is an upsert keyed by the external id.
func (s *Service) TrackTime(ctx context.Context, userID, action string, req TrackRequest) (*TrackedEntry, *TimeEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, nil, err
	}
	action = strings.ToLower(action)
	if !validAction(action) {
		return nil, nil, fmt.Errorf("%w: invalid action %q", ErrInvalidInput, action)
	}
	if s.tracker == nil {
		return nil, nil, fmt.Errorf("%w: time tracking is not configured", ErrUpstream)
	}
	tracked, err := s.tracker.Track(ctx, action, req)
	if err != nil {
		return nil, nil, fmt.Errorf("relaying %s: %w", action, err)
	}
	entry, err := s.ApplyTimeTracking(ctx, userID, action, req, tracked)
	if err != nil {
		s.logger.Error("local time entry out of sync with tracker", "action", action, "external_id", tracked.ExternalID, "error", err)
		return tracked, nil, err
	}
	return tracked, entry, nil
}

// ApplyTimeTracking upserts the local time entry for a tracker response.
// Without an external id the user's latest unfinished entry is updated.
func (s *Service) ApplyTimeTracking(ctx context.Context, userID, action string, req TrackRequest, tracked *TrackedEntry) (*TimeEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !validAction(action) {
		return nil, fmt.Errorf("%w: invalid action %q", ErrInvalidInput, action)
	}
	if tracked == nil {
		tracked = &TrackedEntry{}
	}
	now := s.clock.Now()

	var existing *TimeEntry
	if action != TrackStart || tracked.ExternalID != "" {
		e, err := s.findTrackedEntry(ctx, userID, tracked.ExternalID)
		if err != nil {
			return nil, err
		}
		existing = e
	}

	if existing == nil {
		if action != TrackStart {
			return nil, fmt.Errorf("no running time entry to %s: %w", action, ErrNotFound)
		}
		start := tracked.Start
		if start.IsZero() {
			start = now
		}
		description := tracked.Description
		if description == "" {
			description = req.Description
		}
		e := &TimeEntry{
			ID:          s.idgen.New(),
			UserID:      userID,
			CaseID:      req.CaseID,
			ClientID:    req.ClientID,
			ExternalID:  tracked.ExternalID,
			Description: description,
			StartTime:   start,
			Billable:    req.Billable || tracked.Billable,
			HourlyRate:  req.HourlyRate,
			Status:      TimeRunning,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if e.HourlyRate == 0 {
			e.HourlyRate = tracked.HourlyRate
		}
		if err := s.store.CreateTimeEntry(ctx, e); err != nil {
			return nil, fmt.Errorf("creating time entry: %w", err)
		}
		s.logger.Info("time entry started", "time_entry_id", e.ID, "external_id", e.ExternalID)
		return e, nil
	}

	switch action {
	case TrackStart, TrackResume:
		existing.Status = TimeRunning
	case TrackPause:
		existing.Status = TimePaused
		existing.DurationSeconds = int64(now.Sub(existing.StartTime) / time.Second)
	case TrackStop:
		end := now
		if tracked.End != nil {
			end = *tracked.End
		}
		existing.Status = TimeCompleted
		existing.EndTime = &end
		existing.DurationSeconds = int64(end.Sub(existing.StartTime) / time.Second)
	}
	if existing.ExternalID == "" {
		existing.ExternalID = tracked.ExternalID
	}
	existing.UpdatedAt = now
	if err := s.store.UpdateTimeEntry(ctx, existing); err != nil {
		return nil, fmt.Errorf("updating time entry: %w", err)
	}
	s.logger.Info("time entry updated", "time_entry_id", existing.ID, "status", existing.Status)
	return existing, nil
}

func (s *Service) findTrackedEntry(ctx context.Context, userID, externalID string) (*TimeEntry, error) {
	if externalID != "" {
		e, err := s.store.FindTimeEntryByExternalID(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("finding time entry: %w", err)
		}
		if e != nil && e.UserID != userID {
			return nil, fmt.Errorf("time entry %s: %w", externalID, ErrForbidden)
		}
		return e, nil
	}
	entries, err := s.store.ListTimeEntries(ctx, TimeEntryQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	var latest *TimeEntry
	for _, e := range entries {
		if e.Status == TimeCompleted {
			continue
		}
		if latest == nil || e.StartTime.After(latest.StartTime) {
			latest = e
		}
	}
	return latest, nil
}

package practice

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CaseInput holds the fields of the case form.
type CaseInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          CaseStatus `json:"status"`
	Priority        Priority   `json:"priority_level"`
	Deadline        *time.Time `json:"deadline"`
	ClientID        *string    `json:"client_id"`
	FolderID        *string    `json:"folder_id"`
	IsTask          bool       `json:"is_task"`
	InvolvedParties []Party    `json:"involved_parties"`
}

// CasePatch holds an edit. Nil fields are left unchanged.
type CasePatch struct {
	Title           *string     `json:"title"`
	Description     *string     `json:"description"`
	Status          *CaseStatus `json:"status"`
	Priority        *Priority   `json:"priority_level"`
	ClientID        *string     `json:"client_id"`
	InvolvedParties *[]Party    `json:"involved_parties"`
}

// CaseFilter is the case list filter. Empty or "all" values match everything.
type CaseFilter struct {
	Search   string
	Status   string
	Deadline DeadlineBucket
	Sort     string // "asc" or "desc" by creation time
}

func (s *Service) CreateCase(ctx context.Context, userID string, in CaseInput) (*Case, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = CaseActive
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, in.Priority)
	}
	if in.FolderID != nil {
		if err := s.checkFolder(ctx, FolderCases, *in.FolderID, userID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	c := &Case{
		ID:              s.idgen.New(),
		UserID:          userID,
		ClientID:        in.ClientID,
		FolderID:        in.FolderID,
		Title:           in.Title,
		Description:     in.Description,
		Status:          in.Status,
		Priority:        in.Priority,
		Deadline:        in.Deadline,
		IsTask:          in.IsTask,
		InvolvedParties: in.InvolvedParties,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateCase(ctx, c); err != nil {
		return nil, fmt.Errorf("creating case: %w", err)
	}
	s.logger.Info("case created", "case_id", c.ID, "is_task", c.IsTask)
	return c, nil
}

// GetCase returns a case the user owns or was granted.
func (s *Service) GetCase(ctx context.Context, userID, id string) (*Case, error) {
	return s.loadCase(ctx, userID, id, false)
}

func (s *Service) loadCase(ctx context.Context, userID, id string, write bool) (*Case, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	c, err := s.store.FindCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding case: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	ok, err := s.canAccessCase(ctx, c, userID, write)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Do not reveal cases the user cannot see.
		if !write {
			return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("case %s: %w", id, ErrForbidden)
	}
	return c, nil
}

func (s *Service) UpdateCase(ctx context.Context, userID, id string, p CasePatch) (*Case, error) {
	c, err := s.loadCase(ctx, userID, id, true)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *p.Status)
		}
		c.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *p.Priority)
		}
		c.Priority = *p.Priority
	}
	if p.ClientID != nil {
		if *p.ClientID == "" {
			c.ClientID = nil
		} else {
			c.ClientID = p.ClientID
		}
	}
	if p.InvolvedParties != nil {
		c.InvolvedParties = *p.InvolvedParties
	}
	return c, s.saveCase(ctx, c)
}

func (s *Service) saveCase(ctx context.Context, c *Case) error {
	c.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCase(ctx, c); err != nil {
		return fmt.Errorf("updating case: %w", err)
	}
	return nil
}

// SetDeadline replaces a case deadline. Only the deadline column is written,
// so concurrent edits to other fields survive; concurrent deadline writes are
// last-write-wins.
func (s *Service) SetDeadline(ctx context.Context, userID, id string, deadline *time.Time) (*Case, error) {
	c, err := s.loadCase(ctx, userID, id, true)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.store.UpdateCaseDeadline(ctx, id, deadline, now); err != nil {
		return nil, fmt.Errorf("setting deadline: %w", err)
	}
	c.Deadline = deadline
	c.UpdatedAt = now
	s.logger.Debug("case deadline set", "case_id", id)
	return c, nil
}

// ToggleTask flips whether a case is listed as a task.
func (s *Service) ToggleTask(ctx context.Context, userID, id string) (*Case, error) {
	c, err := s.loadCase(ctx, userID, id, true)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.store.UpdateCaseTask(ctx, id, !c.IsTask, now); err != nil {
		return nil, fmt.Errorf("toggling task: %w", err)
	}
	c.IsTask = !c.IsTask
	c.UpdatedAt = now
	return c, nil
}

// DeleteTask removes a task. Cases that are not tasks are never deleted.
func (s *Service) DeleteTask(ctx context.Context, userID, id string) error {
	c, err := s.loadCase(ctx, userID, id, true)
	if err != nil {
		return err
	}
	if !c.IsTask {
		return fmt.Errorf("%w: only tasks can be deleted", ErrInvalidInput)
	}
	if err := s.store.DeleteCase(ctx, id); err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	s.logger.Info("task deleted", "case_id", id)
	return nil
}

// ListCases returns the visible cases matching f. Title substring, status and
// ordering are applied by the store; the deadline bucket is applied here.
func (s *Service) ListCases(ctx context.Context, userID string, f CaseFilter) ([]*Case, error) {
	return s.queryCases(ctx, userID, f, nil)
}

// ListTasks is ListCases restricted to tasks, newest first by default.
func (s *Service) ListTasks(ctx context.Context, userID string, f CaseFilter) ([]*Case, error) {
	isTask := true
	return s.queryCases(ctx, userID, f, &isTask)
}

func (s *Service) queryCases(ctx context.Context, userID string, f CaseFilter, isTask *bool) ([]*Case, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	status, err := normalizeStatus(f.Status)
	if err != nil {
		return nil, err
	}
	var ascending bool
	switch strings.ToLower(f.Sort) {
	case "asc":
		ascending = true
	case "", "desc":
	default:
		return nil, fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, f.Sort)
	}

	cases, err := s.store.QueryCases(ctx, CaseQuery{
		VisibleTo: userID,
		Search:    strings.TrimSpace(f.Search),
		Status:    status,
		IsTask:    isTask,
		Ascending: ascending,
	})
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}

	now := s.clock.Now()
	out := cases[:0]
	for _, c := range cases {
		if f.Deadline.Matches(c.Deadline, now) {
			out = append(out, c)
		}
	}
	return out, nil
}

// MoveCase applies a drag-and-drop gesture to a case's folder. It reports
// whether anything was written.
func (s *Service) MoveCase(ctx context.Context, userID string, d Drag) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}
	folderID, ok := d.target(FolderCases)
	if !ok {
		return false, nil
	}
	if _, err := s.loadCase(ctx, userID, d.ItemID, true); err != nil {
		return false, err
	}
	if folderID != nil {
		if err := s.checkFolder(ctx, FolderCases, *folderID, userID); err != nil {
			return false, err
		}
	}
	if err := s.store.UpdateCaseFolder(ctx, d.ItemID, folderID, s.clock.Now()); err != nil {
		return false, fmt.Errorf("moving case: %w", err)
	}
	s.logger.Info("case moved", "case_id", d.ItemID, "folder_id", deref(folderID))
	return true, nil
}

// ShareCase grants the profile registered under email access to a case and
// notifies them.
func (s *Service) ShareCase(ctx context.Context, userID, caseID, email string, level PermissionLevel) (*Permission, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if level == "" {
		level = PermissionRead
	}
	if !level.Valid() {
		return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, level)
	}
	c, err := s.loadCase(ctx, userID, caseID, true)
	if err != nil {
		return nil, err
	}
	p, err := s.grant(ctx, ResourceCase, caseID, userID, email, level)
	if err != nil {
		return nil, err
	}
	n := CaseNotification{RecipientEmail: email, CaseTitle: c.Title, Type: "share"}
	if subject, body, err := n.render(); err == nil {
		s.notify(ctx, email, subject, body)
	}
	return p, nil
}

func (s *Service) grant(ctx context.Context, kind ResourceKind, resourceID, grantedBy, email string, level PermissionLevel) (*Permission, error) {
	profile, err := s.store.FindProfileByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	p := &Permission{
		ID:           s.idgen.New(),
		ResourceKind: kind,
		ResourceID:   resourceID,
		UserID:       profile.ID,
		Level:        level,
		GrantedBy:    grantedBy,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.GrantPermission(ctx, p); err != nil {
		return nil, fmt.Errorf("granting permission: %w", err)
	}
	s.logger.Info("permission granted", "kind", kind, "resource_id", resourceID, "user_id", profile.ID, "level", level)
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

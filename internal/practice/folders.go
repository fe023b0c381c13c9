package practice

import (
	"context"
	"fmt"
	"strings"
)

func (s *Service) CreateFolder(ctx context.Context, userID string, kind FolderKind, name string, parentID *string) (*Folder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown folder kind %q", ErrInvalidInput, kind)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: folder name is required", ErrInvalidInput)
	}
	if parentID != nil {
		if err := s.checkFolder(ctx, kind, *parentID, userID); err != nil {
			return nil, err
		}
	}
	now := s.clock.Now()
	f := &Folder{
		ID:        s.idgen.New(),
		Kind:      kind,
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateFolder(ctx, f); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}
	s.logger.Info("folder created", "kind", kind, "folder_id", f.ID)
	return f, nil
}

// ListFolders returns the user's folders of a kind directly under parentID,
// or the top-level folders when parentID is nil.
func (s *Service) ListFolders(ctx context.Context, userID string, kind FolderKind, parentID *string) ([]*Folder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown folder kind %q", ErrInvalidInput, kind)
	}
	all, err := s.store.ListFolders(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	var out []*Folder
	for _, f := range all {
		if deref(f.ParentID) == deref(parentID) {
			out = append(out, f)
		}
	}
	return out, nil
}

// MoveFolder re-parents a folder. A nil parent moves it to the top level.
// Moving a folder under itself or one of its descendants is rejected.
func (s *Service) MoveFolder(ctx context.Context, userID string, kind FolderKind, id string, parentID *string) (*Folder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown folder kind %q", ErrInvalidInput, kind)
	}
	all, err := s.store.ListFolders(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	byID := make(map[string]*Folder, len(all))
	for _, f := range all {
		byID[f.ID] = f
	}
	folder, ok := byID[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	if parentID != nil {
		if _, ok := byID[*parentID]; !ok {
			return nil, fmt.Errorf("folder %s: %w", *parentID, ErrNotFound)
		}
		// Walk up from the new parent; reaching id means a cycle.
		seen := make(map[string]bool)
		for cur := parentID; cur != nil; {
			if *cur == id {
				return nil, fmt.Errorf("%w: folder cannot be moved into itself or a subfolder", ErrInvalidInput)
			}
			if seen[*cur] {
				break
			}
			seen[*cur] = true
			next, ok := byID[*cur]
			if !ok {
				break
			}
			cur = next.ParentID
		}
	}

	now := s.clock.Now()
	if err := s.store.UpdateFolderParent(ctx, kind, id, parentID, now); err != nil {
		return nil, fmt.Errorf("moving folder: %w", err)
	}
	folder.ParentID = parentID
	folder.UpdatedAt = now
	return folder, nil
}

// checkFolder verifies the folder exists and belongs to userID.
func (s *Service) checkFolder(ctx context.Context, kind FolderKind, id, userID string) error {
	f, err := s.store.FindFolder(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("finding folder: %w", err)
	}
	if f == nil || f.UserID != userID {
		return fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	return nil
}

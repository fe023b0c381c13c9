package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexdesk/internal/practice"
)

const caseColumns = `c.id, c.user_id, c.client_id, c.folder_id, c.title, c.description, c.status,
	c.priority_level, c.deadline, c.is_task, c.involved_parties, c.created_at, c.updated_at`

func scanCase(row scanner) (*practice.Case, error) {
	var (
		c                  practice.Case
		clientID, folderID sql.NullString
		deadline           sql.NullString
		parties            string
		created, updated   string
	)
	err := row.Scan(&c.ID, &c.UserID, &clientID, &folderID, &c.Title, &c.Description, &c.Status,
		&c.Priority, &deadline, &c.IsTask, &parties, &created, &updated)
	if err != nil {
		return nil, err
	}
	c.ClientID = stringPtr(clientID)
	c.FolderID = stringPtr(folderID)
	if c.Deadline, err = decodeNullTime(deadline); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(parties), &c.InvolvedParties); err != nil {
		return nil, fmt.Errorf("decoding involved parties of case %s: %w", c.ID, err)
	}
	if c.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func encodeParties(parties []practice.Party) (string, error) {
	if parties == nil {
		parties = []practice.Party{}
	}
	b, err := json.Marshal(parties)
	if err != nil {
		return "", fmt.Errorf("encoding involved parties: %w", err)
	}
	return string(b), nil
}

func (s *SQLiteStore) CreateCase(ctx context.Context, c *practice.Case) error {
	parties, err := encodeParties(c.InvolvedParties)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (id, user_id, client_id, folder_id, title, description, status,
			priority_level, deadline, is_task, involved_parties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, nullString(c.ClientID), nullString(c.FolderID), c.Title, c.Description, c.Status,
		c.Priority, encodeNullTime(c.Deadline), c.IsTask, parties, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting case: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindCase(ctx context.Context, id string) (*practice.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases c WHERE c.id = ?`, id)
	return findOne(scanCase, row)
}

func (s *SQLiteStore) QueryCases(ctx context.Context, q practice.CaseQuery) ([]*practice.Case, error) {
	if q.VisibleTo == "" {
		return nil, fmt.Errorf("%w: case query without a user", practice.ErrInvalidInput)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + caseColumns + ` FROM cases c
		WHERE (c.user_id = ? OR EXISTS (
			SELECT 1 FROM case_permissions p WHERE p.case_id = c.id AND p.user_id = ?))`)
	args := []any{q.VisibleTo, q.VisibleTo}

	if q.Search != "" {
		sb.WriteString(` AND casefold(c.title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(q.Search))
	}
	if q.Status != "" {
		sb.WriteString(` AND c.status = ?`)
		args = append(args, q.Status)
	}
	if q.IsTask != nil {
		sb.WriteString(` AND c.is_task = ?`)
		args = append(args, *q.IsTask)
	}
	if q.Ascending {
		sb.WriteString(` ORDER BY c.created_at ASC, c.id ASC`)
	} else {
		sb.WriteString(` ORDER BY c.created_at DESC, c.id DESC`)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}
	return collect(rows, scanCase)
}

func (s *SQLiteStore) UpdateCase(ctx context.Context, c *practice.Case) error {
	parties, err := encodeParties(c.InvolvedParties)
	if err != nil {
		return err
	}
	return execOne(ctx, s.db, "case "+c.ID, `
		UPDATE cases SET client_id = ?, folder_id = ?, title = ?, description = ?, status = ?,
			priority_level = ?, deadline = ?, is_task = ?, involved_parties = ?, updated_at = ?
		WHERE id = ?`,
		nullString(c.ClientID), nullString(c.FolderID), c.Title, c.Description, c.Status,
		c.Priority, encodeNullTime(c.Deadline), c.IsTask, parties, encodeTime(c.UpdatedAt), c.ID)
}

func (s *SQLiteStore) UpdateCaseFolder(ctx context.Context, id string, folderID *string, at time.Time) error {
	return execOne(ctx, s.db, "case "+id,
		`UPDATE cases SET folder_id = ?, updated_at = ? WHERE id = ?`,
		nullString(folderID), encodeTime(at), id)
}

func (s *SQLiteStore) UpdateCaseDeadline(ctx context.Context, id string, deadline *time.Time, at time.Time) error {
	return execOne(ctx, s.db, "case "+id,
		`UPDATE cases SET deadline = ?, updated_at = ? WHERE id = ?`,
		encodeNullTime(deadline), encodeTime(at), id)
}

func (s *SQLiteStore) UpdateCaseTask(ctx context.Context, id string, isTask bool, at time.Time) error {
	return execOne(ctx, s.db, "case "+id,
		`UPDATE cases SET is_task = ?, updated_at = ? WHERE id = ?`,
		isTask, encodeTime(at), id)
}

func (s *SQLiteStore) DeleteCase(ctx context.Context, id string) error {
	return execOne(ctx, s.db, "case "+id, `DELETE FROM cases WHERE id = ?`, id)
}

// Permissions

func permissionTable(kind practice.ResourceKind) (table, column string, err error) {
	switch kind {
	case practice.ResourceCase:
		return "case_permissions", "case_id", nil
	case practice.ResourceDocument:
		return "document_permissions", "document_id", nil
	}
	return "", "", fmt.Errorf("unknown resource kind %q", kind)
}

// GrantPermission inserts p, or replaces the level of an existing grant for
// the same resource and user. p.ID is set to the stored row's id.
func (s *SQLiteStore) GrantPermission(ctx context.Context, p *practice.Permission) error {
	table, column, err := permissionTable(p.ResourceKind)
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO `+table+` (id, `+column+`, user_id, permission, granted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (`+column+`, user_id) DO UPDATE SET
			permission = excluded.permission,
			granted_by = excluded.granted_by
		RETURNING id`,
		p.ID, p.ResourceID, p.UserID, p.Level, p.GrantedBy, encodeTime(p.CreatedAt),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("granting permission: %w", err)
	}
	return nil
}

func scanPermission(kind practice.ResourceKind) func(scanner) (*practice.Permission, error) {
	return func(row scanner) (*practice.Permission, error) {
		var (
			p       practice.Permission
			created string
		)
		if err := row.Scan(&p.ID, &p.ResourceID, &p.UserID, &p.Level, &p.GrantedBy, &created); err != nil {
			return nil, err
		}
		p.ResourceKind = kind
		var err error
		if p.CreatedAt, err = decodeTime(created); err != nil {
			return nil, err
		}
		return &p, nil
	}
}

func (s *SQLiteStore) FindPermission(ctx context.Context, kind practice.ResourceKind, resourceID, userID string) (*practice.Permission, error) {
	table, column, err := permissionTable(kind)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, `+column+`, user_id, permission, granted_by, created_at FROM `+table+`
		WHERE `+column+` = ? AND user_id = ?`, resourceID, userID)
	p, err := scanPermission(kind)(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding permission: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListPermissions(ctx context.Context, kind practice.ResourceKind, resourceID string) ([]*practice.Permission, error) {
	table, column, err := permissionTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, `+column+`, user_id, permission, granted_by, created_at FROM `+table+`
		WHERE `+column+` = ? ORDER BY created_at, id`, resourceID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	return collect(rows, scanPermission(kind))
}

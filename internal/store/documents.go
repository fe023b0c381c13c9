package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lexdesk/internal/practice"
)

const documentColumns = `d.id, d.uploader_id, d.folder_id, d.title, d.description, d.file_path,
	d.file_type, d.file_size, d.encrypted, d.created_at, d.updated_at, COALESCE(f.name, '')`

const documentFrom = ` FROM documents d LEFT JOIN document_folders f ON f.id = d.folder_id`

func scanDocument(row scanner) (*practice.Document, error) {
	var (
		d                practice.Document
		folderID         sql.NullString
		created, updated string
	)
	err := row.Scan(&d.ID, &d.UploaderID, &folderID, &d.Title, &d.Description, &d.FilePath,
		&d.FileType, &d.FileSize, &d.Encrypted, &created, &updated, &d.FolderName)
	if err != nil {
		return nil, err
	}
	d.FolderID = stringPtr(folderID)
	if d.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, d *practice.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, uploader_id, folder_id, title, description, file_path,
			file_type, file_size, encrypted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UploaderID, nullString(d.FolderID), d.Title, d.Description, d.FilePath,
		d.FileType, d.FileSize, d.Encrypted, encodeTime(d.CreatedAt), encodeTime(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// FindDocument returns the document with its folder name and permissions.
func (s *SQLiteStore) FindDocument(ctx context.Context, id string) (*practice.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+documentFrom+` WHERE d.id = ?`, id)
	d, err := findOne(scanDocument, row)
	if err != nil {
		return nil, fmt.Errorf("finding document: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	if d.Permissions, err = s.ListPermissions(ctx, practice.ResourceDocument, d.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// QueryDocuments returns visible documents newest first, with folder names
// and permissions joined.
func (s *SQLiteStore) QueryDocuments(ctx context.Context, q practice.DocumentQuery) ([]*practice.Document, error) {
	if q.VisibleTo == "" {
		return nil, fmt.Errorf("%w: document query without a user", practice.ErrInvalidInput)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + documentColumns + documentFrom + `
		WHERE (d.uploader_id = ? OR EXISTS (
			SELECT 1 FROM document_permissions p WHERE p.document_id = d.id AND p.user_id = ?))`)
	args := []any{q.VisibleTo, q.VisibleTo}

	if q.FolderID != nil {
		sb.WriteString(` AND d.folder_id = ?`)
		args = append(args, *q.FolderID)
	}
	if q.Search != "" {
		sb.WriteString(` AND casefold(d.title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(q.Search))
	}
	sb.WriteString(` ORDER BY d.created_at DESC, d.id DESC`)
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	docs, err := collect(rows, scanDocument)
	if err != nil {
		return nil, err
	}

	// rows are closed by now; a memory database has a single connection.
	for _, d := range docs {
		if d.Permissions, err = s.ListPermissions(ctx, practice.ResourceDocument, d.ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (s *SQLiteStore) UpdateDocumentFolder(ctx context.Context, id string, folderID *string, at time.Time) error {
	return execOne(ctx, s.db, "document "+id,
		`UPDATE documents SET folder_id = ?, updated_at = ? WHERE id = ?`,
		nullString(folderID), encodeTime(at), id)
}

func (s *SQLiteStore) CreateAuditEntry(ctx context.Context, e *practice.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_audit_logs (id, document_id, user_id, action_type, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.DocumentID, e.UserID, e.Action, e.Detail, encodeTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func scanAuditEntry(row scanner) (*practice.AuditEntry, error) {
	var (
		e       practice.AuditEntry
		created string
	)
	if err := row.Scan(&e.ID, &e.DocumentID, &e.UserID, &e.Action, &e.Detail, &created); err != nil {
		return nil, err
	}
	var err error
	if e.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) ListAuditEntries(ctx context.Context, documentID string) ([]*practice.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, user_id, action_type, detail, created_at
		FROM document_audit_logs WHERE document_id = ? ORDER BY created_at, id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	return collect(rows, scanAuditEntry)
}

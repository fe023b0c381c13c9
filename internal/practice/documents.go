package practice

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DefaultPageSize is the document list page size when none is given.
const DefaultPageSize = 10

// Document audit actions.
const (
	AuditUpload   = "upload"
	AuditDownload = "download"
	AuditMove     = "move"
	AuditShare    = "share"
)

// DocumentInput holds the metadata of an uploaded document.
type DocumentInput struct {
	Title       string
	Description string
	FolderID    *string
}

// DocumentFilter selects one page of documents. A nil FolderID lists every
// folder. Page is 1-based.
type DocumentFilter struct {
	FolderID *string
	Search   string
	Page     int
	PageSize int
}

// DocumentPage is one page of a document list. HasNextPage is set when the
// page came back full.
type DocumentPage struct {
	Documents   []*Document `json:"documents"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	HasNextPage bool        `json:"has_next_page"`
}

// UploadDocument validates, stores and records a document. The blob is
// written before the metadata row; if the row cannot be written the blob is
// deleted again.
func (s *Service) UploadDocument(ctx context.Context, userID string, in DocumentInput, u Upload) (*Document, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	data, err := readUpload(u)
	if err != nil {
		return nil, err
	}
	if in.FolderID != nil {
		if err := s.checkFolder(ctx, FolderDocuments, *in.FolderID, userID); err != nil {
			return nil, err
		}
	}

	key := s.storageKey(u.FileName, u.ContentType)
	encrypted, err := s.putBlob(ctx, BucketDocuments, key, data)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	d := &Document{
		ID:          s.idgen.New(),
		UploaderID:  userID,
		FolderID:    in.FolderID,
		Title:       in.Title,
		Description: in.Description,
		FilePath:    key,
		FileType:    normalizeMIME(u.ContentType),
		FileSize:    int64(len(data)),
		Encrypted:   encrypted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateDocument(ctx, d); err != nil {
		s.removeOrphan(ctx, BucketDocuments, key)
		return nil, fmt.Errorf("creating document: %w", err)
	}
	s.audit(ctx, d.ID, userID, AuditUpload, d.FileType)
	s.logger.Info("document uploaded", "document_id", d.ID, "size", d.FileSize, "encrypted", encrypted)
	return d, nil
}

// DownloadDocument writes a document's content to w. Encrypted documents
// need an unlocked DecryptionContext.
func (s *Service) DownloadDocument(ctx context.Context, userID, id string, dc DecryptionContext, w io.Writer) (*Document, error) {
	d, err := s.loadDocument(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.getBlob(ctx, BucketDocuments, d.FilePath, d.Encrypted, dc, w); err != nil {
		return nil, err
	}
	s.audit(ctx, d.ID, userID, AuditDownload, "")
	return d, nil
}

// GetDocument returns a document with its permissions.
func (s *Service) GetDocument(ctx context.Context, userID, id string) (*Document, error) {
	d, err := s.loadDocument(ctx, userID, id, false)
	if err != nil {
		return nil, err
	}
	perms, err := s.store.ListPermissions(ctx, ResourceDocument, id)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	d.Permissions = perms
	return d, nil
}

func (s *Service) loadDocument(ctx context.Context, userID, id string, write bool) (*Document, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	d, err := s.store.FindDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding document: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	ok, err := s.canAccessDocument(ctx, d, userID, write)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !write {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("document %s: %w", id, ErrForbidden)
	}
	return d, nil
}

// ListDocuments returns one page of the visible documents, newest first.
func (s *Service) ListDocuments(ctx context.Context, userID string, f DocumentFilter) (*DocumentPage, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	docs, err := s.store.QueryDocuments(ctx, DocumentQuery{
		VisibleTo: userID,
		FolderID:  f.FolderID,
		Search:    strings.TrimSpace(f.Search),
		Limit:     f.PageSize,
		Offset:    (f.Page - 1) * f.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return &DocumentPage{
		Documents:   docs,
		Page:        f.Page,
		PageSize:    f.PageSize,
		HasNextPage: len(docs) == f.PageSize,
	}, nil
}

// MoveDocument applies a drag-and-drop gesture to a document's folder. It
// reports whether anything was written.
func (s *Service) MoveDocument(ctx context.Context, userID string, d Drag) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}
	folderID, ok := d.target(FolderDocuments)
	if !ok {
		return false, nil
	}
	if _, err := s.loadDocument(ctx, userID, d.ItemID, true); err != nil {
		return false, err
	}
	if folderID != nil {
		if err := s.checkFolder(ctx, FolderDocuments, *folderID, userID); err != nil {
			return false, err
		}
	}
	if err := s.store.UpdateDocumentFolder(ctx, d.ItemID, folderID, s.clock.Now()); err != nil {
		return false, fmt.Errorf("moving document: %w", err)
	}
	s.audit(ctx, d.ItemID, userID, AuditMove, deref(folderID))
	return true, nil
}

// ShareDocument grants the profile registered under email access to a
// document.
func (s *Service) ShareDocument(ctx context.Context, userID, documentID, email string, level PermissionLevel) (*Permission, error) {
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
	if _, err := s.loadDocument(ctx, userID, documentID, true); err != nil {
		return nil, err
	}
	p, err := s.grant(ctx, ResourceDocument, documentID, userID, email, level)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, documentID, userID, AuditShare, p.UserID+":"+string(level))
	return p, nil
}

// DocumentAudit returns the audit trail of a document, oldest first.
func (s *Service) DocumentAudit(ctx context.Context, userID, id string) ([]*AuditEntry, error) {
	if _, err := s.loadDocument(ctx, userID, id, false); err != nil {
		return nil, err
	}
	entries, err := s.store.ListAuditEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	return entries, nil
}

// audit records an action; failures are logged and otherwise ignored.
func (s *Service) audit(ctx context.Context, documentID, userID, action, detail string) {
	e := &AuditEntry{
		ID:         s.idgen.New(),
		DocumentID: documentID,
		UserID:     userID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.CreateAuditEntry(ctx, e); err != nil {
		s.logger.Warn("writing audit entry failed", "document_id", documentID, "action", action, "error", err)
	}
}

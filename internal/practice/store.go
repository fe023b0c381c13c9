package practice

import (
	"context"
	"time"
)

// CaseQuery holds the predicates the store can apply in a single query.
// Zero values are no-op predicates.
type CaseQuery struct {
	VisibleTo string // owner or permission holder; required
	Search    string // case-insensitive substring of title
	Status    CaseStatus
	IsTask    *bool
	Ascending bool // order by created_at
}

// DocumentQuery selects documents for a paged list.
type DocumentQuery struct {
	VisibleTo string
	FolderID  *string
	Search    string
	Limit     int
	Offset    int
}

// TimeEntryQuery selects time entries by owner and start time. Bounds are
// inclusive; nil bounds are open.
type TimeEntryQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

// InvoiceQuery selects invoices by owner, inclusive creation range and status.
type InvoiceQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Status InvoiceStatus
}

// Store provides the persistent store operations used by the service.
// Find* methods return (nil, nil) when the row does not exist.
type Store interface {
	// Profiles and sessions

	CreateProfile(ctx context.Context, p *Profile) error
	FindProfileByID(ctx context.Context, id string) (*Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	// UpdateProfile writes the user-editable columns of p.
	UpdateProfile(ctx context.Context, p *Profile) error
	CreateSession(ctx context.Context, s *Session) error
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error

	// Clients

	CreateClient(ctx context.Context, c *Client) error
	FindClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context, userID string) ([]*Client, error)

	// Folders

	CreateFolder(ctx context.Context, f *Folder) error
	FindFolder(ctx context.Context, kind FolderKind, id string) (*Folder, error)
	ListFolders(ctx context.Context, kind FolderKind, userID string) ([]*Folder, error)
	UpdateFolderParent(ctx context.Context, kind FolderKind, id string, parentID *string, at time.Time) error

	// Cases

	CreateCase(ctx context.Context, c *Case) error
	FindCase(ctx context.Context, id string) (*Case, error)
	QueryCases(ctx context.Context, q CaseQuery) ([]*Case, error)
	// UpdateCase writes every mutable column. Concurrent writers are last-write-wins.
	UpdateCase(ctx context.Context, c *Case) error
	UpdateCaseFolder(ctx context.Context, id string, folderID *string, at time.Time) error
	UpdateCaseDeadline(ctx context.Context, id string, deadline *time.Time, at time.Time) error
	UpdateCaseTask(ctx context.Context, id string, isTask bool, at time.Time) error
	DeleteCase(ctx context.Context, id string) error

	// Permissions

	GrantPermission(ctx context.Context, p *Permission) error
	FindPermission(ctx context.Context, kind ResourceKind, resourceID, userID string) (*Permission, error)
	ListPermissions(ctx context.Context, kind ResourceKind, resourceID string) ([]*Permission, error)

	// Documents

	CreateDocument(ctx context.Context, d *Document) error
	FindDocument(ctx context.Context, id string) (*Document, error)
	QueryDocuments(ctx context.Context, q DocumentQuery) ([]*Document, error)
	UpdateDocumentFolder(ctx context.Context, id string, folderID *string, at time.Time) error
	CreateAuditEntry(ctx context.Context, e *AuditEntry) error
	ListAuditEntries(ctx context.Context, documentID string) ([]*AuditEntry, error)

	// Messages

	CreateMessage(ctx context.Context, m *Message) error
	FindMessage(ctx context.Context, id string) (*Message, error)
	ListConversation(ctx context.Context, userID, otherID string) ([]*Message, error)
	UpdateMessageStatus(ctx context.Context, id string, status MessageStatus, at time.Time) error
	CreateAttachment(ctx context.Context, a *Attachment) error
	FindAttachment(ctx context.Context, id string) (*Attachment, error)
	ListAttachments(ctx context.Context, messageID string) ([]*Attachment, error)

	// Time entries

	CreateTimeEntry(ctx context.Context, e *TimeEntry) error
	FindTimeEntryByExternalID(ctx context.Context, externalID string) (*TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, e *TimeEntry) error
	ListTimeEntries(ctx context.Context, q TimeEntryQuery) ([]*TimeEntry, error)

	// Invoices

	CreateInvoice(ctx context.Context, inv *Invoice) error
	ListInvoices(ctx context.Context, q InvoiceQuery) ([]*Invoice, error)
	// UpdateInvoiceStatusByExternalID returns the number of rows changed.
	UpdateInvoiceStatusByExternalID(ctx context.Context, externalID string, status InvoiceStatus, at time.Time) (int64, error)

	Close() error
}

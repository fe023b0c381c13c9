package practice

import "time"

// CaseStatus is the lifecycle state of a case or task.
type CaseStatus string

const (
	CaseActive  CaseStatus = "active"
	CasePending CaseStatus = "pending"
	CaseClosed  CaseStatus = "closed"

	// CaseCompleted is the finished state used by tasks.
	CaseCompleted CaseStatus = "completed"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseActive, CasePending, CaseClosed, CaseCompleted:
		return true
	}
	return false
}

// Priority is the urgency level of a case.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Profile is an authenticated user of the system.
type Profile struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	FullName           string    `json:"full_name"`
	Role               string    `json:"role"` // "client", "lawyer" or "admin"
	PhoneNumber        string    `json:"phone_number"`
	Timezone           string    `json:"timezone"` // IANA name
	Language           string    `json:"language"`
	BarNumber          string    `json:"bar_number"`
	EmailNotifications bool      `json:"email_notifications"`
	SMSNotifications   bool      `json:"sms_notifications"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Session binds a bearer token (stored hashed) to a profile.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Client is a customer of the practice.
type Client struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Party is one entry in a case's involved-parties list.
type Party struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Contact string `json:"contact,omitempty"`
}

// Case is a legal matter. With IsTask set it is shown as a task instead.
type Case struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ClientID        *string    `json:"client_id,omitempty"`
	FolderID        *string    `json:"folder_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          CaseStatus `json:"status"`
	Priority        Priority   `json:"priority_level"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	IsTask          bool       `json:"is_task"`
	InvolvedParties []Party    `json:"involved_parties"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FolderKind separates the case and document folder hierarchies.
type FolderKind string

const (
	FolderCases     FolderKind = "cases"
	FolderDocuments FolderKind = "documents"
)

func (k FolderKind) Valid() bool {
	return k == FolderCases || k == FolderDocuments
}

// Folder is a node in a parent-pointer tree.
type Folder struct {
	ID        string     `json:"id"`
	Kind      FolderKind `json:"kind"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	ParentID  *string    `json:"parent_folder_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Document is the metadata row for an uploaded file.
type Document struct {
	ID          string    `json:"id"`
	UploaderID  string    `json:"uploader_id"`
	FolderID    *string   `json:"folder_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	Encrypted   bool      `json:"encrypted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields
	Permissions []*Permission `json:"document_permissions,omitempty"`
	FolderName  string        `json:"folder_name,omitempty"`
}

// ResourceKind names what a Permission row grants access to.
type ResourceKind string

const (
	ResourceCase     ResourceKind = "case"
	ResourceDocument ResourceKind = "document"
)

// PermissionLevel is read or write access.
type PermissionLevel string

const (
	PermissionRead  PermissionLevel = "read"
	PermissionWrite PermissionLevel = "write"
)

func (l PermissionLevel) Valid() bool {
	return l == PermissionRead || l == PermissionWrite
}

// Permission grants a user access to a case or document.
type Permission struct {
	ID           string          `json:"id"`
	ResourceKind ResourceKind    `json:"resource_kind"`
	ResourceID   string          `json:"resource_id"`
	UserID       string          `json:"user_id"`
	Level        PermissionLevel `json:"permission"`
	GrantedBy    string          `json:"granted_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuditEntry records an action taken on a document.
type AuditEntry struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action_type"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageStatus tracks delivery of a message.
type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

func (s MessageStatus) rank() int {
	switch s {
	case MessageSent:
		return 1
	case MessageDelivered:
		return 2
	case MessageRead:
		return 3
	}
	return 0
}

// Message is a direct message between two profiles.
type Message struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"sender_id"`
	ReceiverID string        `json:"receiver_id"`
	Content    string        `json:"content"`
	Status     MessageStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	Attachments []*Attachment `json:"attachments,omitempty"`
}

// Attachment is file metadata attached to a message.
type Attachment struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"message_id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	StoragePath string    `json:"storage_path"`
	Encrypted   bool      `json:"encrypted"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimeEntryStatus is the state of a tracked time entry.
type TimeEntryStatus string

const (
	TimeRunning   TimeEntryStatus = "running"
	TimePaused    TimeEntryStatus = "paused"
	TimeCompleted TimeEntryStatus = "completed"
)

func (s TimeEntryStatus) Valid() bool {
	switch s {
	case TimeRunning, TimePaused, TimeCompleted:
		return true
	}
	return false
}

// TimeEntry is a billable or non-billable duration tied to a case.
type TimeEntry struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	CaseID          *string         `json:"case_id,omitempty"`
	ClientID        *string         `json:"client_id,omitempty"`
	ExternalID      string          `json:"clockify_id,omitempty"`
	Description     string          `json:"description"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         *time.Time      `json:"end_time,omitempty"`
	DurationSeconds int64           `json:"duration_seconds"`
	Billable        bool            `json:"billable"`
	HourlyRate      float64         `json:"hourly_rate"`
	Status          TimeEntryStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Hours returns the recorded duration in hours.
func (e *TimeEntry) Hours() float64 {
	return float64(e.DurationSeconds) / 3600
}

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// Invoice is a billing record, optionally mirrored at the payment processor.
type Invoice struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	ClientID    string        `json:"client_id"`
	ExternalID  string        `json:"stripe_invoice_id,omitempty"`
	AmountCents int64         `json:"amount_cents"`
	Status      InvoiceStatus `json:"status"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Notes       string        `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Amount returns the invoice amount in currency units.
func (i *Invoice) Amount() float64 {
	return float64(i.AmountCents) / 100
}

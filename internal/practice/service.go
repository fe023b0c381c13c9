package practice

import (
	"context"
	"fmt"
	"time"
)

// PaymentProcessor mirrors invoices at an external payment processor.
type PaymentProcessor interface {
	// EnsureCustomer returns the processor's customer id for the given
	// contact, creating the customer when none exists for the email.
	EnsureCustomer(ctx context.Context, c CustomerInfo) (string, error)
	// CreateInvoice creates and finalizes an invoice, returning its id.
	CreateInvoice(ctx context.Context, customerID string, amountCents int64, description string) (string, error)
}

// CustomerInfo is the contact data sent to the payment processor.
type CustomerInfo struct {
	Email string
	Name  string
	Phone string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Deps holds the collaborators of a Service. Store and Blobs are required.
type Deps struct {
	Store     Store
	Blobs     BlobStore
	Encryptor Encryptor
	Payments  PaymentProcessor
	Mailer    Mailer
	Tracker   TimeTracker
	Logger    Logger
	Clock     Clock
	IDGen     IDGenerator
}

// Service implements the practice-management operations on top of the
// persistent store and the object store.
type Service struct {
	store     Store
	blobs     BlobStore
	encryptor Encryptor
	payments  PaymentProcessor
	mailer    Mailer
	tracker   TimeTracker
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a Service. A missing Logger discards records, a missing
// Clock reads UTC wall time and a missing IDGen produces UUIDs.
func NewService(deps Deps) *Service {
	s := &Service{
		store:     deps.Store,
		blobs:     deps.Blobs,
		encryptor: deps.Encryptor,
		payments:  deps.Payments,
		mailer:    deps.Mailer,
		tracker:   deps.Tracker,
		logger:    deps.Logger,
		clock:     deps.Clock,
		idgen:     deps.IDGen,
	}
	if s.logger == nil {
		s.logger = DiscardLogger()
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.idgen == nil {
		s.idgen = UUIDs()
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func requireUser(userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// notify sends an email and logs instead of failing when delivery breaks.
func (s *Service) notify(ctx context.Context, to, subject, html string) {
	if s.mailer == nil || to == "" {
		return
	}
	if err := s.mailer.Send(ctx, to, subject, html); err != nil {
		s.logger.Warn("email notification failed", "to", to, "subject", subject, "error", err)
	}
}

// canAccessCase reports whether userID owns the case or holds a grant on it.
func (s *Service) canAccessCase(ctx context.Context, c *Case, userID string, write bool) (bool, error) {
	if c.UserID == userID {
		return true, nil
	}
	p, err := s.store.FindPermission(ctx, ResourceCase, c.ID, userID)
	if err != nil {
		return false, fmt.Errorf("finding case permission: %w", err)
	}
	if p == nil {
		return false, nil
	}
	return !write || p.Level == PermissionWrite, nil
}

func (s *Service) canAccessDocument(ctx context.Context, d *Document, userID string, write bool) (bool, error) {
	if d.UploaderID == userID {
		return true, nil
	}
	p, err := s.store.FindPermission(ctx, ResourceDocument, d.ID, userID)
	if err != nil {
		return false, fmt.Errorf("finding document permission: %w", err)
	}
	if p == nil {
		return false, nil
	}
	return !write || p.Level == PermissionWrite, nil
}

package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"lexdesk/internal/blob"
	"lexdesk/internal/practice"
)

// SentEmail is one message captured by RecordingMailer.
type SentEmail struct {
	To      string
	Subject string
	HTML    string
}

// RecordingMailer captures sent email. Err, when set, is returned by Send.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []SentEmail
	Err  error
}

func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{}
}

func (m *RecordingMailer) Send(ctx context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentEmail{To: to, Subject: subject, HTML: html})
	return nil
}

// Sent returns a copy of the captured messages.
func (m *RecordingMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.sent...)
}

// FakePayments is an in-memory payment processor. Customers are keyed by
// email; invoice ids are "in_1", "in_2", etc.
type FakePayments struct {
	mu        sync.Mutex
	customers map[string]string
	invoices  []FakeInvoice
	Err       error
}

// FakeInvoice is an invoice created at FakePayments.
type FakeInvoice struct {
	ID          string
	CustomerID  string
	AmountCents int64
	Description string
}

func NewFakePayments() *FakePayments {
	return &FakePayments{customers: make(map[string]string)}
}

func (p *FakePayments) EnsureCustomer(ctx context.Context, c practice.CustomerInfo) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	if id, ok := p.customers[c.Email]; ok {
		return id, nil
	}
	id := fmt.Sprintf("cus_%d", len(p.customers)+1)
	p.customers[c.Email] = id
	return id, nil
}

func (p *FakePayments) CreateInvoice(ctx context.Context, customerID string, amountCents int64, description string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	inv := FakeInvoice{
		ID:          fmt.Sprintf("in_%d", len(p.invoices)+1),
		CustomerID:  customerID,
		AmountCents: amountCents,
		Description: description,
	}
	p.invoices = append(p.invoices, inv)
	return inv.ID, nil
}

// Invoices returns a copy of the created invoices.
func (p *FakePayments) Invoices() []FakeInvoice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]FakeInvoice(nil), p.invoices...)
}

// FakeTracker replies to every action with Entry (or Err) and records the
// actions it received.
type FakeTracker struct {
	mu      sync.Mutex
	actions []string
	Entry   *practice.TrackedEntry
	Err     error
}

func NewFakeTracker() *FakeTracker {
	return &FakeTracker{}
}

func (f *FakeTracker) Track(ctx context.Context, action string, req practice.TrackRequest) (*practice.TrackedEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Entry == nil {
		return &practice.TrackedEntry{Raw: []byte(`{}`)}, nil
	}
	e := *f.Entry
	return &e, nil
}

// Actions returns the actions received so far.
func (f *FakeTracker) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

// RecordingBlobStore wraps a MemoryStore and counts the calls made to it.
// PutErr, when set, fails every Put.
type RecordingBlobStore struct {
	*blob.MemoryStore

	mu      sync.Mutex
	puts    int
	deletes int
	PutErr  error
}

func NewRecordingBlobStore() *RecordingBlobStore {
	return &RecordingBlobStore{MemoryStore: blob.NewMemoryStore()}
}

func (s *RecordingBlobStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	s.mu.Lock()
	s.puts++
	err := s.PutErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Put(ctx, bucket, key, r, size)
}

func (s *RecordingBlobStore) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.MemoryStore.Delete(ctx, bucket, key)
}

// Puts returns the number of Put calls.
func (s *RecordingBlobStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Deletes returns the number of Delete calls.
func (s *RecordingBlobStore) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

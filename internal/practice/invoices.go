package practice

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Payment processor event kinds that change invoice status.
const (
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// InvoiceInput holds the create-invoice request.
type InvoiceInput struct {
	ClientID    string     `json:"client_id"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// PaymentEvent is a verified payment processor event.
type PaymentEvent struct {
	Type              string
	ExternalInvoiceID string
}

// InvoiceFilter selects invoices by creation range and status.
type InvoiceFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}

// CreateInvoice records a draft invoice for one of the user's clients. When
// a payment processor is configured the invoice is first created there and
// its id stored on the row.
func (s *Service) CreateInvoice(ctx context.Context, userID string, in InvoiceInput) (*Invoice, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	if !(in.Amount > 0) || math.IsInf(in.Amount, 0) {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	cents := int64(math.Round(in.Amount * 100))

	client, err := s.store.FindClient(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("finding client: %w", err)
	}
	if client == nil || client.UserID != userID {
		return nil, fmt.Errorf("client %s: %w", in.ClientID, ErrNotFound)
	}

	var externalID string
	if s.payments != nil {
		customerID, err := s.payments.EnsureCustomer(ctx, CustomerInfo{
			Email: client.Email,
			Name:  client.Name,
			Phone: client.Phone,
		})
		if err != nil {
			return nil, fmt.Errorf("ensuring customer: %w", err)
		}
		externalID, err = s.payments.CreateInvoice(ctx, customerID, cents, in.Description)
		if err != nil {
			return nil, fmt.Errorf("creating processor invoice: %w", err)
		}
	}

	now := s.clock.Now()
	inv := &Invoice{
		ID:          s.idgen.New(),
		UserID:      userID,
		ClientID:    client.ID,
		ExternalID:  externalID,
		AmountCents: cents,
		Status:      InvoiceDraft,
		DueDate:     in.DueDate,
		Notes:       in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		if externalID != "" {
			s.logger.Error("processor invoice has no local row", "external_id", externalID, "error", err)
		}
		return nil, fmt.Errorf("creating invoice: %w", err)
	}
	s.logger.Info("invoice created", "invoice_id", inv.ID, "client_id", client.ID, "amount_cents", cents)
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, userID string, f InvoiceFilter) ([]*Invoice, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	var status InvoiceStatus
	if f.Status != "" && f.Status != "all" {
		status = InvoiceStatus(f.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown invoice status %q", ErrInvalidInput, f.Status)
		}
	}
	invoices, err := s.store.ListInvoices(ctx, InvoiceQuery{UserID: userID, From: f.From, To: f.To, Status: status})
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

// ApplyPaymentEvent maps a verified processor event onto invoice status.
// Only paid and payment-failed events change anything; it reports whether a
// row was updated.
func (s *Service) ApplyPaymentEvent(ctx context.Context, ev PaymentEvent) (bool, error) {
	var status InvoiceStatus
	switch ev.Type {
	case EventInvoicePaid:
		status = InvoicePaid
	case EventInvoicePaymentFailed:
		status = InvoiceOverdue
	default:
		s.logger.Debug("ignoring payment event", "type", ev.Type)
		return false, nil
	}
	if ev.ExternalInvoiceID == "" {
		return false, fmt.Errorf("%w: event has no invoice id", ErrInvalidInput)
	}
	n, err := s.store.UpdateInvoiceStatusByExternalID(ctx, ev.ExternalInvoiceID, status, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("updating invoice status: %w", err)
	}
	if n == 0 {
		s.logger.Warn("payment event for unknown invoice", "type", ev.Type, "external_id", ev.ExternalInvoiceID)
		return false, nil
	}
	s.logger.Info("invoice status updated", "external_id", ev.ExternalInvoiceID, "status", status)
	return true, nil
}

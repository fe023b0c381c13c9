// Package payments mirrors invoices at Stripe and verifies Stripe webhooks.
package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"lexdesk/internal/config"
	"lexdesk/internal/practice"
)

// DaysUntilDue is the payment term set on every Stripe invoice.
const DaysUntilDue = 30

// Stripe implements practice.PaymentProcessor.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

var _ practice.PaymentProcessor = (*Stripe)(nil)

// NewStripe returns a Stripe adapter, or nil when no secret key is
// configured. BaseURL redirects API calls, for tests and mocks.
func NewStripe(cfg config.StripeConfig) *Stripe {
	if cfg.SecretKey == "" {
		return nil
	}
	api := &client.API{}
	var backends *stripe.Backends
	if cfg.BaseURL != "" {
		b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.BaseURL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		})
		backends = &stripe.Backends{API: b, Connect: b, Uploads: b}
	}
	api.Init(cfg.SecretKey, backends)
	return &Stripe{api: api, webhookSecret: cfg.WebhookSecret}
}

// EnsureCustomer returns the first customer with c.Email, creating one when
// none exists.
func (s *Stripe) EnsureCustomer(ctx context.Context, c practice.CustomerInfo) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(c.Email)}
	params.Limit = stripe.Int64(1)
	params.Context = ctx
	it := s.api.Customers.List(params)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", upstream("listing customers", err)
	}

	create := &stripe.CustomerParams{
		Email: stripe.String(c.Email),
		Name:  stripe.String(c.Name),
	}
	if c.Phone != "" {
		create.Phone = stripe.String(c.Phone)
	}
	create.Context = ctx
	cust, err := s.api.Customers.New(create)
	if err != nil {
		return "", upstream("creating customer", err)
	}
	return cust.ID, nil
}

// CreateInvoice creates a send_invoice invoice due in DaysUntilDue days with
// one USD line item, finalizes it and returns its id.
func (s *Stripe) CreateInvoice(ctx context.Context, customerID string, amountCents int64, description string) (string, error) {
	invParams := &stripe.InvoiceParams{
		Customer:         stripe.String(customerID),
		CollectionMethod: stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:     stripe.Int64(DaysUntilDue),
	}
	invParams.Context = ctx
	inv, err := s.api.Invoices.New(invParams)
	if err != nil {
		return "", upstream("creating invoice", err)
	}

	itemParams := &stripe.InvoiceItemParams{
		Customer:    stripe.String(customerID),
		Invoice:     stripe.String(inv.ID),
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String(description),
	}
	itemParams.Context = ctx
	if _, err := s.api.InvoiceItems.New(itemParams); err != nil {
		return "", upstream("adding invoice item", err)
	}

	finParams := &stripe.InvoiceFinalizeInvoiceParams{}
	finParams.Context = ctx
	if _, err := s.api.Invoices.FinalizeInvoice(inv.ID, finParams); err != nil {
		return "", upstream("finalizing invoice", err)
	}
	return inv.ID, nil
}

// ParseWebhook verifies the Stripe-Signature header against the webhook
// secret and extracts the invoice id from invoice events.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (practice.PaymentEvent, error) {
	return ParseWebhook(payload, signature, s.webhookSecret)
}

// ParseWebhook is the stateless form of Stripe.ParseWebhook.
func ParseWebhook(payload []byte, signature, secret string) (practice.PaymentEvent, error) {
	if secret == "" {
		return practice.PaymentEvent{}, fmt.Errorf("%w: webhook secret not configured", practice.ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return practice.PaymentEvent{}, fmt.Errorf("%w: %v", practice.ErrInvalidSignature, err)
	}

	ev := practice.PaymentEvent{Type: string(event.Type)}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		var obj struct {
			ID     string `json:"id"`
			Object string `json:"object"`
		}
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return practice.PaymentEvent{}, fmt.Errorf("%w: decoding event object: %v", practice.ErrInvalidInput, err)
		}
		if obj.Object == "invoice" {
			ev.ExternalInvoiceID = obj.ID
		}
	}
	return ev, nil
}

func upstream(what string, err error) error {
	return fmt.Errorf("%w: stripe %s: %v", practice.ErrUpstream, what, err)
}

// Package email sends transactional email through the Resend API.
package email

import (
	"context"
	"fmt"
	"net/http"

	"lexdesk/internal/config"
	"lexdesk/internal/integrations/httpapi"
	"lexdesk/internal/practice"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultFrom    = "notifications@resend.dev"
)

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendMailer implements practice.Mailer.
type ResendMailer struct {
	api  *httpapi.Client
	from string
}

var _ practice.Mailer = (*ResendMailer)(nil)

// NewResendMailer returns a mailer, or nil when no API key is configured.
func NewResendMailer(cfg config.EmailConfig) *ResendMailer {
	if cfg.ResendAPIKey == "" {
		return nil
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	from := cfg.FromEmail
	if from == "" {
		from = defaultFrom
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+cfg.ResendAPIKey)
	return &ResendMailer{api: httpapi.New(baseURL, h), from: from}
}

// Send delivers one HTML email.
func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	body := resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}
	if _, err := m.api.Do(ctx, http.MethodPost, "/emails", nil, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

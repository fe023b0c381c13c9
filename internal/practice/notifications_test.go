package practice_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lexdesk/internal/practice"
	"lexdesk/internal/testutil"
)

func TestService_NotifyCase(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		n           practice.CaseNotification
		wantSubject string
		wantBody    string
	}{
		{
			name:        "deadline",
			n:           practice.CaseNotification{RecipientEmail: "ada@example.com", CaseTitle: "Smith v. Jones", Type: "deadline", Deadline: "2024-02-01"},
			wantSubject: "Deadline Approaching: Smith v. Jones",
			wantBody:    "deadline coming up on 2024-02-01",
		},
		{
			name:        "share",
			n:           practice.CaseNotification{RecipientEmail: "ada@example.com", CaseTitle: "Smith v. Jones", Type: "share"},
			wantSubject: "Case Shared: Smith v. Jones",
			wantBody:    "A case has been shared with you",
		},
		{
			name:        "update escapes the title",
			n:           practice.CaseNotification{RecipientEmail: "ada@example.com", CaseTitle: "<b>A & B</b>", Type: "update"},
			wantSubject: "Case Updated: <b>A & B</b>",
			wantBody:    "&lt;b&gt;A &amp; B&lt;/b&gt;",
		},
		{
			name:        "title is quoted verbatim",
			n:           practice.CaseNotification{RecipientEmail: "ada@example.com", CaseTitle: "Smith\\Jones\t(appeal)", Type: "update"},
			wantSubject: "Case Updated: Smith\\Jones\t(appeal)",
			wantBody:    "The case \"Smith\\Jones\t(appeal)\" has been updated.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			if err := env.Service.NotifyCase(ctx, tt.n); err != nil {
				t.Fatalf("NotifyCase() error = %v", err)
			}
			sent := env.Mailer.Sent()
			if len(sent) != 1 {
				t.Fatalf("sent %d emails, want 1", len(sent))
			}
			if sent[0].To != tt.n.RecipientEmail || sent[0].Subject != tt.wantSubject {
				t.Errorf("email = %s %q, want %s %q", sent[0].To, sent[0].Subject, tt.n.RecipientEmail, tt.wantSubject)
			}
			if !strings.Contains(sent[0].HTML, tt.wantBody) {
				t.Errorf("body = %s, want it to contain %q", sent[0].HTML, tt.wantBody)
			}
			if strings.Contains(sent[0].HTML, "<b>A") {
				t.Errorf("body = %s, contains unescaped title", sent[0].HTML)
			}
		})
	}
}

func TestService_NotifyCaseErrors(t *testing.T) {
	ctx := context.Background()
	valid := practice.CaseNotification{RecipientEmail: "ada@example.com", CaseTitle: "Smith v. Jones", Type: "share"}

	env := testutil.NewEnv(t)
	for _, n := range []practice.CaseNotification{
		{CaseTitle: "x", Type: "share"},
		{RecipientEmail: "ada@example.com", Type: "share"},
		{RecipientEmail: "ada@example.com", CaseTitle: "x"},
		{RecipientEmail: "ada@example.com", CaseTitle: "x", Type: "reminder"},
	} {
		if err := env.Service.NotifyCase(ctx, n); !errors.Is(err, practice.ErrInvalidInput) {
			t.Errorf("NotifyCase(%+v) error = %v, want ErrInvalidInput", n, err)
		}
	}
	if n := len(env.Mailer.Sent()); n != 0 {
		t.Errorf("sent %d emails, want 0", n)
	}

	boom := errors.New("mail provider down")
	env.Mailer.Err = boom
	if err := env.Service.NotifyCase(ctx, valid); !errors.Is(err, boom) {
		t.Errorf("NotifyCase() error = %v, want %v", err, boom)
	}

	unconfigured := testutil.NewEnv(t, testutil.WithoutIntegrations())
	if err := unconfigured.Service.NotifyCase(ctx, valid); !errors.Is(err, practice.ErrUpstream) {
		t.Errorf("NotifyCase(no mailer) error = %v, want ErrUpstream", err)
	}
}

func TestService_NotifyMessage(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)

	kinds := map[string]string{
		practice.MessageNotifyNew:        "New Message Received",
		practice.MessageNotifyRequest:    "New Message Request",
		practice.MessageNotifyAttachment: "New Message Attachment",
	}
	for kind, subject := range kinds {
		if err := env.Service.NotifyMessage(ctx, "bob@example.com", kind); err != nil {
			t.Fatalf("NotifyMessage(%s) error = %v", kind, err)
		}
		sent := env.Mailer.Sent()
		if last := sent[len(sent)-1]; last.Subject != subject || last.To != "bob@example.com" {
			t.Errorf("NotifyMessage(%s) sent %q to %s, want %q", kind, last.Subject, last.To, subject)
		}
	}

	if err := env.Service.NotifyMessage(ctx, "bob@example.com", "poke"); !errors.Is(err, practice.ErrInvalidInput) {
		t.Errorf("NotifyMessage(poke) error = %v, want ErrInvalidInput", err)
	}
	if err := env.Service.NotifyMessage(ctx, "", practice.MessageNotifyNew); !errors.Is(err, practice.ErrInvalidInput) {
		t.Errorf("NotifyMessage(no receiver) error = %v, want ErrInvalidInput", err)
	}
}

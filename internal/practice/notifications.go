package practice

import (
	"context"
	"fmt"
	"html"
)

// CaseNotification is a case event mailed to a single recipient.
type CaseNotification struct {
	RecipientEmail string `json:"recipientEmail"`
	CaseTitle      string `json:"caseTitle"`
	Type           string `json:"notificationType"` // deadline, share or update
	Deadline       string `json:"deadline,omitempty"`
}

const signature = "<p>Best regards,<br/>Your Legal Team</p>"

func (n CaseNotification) render() (subject, body string, err error) {
	title := html.EscapeString(n.CaseTitle)
	switch n.Type {
	case "deadline":
		return "Deadline Approaching: " + n.CaseTitle,
			fmt.Sprintf("<p>Hello,</p><p>This is a reminder that the case \"%s\" has a deadline coming up on %s.</p><p>Please review the case and take necessary actions.</p>%s",
				title, html.EscapeString(n.Deadline), signature), nil
	case "share":
		return "Case Shared: " + n.CaseTitle,
			fmt.Sprintf("<p>Hello,</p><p>A case has been shared with you: \"%s\"</p><p>You can now access and collaborate on this case.</p>%s",
				title, signature), nil
	case "update":
		return "Case Updated: " + n.CaseTitle,
			fmt.Sprintf("<p>Hello,</p><p>The case \"%s\" has been updated.</p><p>Please review the latest changes.</p>%s",
				title, signature), nil
	}
	return "", "", fmt.Errorf("%w: invalid notification type %q", ErrInvalidInput, n.Type)
}

// Message notification kinds.
const (
	MessageNotifyNew        = "new_message"
	MessageNotifyRequest    = "message_request"
	MessageNotifyAttachment = "attachment"
)

func renderMessageNotification(kind string) (subject, body string, err error) {
	switch kind {
	case MessageNotifyNew:
		return "New Message Received", "<p>You have received a new message. Please log in to view it.</p>", nil
	case MessageNotifyRequest:
		return "New Message Request", "<p>Someone wants to connect with you. Please log in to review the request.</p>", nil
	case MessageNotifyAttachment:
		return "New Message Attachment", "<p>You have received a new message with an attachment. Please log in to view it.</p>", nil
	}
	return "", "", fmt.Errorf("%w: invalid message type %q", ErrInvalidInput, kind)
}

// NotifyCase validates and mails a case notification.
func (s *Service) NotifyCase(ctx context.Context, n CaseNotification) error {
	if n.RecipientEmail == "" || n.CaseTitle == "" || n.Type == "" {
		return fmt.Errorf("%w: missing required parameters", ErrInvalidInput)
	}
	subject, body, err := n.render()
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return fmt.Errorf("%w: email is not configured", ErrUpstream)
	}
	if err := s.mailer.Send(ctx, n.RecipientEmail, subject, body); err != nil {
		return fmt.Errorf("sending case notification: %w", err)
	}
	s.logger.Info("case notification sent", "type", n.Type, "to", n.RecipientEmail)
	return nil
}

// NotifyMessage mails a message notification of the given kind.
func (s *Service) NotifyMessage(ctx context.Context, receiverEmail, kind string) error {
	if receiverEmail == "" || kind == "" {
		return fmt.Errorf("%w: missing required parameters", ErrInvalidInput)
	}
	subject, body, err := renderMessageNotification(kind)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		return fmt.Errorf("%w: email is not configured", ErrUpstream)
	}
	if err := s.mailer.Send(ctx, receiverEmail, subject, body); err != nil {
		return fmt.Errorf("sending message notification: %w", err)
	}
	return nil
}

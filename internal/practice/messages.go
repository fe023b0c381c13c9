package practice

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// MessageInput addresses a message by receiver id or, failing that, by the
// receiver's email.
type MessageInput struct {
	ReceiverID    string `json:"receiver_id"`
	ReceiverEmail string `json:"receiver_email"`
	Content       string `json:"content"`
}

func (s *Service) SendMessage(ctx context.Context, userID string, in MessageInput) (*Message, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrInvalidInput)
	}
	receiver, err := s.resolveReceiver(ctx, in)
	if err != nil {
		return nil, err
	}
	if receiver.ID == userID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
	}

	now := s.clock.Now()
	m := &Message{
		ID:         s.idgen.New(),
		SenderID:   userID,
		ReceiverID: receiver.ID,
		Content:    in.Content,
		Status:     MessageSent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	s.logger.Debug("message sent", "message_id", m.ID, "receiver_id", receiver.ID)
	return m, nil
}

func (s *Service) resolveReceiver(ctx context.Context, in MessageInput) (*Profile, error) {
	var (
		p   *Profile
		err error
	)
	switch {
	case in.ReceiverID != "":
		p, err = s.store.FindProfileByID(ctx, in.ReceiverID)
	case in.ReceiverEmail != "":
		p, err = s.store.FindProfileByEmail(ctx, strings.ToLower(strings.TrimSpace(in.ReceiverEmail)))
	default:
		return nil, fmt.Errorf("%w: receiver is required", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("finding receiver: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("receiver: %w", ErrNotFound)
	}
	return p, nil
}

// ListConversation returns the messages between userID and otherID, oldest
// first, with their attachments.
func (s *Service) ListConversation(ctx context.Context, userID, otherID string) ([]*Message, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if otherID == "" {
		return nil, fmt.Errorf("%w: conversation partner is required", ErrInvalidInput)
	}
	msgs, err := s.store.ListConversation(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("listing conversation: %w", err)
	}
	for _, m := range msgs {
		atts, err := s.store.ListAttachments(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("listing attachments: %w", err)
		}
		m.Attachments = atts
	}
	return msgs, nil
}

// UpdateMessageStatus advances a received message to delivered or read.
// Only the receiver may do so, and the status never moves backwards.
func (s *Service) UpdateMessageStatus(ctx context.Context, userID, id string, status MessageStatus) (*Message, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if status.rank() == 0 {
		return nil, fmt.Errorf("%w: unknown message status %q", ErrInvalidInput, status)
	}
	m, err := s.findMessage(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m.ReceiverID != userID {
		return nil, fmt.Errorf("message %s: %w", id, ErrForbidden)
	}
	if status.rank() <= m.Status.rank() {
		return m, nil
	}
	now := s.clock.Now()
	if err := s.store.UpdateMessageStatus(ctx, id, status, now); err != nil {
		return nil, fmt.Errorf("updating message status: %w", err)
	}
	m.Status = status
	m.UpdatedAt = now
	return m, nil
}

func (s *Service) findMessage(ctx context.Context, userID, id string) (*Message, error) {
	m, err := s.store.FindMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding message: %w", err)
	}
	if m == nil || (m.SenderID != userID && m.ReceiverID != userID) {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return m, nil
}

// AddAttachment stores a file for a message the user sent and records its
// metadata. When receiverEmail is set the receiver is notified; a failed
// notification does not fail the upload.
func (s *Service) AddAttachment(ctx context.Context, userID, messageID, receiverEmail string, u Upload) (*Attachment, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if messageID == "" {
		return nil, fmt.Errorf("%w: message id is required", ErrInvalidInput)
	}
	data, err := readUpload(u)
	if err != nil {
		return nil, err
	}
	m, err := s.findMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != userID {
		return nil, fmt.Errorf("message %s: %w", messageID, ErrForbidden)
	}

	key := s.storageKey(u.FileName, u.ContentType)
	encrypted, err := s.putBlob(ctx, BucketAttachments, key, data)
	if err != nil {
		return nil, err
	}
	a := &Attachment{
		ID:          s.idgen.New(),
		MessageID:   messageID,
		FileName:    u.FileName,
		FileType:    normalizeMIME(u.ContentType),
		FileSize:    int64(len(data)),
		StoragePath: key,
		Encrypted:   encrypted,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateAttachment(ctx, a); err != nil {
		s.removeOrphan(ctx, BucketAttachments, key)
		return nil, fmt.Errorf("saving attachment metadata: %w", err)
	}

	if receiverEmail != "" {
		subject, body, _ := renderMessageNotification(MessageNotifyAttachment)
		s.notify(ctx, receiverEmail, subject, body)
	}
	s.logger.Info("attachment stored", "message_id", messageID, "attachment_id", a.ID, "size", a.FileSize)
	return a, nil
}

// DownloadAttachment copies an attachment to w. Only the sender and the
// receiver of its message can read it.
func (s *Service) DownloadAttachment(ctx context.Context, userID, messageID, attachmentID string, dc DecryptionContext, w io.Writer) (*Attachment, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := s.findMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}
	a, err := s.store.FindAttachment(ctx, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("finding attachment: %w", err)
	}
	if a == nil || a.MessageID != messageID {
		return nil, fmt.Errorf("attachment %s: %w", attachmentID, ErrNotFound)
	}
	if err := s.getBlob(ctx, BucketAttachments, a.StoragePath, a.Encrypted, dc, w); err != nil {
		return nil, err
	}
	s.logger.Debug("attachment downloaded", "message_id", messageID, "attachment_id", a.ID)
	return a, nil
}

// ListProfiles returns every profile, for choosing a conversation partner or
// share recipient.
func (s *Service) ListProfiles(ctx context.Context, userID string) ([]*Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

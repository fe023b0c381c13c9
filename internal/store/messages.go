package store

import (
	"context"
	"fmt"
	"time"

	"lexdesk/internal/practice"
)

const messageColumns = `id, sender_id, receiver_id, content, status, created_at, updated_at`

func scanMessage(row scanner) (*practice.Message, error) {
	var (
		m                practice.Message
		created, updated string
	)
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Status, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if m.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, m *practice.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.Status, encodeTime(m.CreatedAt), encodeTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindMessage(ctx context.Context, id string) (*practice.Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	return findOne(scanMessage, row)
}

// ListConversation returns the messages exchanged between two users, oldest first.
func (s *SQLiteStore) ListConversation(ctx context.Context, userID, otherID string) ([]*practice.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at, id`,
		userID, otherID, otherID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversation: %w", err)
	}
	return collect(rows, scanMessage)
}

func (s *SQLiteStore) UpdateMessageStatus(ctx context.Context, id string, status practice.MessageStatus, at time.Time) error {
	return execOne(ctx, s.db, "message "+id,
		`UPDATE messages SET status = ?, updated_at = ? WHERE id = ?`,
		status, encodeTime(at), id)
}

const attachmentColumns = `id, message_id, file_name, file_type, file_size, storage_path, encrypted, created_at`

func scanAttachment(row scanner) (*practice.Attachment, error) {
	var (
		a       practice.Attachment
		created string
	)
	if err := row.Scan(&a.ID, &a.MessageID, &a.FileName, &a.FileType, &a.FileSize, &a.StoragePath, &a.Encrypted, &created); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) CreateAttachment(ctx context.Context, a *practice.Attachment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_attachments (`+attachmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.MessageID, a.FileName, a.FileType, a.FileSize, a.StoragePath, a.Encrypted, encodeTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindAttachment(ctx context.Context, id string) (*practice.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM message_attachments WHERE id = ?`, id)
	return findOne(scanAttachment, row)
}

func (s *SQLiteStore) ListAttachments(ctx context.Context, messageID string) ([]*practice.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM message_attachments WHERE message_id = ? ORDER BY created_at, id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return collect(rows, scanAttachment)
}

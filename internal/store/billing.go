package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lexdesk/internal/practice"
)

// Time entries

const timeEntryColumns = `id, user_id, case_id, client_id, clockify_id, description, start_time,
	end_time, duration_seconds, billable, hourly_rate, status, created_at, updated_at`

func scanTimeEntry(row scanner) (*practice.TimeEntry, error) {
	var (
		e                          practice.TimeEntry
		caseID, clientID, external sql.NullString
		start, created, updated    string
		end                        sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &caseID, &clientID, &external, &e.Description, &start,
		&end, &e.DurationSeconds, &e.Billable, &e.HourlyRate, &e.Status, &created, &updated)
	if err != nil {
		return nil, err
	}
	e.CaseID = stringPtr(caseID)
	e.ClientID = stringPtr(clientID)
	e.ExternalID = external.String
	if e.StartTime, err = decodeTime(start); err != nil {
		return nil, err
	}
	if e.EndTime, err = decodeNullTime(end); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) CreateTimeEntry(ctx context.Context, e *practice.TimeEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_entries (`+timeEntryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, nullString(e.CaseID), nullString(e.ClientID), emptyAsNull(e.ExternalID), e.Description,
		encodeTime(e.StartTime), encodeNullTime(e.EndTime), e.DurationSeconds, e.Billable, e.HourlyRate,
		e.Status, encodeTime(e.CreatedAt), encodeTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindTimeEntryByExternalID(ctx context.Context, externalID string) (*practice.TimeEntry, error) {
	if externalID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE clockify_id = ?`, externalID)
	return findOne(scanTimeEntry, row)
}

func (s *SQLiteStore) UpdateTimeEntry(ctx context.Context, e *practice.TimeEntry) error {
	return execOne(ctx, s.db, "time entry "+e.ID, `
		UPDATE time_entries SET case_id = ?, client_id = ?, clockify_id = ?, description = ?,
			start_time = ?, end_time = ?, duration_seconds = ?, billable = ?, hourly_rate = ?,
			status = ?, updated_at = ?
		WHERE id = ?`,
		nullString(e.CaseID), nullString(e.ClientID), emptyAsNull(e.ExternalID), e.Description,
		encodeTime(e.StartTime), encodeNullTime(e.EndTime), e.DurationSeconds, e.Billable, e.HourlyRate,
		e.Status, encodeTime(e.UpdatedAt), e.ID)
}

// ListTimeEntries returns entries by start time, newest first.
func (s *SQLiteStore) ListTimeEntries(ctx context.Context, q practice.TimeEntryQuery) ([]*practice.TimeEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + timeEntryColumns + ` FROM time_entries WHERE user_id = ?`)
	args := []any{q.UserID}
	if q.From != nil {
		sb.WriteString(` AND start_time >= ?`)
		args = append(args, encodeTime(*q.From))
	}
	if q.To != nil {
		sb.WriteString(` AND start_time <= ?`)
		args = append(args, encodeTime(*q.To))
	}
	sb.WriteString(` ORDER BY start_time DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing time entries: %w", err)
	}
	return collect(rows, scanTimeEntry)
}

// Invoices

const invoiceColumns = `id, user_id, client_id, stripe_invoice_id, amount_cents, status, due_date,
	notes, created_at, updated_at`

func scanInvoice(row scanner) (*practice.Invoice, error) {
	var (
		inv              practice.Invoice
		external, due    sql.NullString
		created, updated string
	)
	err := row.Scan(&inv.ID, &inv.UserID, &inv.ClientID, &external, &inv.AmountCents, &inv.Status, &due,
		&inv.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	inv.ExternalID = external.String
	if inv.DueDate, err = decodeNullTime(due); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *SQLiteStore) CreateInvoice(ctx context.Context, inv *practice.Invoice) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.UserID, inv.ClientID, emptyAsNull(inv.ExternalID), inv.AmountCents, inv.Status,
		encodeNullTime(inv.DueDate), inv.Notes, encodeTime(inv.CreatedAt), encodeTime(inv.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

// ListInvoices returns invoices by creation time, newest first.
func (s *SQLiteStore) ListInvoices(ctx context.Context, q practice.InvoiceQuery) ([]*practice.Invoice, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = ?`)
	args := []any{q.UserID}
	if q.From != nil {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, encodeTime(*q.From))
	}
	if q.To != nil {
		sb.WriteString(` AND created_at <= ?`)
		args = append(args, encodeTime(*q.To))
	}
	if q.Status != "" {
		sb.WriteString(` AND status = ?`)
		args = append(args, q.Status)
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return collect(rows, scanInvoice)
}

func (s *SQLiteStore) UpdateInvoiceStatusByExternalID(ctx context.Context, externalID string, status practice.InvoiceStatus, at time.Time) (int64, error) {
	if externalID == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE stripe_invoice_id = ?`,
		status, encodeTime(at), externalID)
	if err != nil {
		return 0, fmt.Errorf("updating invoice status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("updating invoice status: %w", err)
	}
	return n, nil
}

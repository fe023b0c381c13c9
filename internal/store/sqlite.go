// Package store implements the practice.Store interface on SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexdesk/internal/practice"
	"lexdesk/internal/store/migrations"
)

// SQLiteStore implements practice.Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ practice.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path, or an in-memory database when
// path is ":memory:". The schema is not migrated; see MigrateUp.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection pool.
// Pragmas go in the DSN so that every pooled connection gets them.
// An in-memory database is limited to one connection, because each new
// connection would otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	const params = "_foreign_keys=on&_busy_timeout=5000"

	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?" + params
	} else {
		dsn = "file:" + path + "?" + params + "&_journal_mode=WAL"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// DB exposes the underlying connection pool.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// MigrateUp applies all pending schema migrations.
func (s *SQLiteStore) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations returns an error unless the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Timestamps are stored as fixed-width UTC text so that string comparison
// in SQL orders them correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func decodeNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// emptyAsNull stores "" as NULL, for optional unique columns.
func emptyAsNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// likePattern builds a case-folded substring pattern for
// casefold(column) LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(foldCase(s)) + "%"
}

type scanner interface {
	Scan(dest ...any) error
}

// Profiles and sessions

func (s *SQLiteStore) CreateProfile(ctx context.Context, p *practice.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, role, phone_number, timezone, language, bar_number,
			email_notifications, sms_notifications, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.Role, p.PhoneNumber, p.Timezone, p.Language, p.BarNumber,
		p.EmailNotifications, p.SMSNotifications, encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

const profileColumns = `id, email, full_name, role, phone_number, timezone, language, bar_number,
	email_notifications, sms_notifications, created_at, updated_at`

func scanProfile(row scanner) (*practice.Profile, error) {
	var (
		p                practice.Profile
		created, updated string
	)
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.PhoneNumber, &p.Timezone, &p.Language, &p.BarNumber,
		&p.EmailNotifications, &p.SMSNotifications, &created, &updated)
	if err != nil {
		return nil, err
	}
	if p.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	// Rows from before profile editing have no updated_at.
	if updated == "" {
		p.UpdatedAt = p.CreatedAt
	} else if p.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) FindProfileByID(ctx context.Context, id string) (*practice.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	return findOne(scanProfile, row)
}

func (s *SQLiteStore) FindProfileByEmail(ctx context.Context, email string) (*practice.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = ?`, email)
	return findOne(scanProfile, row)
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*practice.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return collect(rows, scanProfile)
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, p *practice.Profile) error {
	return execOne(ctx, s.db, "profile "+p.ID, `
		UPDATE profiles SET full_name = ?, phone_number = ?, timezone = ?, language = ?, bar_number = ?,
			email_notifications = ?, sms_notifications = ?, updated_at = ?
		WHERE id = ?`,
		p.FullName, p.PhoneNumber, p.Timezone, p.Language, p.BarNumber,
		p.EmailNotifications, p.SMSNotifications, encodeTime(p.UpdatedAt), p.ID)
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *practice.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.TokenHash, encodeTime(sess.CreatedAt), encodeTime(sess.ExpiresAt))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*practice.Session, error) {
	var (
		sess             practice.Session
		created, expires string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, created_at, expires_at FROM sessions WHERE token_hash = ?`, tokenHash,
	).Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if sess.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if sess.ExpiresAt, err = decodeTime(expires); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return execOne(ctx, s.db, "session", `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
}

// Clients

const clientColumns = `id, user_id, name, email, phone, company, created_at, updated_at`

func scanClient(row scanner) (*practice.Client, error) {
	var (
		c                practice.Client
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Company, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) CreateClient(ctx context.Context, c *practice.Client) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Company, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindClient(ctx context.Context, id string) (*practice.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return findOne(scanClient, row)
}

func (s *SQLiteStore) ListClients(ctx context.Context, userID string) ([]*practice.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return collect(rows, scanClient)
}

// Folders

func folderTable(kind practice.FolderKind) (string, error) {
	switch kind {
	case practice.FolderCases:
		return "case_folders", nil
	case practice.FolderDocuments:
		return "document_folders", nil
	}
	return "", fmt.Errorf("unknown folder kind %q", kind)
}

func scanFolder(kind practice.FolderKind) func(scanner) (*practice.Folder, error) {
	return func(row scanner) (*practice.Folder, error) {
		var (
			f                practice.Folder
			parent           sql.NullString
			created, updated string
		)
		if err := row.Scan(&f.ID, &f.UserID, &f.Name, &parent, &created, &updated); err != nil {
			return nil, err
		}
		f.Kind = kind
		f.ParentID = stringPtr(parent)
		var err error
		if f.CreatedAt, err = decodeTime(created); err != nil {
			return nil, err
		}
		if f.UpdatedAt, err = decodeTime(updated); err != nil {
			return nil, err
		}
		return &f, nil
	}
}

func (s *SQLiteStore) CreateFolder(ctx context.Context, f *practice.Folder) error {
	table, err := folderTable(f.Kind)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, user_id, name, parent_folder_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, nullString(f.ParentID), encodeTime(f.CreatedAt), encodeTime(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting folder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindFolder(ctx context.Context, kind practice.FolderKind, id string) (*practice.Folder, error) {
	table, err := folderTable(kind)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, parent_folder_id, created_at, updated_at FROM `+table+` WHERE id = ?`, id)
	return findOne(scanFolder(kind), row)
}

func (s *SQLiteStore) ListFolders(ctx context.Context, kind practice.FolderKind, userID string) ([]*practice.Folder, error) {
	table, err := folderTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, parent_folder_id, created_at, updated_at FROM `+table+` WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return collect(rows, scanFolder(kind))
}

func (s *SQLiteStore) UpdateFolderParent(ctx context.Context, kind practice.FolderKind, id string, parentID *string, at time.Time) error {
	table, err := folderTable(kind)
	if err != nil {
		return err
	}
	return execOne(ctx, s.db, "folder "+id,
		`UPDATE `+table+` SET parent_folder_id = ?, updated_at = ? WHERE id = ?`,
		nullString(parentID), encodeTime(at), id)
}

// findOne scans a single row, mapping sql.ErrNoRows to (nil, nil).
func findOne[T any](scan func(scanner) (*T, error), row *sql.Row) (*T, error) {
	v, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// collect scans every row and closes rows.
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs an update that must touch exactly one row.
func execOne(ctx context.Context, db execer, what, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, practice.ErrNotFound)
	}
	return nil
}

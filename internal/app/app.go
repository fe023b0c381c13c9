package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lexdesk/internal/blob"
	"lexdesk/internal/config"
	"lexdesk/internal/encryption"
	"lexdesk/internal/integrations/calendar"
	"lexdesk/internal/integrations/email"
	"lexdesk/internal/integrations/payments"
	"lexdesk/internal/integrations/research"
	"lexdesk/internal/integrations/similarity"
	"lexdesk/internal/integrations/timetracking"
	"lexdesk/internal/practice"
	"lexdesk/internal/server"
	"lexdesk/internal/store"
	"lexdesk/internal/store/migrations"
)

var _ practice.Logger = (*slog.Logger)(nil)

// LexApp is the application layer between the CLI and the practice service.
// It constructs all dependencies from config, exposes the operations the CLI
// needs, and closes the database and log file on Close.
type LexApp struct {
	cfg       *config.Config
	store     *store.SQLiteStore
	blobs     practice.BlobStore
	encryptor practice.Encryptor
	service   *practice.Service
	integ     server.Integrations
	logger    *slog.Logger
	logFile   *os.File
}

// NewLexApp creates a fully wired LexApp from the given config.
// command identifies the CLI command being run (e.g. "serve", "users-add")
// and tags every log line. The caller must call Close when done.
func NewLexApp(ctx context.Context, cfg *config.Config, command string) (*LexApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	blobs, err := blob.NewBlobStoreFromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	st, err := store.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	if err := st.CheckMigrations(); err != nil {
		st.Close()
		return nil, fmt.Errorf("database schema out of date (run `lexdesk migrate up`): %w", err)
	}

	runID := command + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID, parseLevel(cfg.LogLevel))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	deps := practice.Deps{
		Store:     st,
		Blobs:     blobs,
		Encryptor: enc,
		Logger:    logger,
		Clock:     practice.SystemClock(),
		IDGen:     practice.UUIDs(),
	}
	integ := wireIntegrations(cfg.Integrations, &deps, logger)

	return &LexApp{
		cfg:       cfg,
		store:     st,
		blobs:     blobs,
		encryptor: enc,
		service:   practice.NewService(deps),
		integ:     integ,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// wireIntegrations fills the vendor collaborators of deps and returns the
// server-side adapters. Vendors without credentials stay unset.
func wireIntegrations(cfg config.IntegrationsConfig, deps *practice.Deps, logger *slog.Logger) server.Integrations {
	var integ server.Integrations
	var enabled []string

	if s := payments.NewStripe(cfg.Stripe); s != nil {
		deps.Payments = s
		integ.Webhooks = s
		enabled = append(enabled, "stripe")
	}
	if m := email.NewResendMailer(cfg.Email); m != nil {
		deps.Mailer = m
		enabled = append(enabled, "resend")
	}
	if c := timetracking.NewClockify(cfg.Clockify); c != nil {
		deps.Tracker = c
		enabled = append(enabled, "clockify")
	}
	if c := calendar.NewClient(cfg.Calendar); c != nil {
		integ.Calendar = c
		enabled = append(enabled, "google-calendar")
	}
	if c := research.NewClient(cfg.CourtListener); c != nil {
		integ.Research = c
		enabled = append(enabled, "courtlistener")
	}
	if c := similarity.NewClient(cfg.AI21); c != nil {
		integ.Similarity = c
		enabled = append(enabled, "ai21")
	}
	logger.Debug("integrations configured", "enabled", enabled)
	return integ
}

// Service returns the wired practice service.
func (a *LexApp) Service() *practice.Service {
	return a.service
}

// Server builds the HTTP server. dc may be nil, in which case encrypted
// documents cannot be downloaded over HTTP.
func (a *LexApp) Server(dc practice.DecryptionContext) *server.Server {
	return server.New(a.service, a.integ, a.logger, server.Options{
		Addr:            a.cfg.Server.Addr,
		ReadTimeout:     time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
		ShutdownTimeout: time.Duration(a.cfg.Server.ShutdownTimeoutSeconds) * time.Second,
		Decryption:      dc,
	})
}

// Serve checks that the blob store is usable and serves HTTP until ctx is
// cancelled.
func (a *LexApp) Serve(ctx context.Context, dc practice.DecryptionContext) error {
	if err := a.blobs.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("validating blob store: %w", err)
	}
	return a.Server(dc).Run(ctx)
}

// Unlock decrypts the private key so that encrypted files can be read.
func (a *LexApp) Unlock(passphrase string) (practice.DecryptionContext, error) {
	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return dc, nil
}

// EncryptionEnabled reports whether uploads are encrypted at rest.
func (a *LexApp) EncryptionEnabled() bool {
	return a.encryptor.Enabled()
}

// AddUser registers a profile and issues its first bearer token.
func (a *LexApp) AddUser(ctx context.Context, email, fullName, role string, ttl time.Duration) (*practice.Profile, string, error) {
	p, err := a.service.CreateProfile(ctx, email, fullName, role)
	if err != nil {
		return nil, "", err
	}
	token, err := a.service.IssueToken(ctx, p.ID, ttl)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

// IssueToken issues a new bearer token for the profile registered under email.
func (a *LexApp) IssueToken(ctx context.Context, email string, ttl time.Duration) (string, error) {
	p, err := a.profile(ctx, email)
	if err != nil {
		return "", err
	}
	return a.service.IssueToken(ctx, p.ID, ttl)
}

// Dashboard computes the report for the profile registered under email.
func (a *LexApp) Dashboard(ctx context.Context, email string, r practice.ReportRange) (*practice.Report, error) {
	p, err := a.profile(ctx, email)
	if err != nil {
		return nil, err
	}
	return a.service.Dashboard(ctx, p.ID, r)
}

// ListInvoices lists the invoices of the profile registered under email.
func (a *LexApp) ListInvoices(ctx context.Context, email, status string) ([]*practice.Invoice, error) {
	p, err := a.profile(ctx, email)
	if err != nil {
		return nil, err
	}
	return a.service.ListInvoices(ctx, p.ID, practice.InvoiceFilter{Status: status})
}

// DownloadDocument writes a document visible to email to outPath. The file is
// written to a temporary sibling first and renamed into place on success.
func (a *LexApp) DownloadDocument(ctx context.Context, email, id, outPath string, dc practice.DecryptionContext) (*practice.Document, error) {
	p, err := a.profile(ctx, email)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(outPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".lexdesk-download-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	doc, err := a.service.DownloadDocument(ctx, p.ID, id, dc, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing temp file: %w", cerr)
	}
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		return nil, fmt.Errorf("moving download into place: %w", err)
	}
	return doc, nil
}

// InitKeys generates the encryption key pair protected by passphrase.
func (a *LexApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	a.logger.Info("encryption keys generated")
	return nil
}

func (a *LexApp) profile(ctx context.Context, email string) (*practice.Profile, error) {
	p, err := a.store.FindProfileByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("user %s: %w", email, practice.ErrNotFound)
	}
	return p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Close closes the database and the log file.
func (a *LexApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// MigrateDatabase applies all pending schema migrations.
func MigrateDatabase(cfg *config.Config) error {
	st, err := store.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer st.Close()
	if err := st.MigrateUp(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// CheckDatabase returns an error unless the schema is current.
func CheckDatabase(cfg *config.Config) error {
	st, err := store.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer st.Close()
	return st.CheckMigrations()
}

// MigrationStatus reports the schema version of the configured database and
// the latest version this binary knows about.
func MigrationStatus(cfg *config.Config) (current, latest uint, dirty bool, err error) {
	st, err := store.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return 0, 0, false, fmt.Errorf("creating store: %w", err)
	}
	defer st.Close()

	current, dirty, err = migrations.Version(st.DB())
	if err != nil {
		return 0, 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	latest, err = migrations.LatestVersion()
	if err != nil {
		return 0, 0, false, err
	}
	return current, latest, dirty, nil
}

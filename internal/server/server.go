// Package server exposes the practice service over HTTP: the function
// endpoints under /functions and the REST API under /api.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	gcal "google.golang.org/api/calendar/v3"

	"lexdesk/internal/integrations/calendar"
	"lexdesk/internal/integrations/research"
	"lexdesk/internal/practice"
)

// WebhookParser verifies and decodes payment processor webhooks.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (practice.PaymentEvent, error)
}

// Calendar reads and writes the caller's calendar.
type Calendar interface {
	EventsForDay(ctx context.Context, accessToken string, day time.Time) ([]*gcal.Event, error)
	CreateDeadlineEvent(ctx context.Context, accessToken string, task calendar.TaskEvent) (*gcal.Event, error)
}

// OpinionSearch searches published court opinions.
type OpinionSearch interface {
	Search(ctx context.Context, req research.SearchRequest) (json.RawMessage, error)
}

// SimilarityScorer scores the similarity of two texts.
type SimilarityScorer interface {
	Score(ctx context.Context, text1, text2 string) (json.RawMessage, error)
}

// Integrations holds the optional vendor adapters. A nil field makes its
// endpoints answer with a "not configured" error.
type Integrations struct {
	Webhooks   WebhookParser
	Calendar   Calendar
	Research   OpinionSearch
	Similarity SimilarityScorer
}

// Options configures the listener.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Decryption is used to serve encrypted documents. Without it encrypted
	// downloads fail with practice.ErrLocked.
	Decryption practice.DecryptionContext
}

// Server is the HTTP front of a practice.Service.
type Server struct {
	svc    *practice.Service
	integ  Integrations
	logger practice.Logger
	opts   Options
}

// New creates a Server. A nil logger discards output.
func New(svc *practice.Service, integ Integrations, logger practice.Logger, opts Options) *Server {
	if logger == nil {
		logger = practice.DiscardLogger()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{svc: svc, integ: integ, logger: logger, opts: opts}
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerFunctions(mux)
	s.registerAPI(mux)
	return s.logRequests(cors(mux))
}

// Run serves on opts.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}

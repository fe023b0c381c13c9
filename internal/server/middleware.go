package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lexdesk/internal/practice"
)

const (
	allowOrigin  = "*"
	allowHeaders = "authorization, x-client-info, apikey, content-type"
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// cors adds the CORS headers to every response and answers preflight
// requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type ctxKey int

const profileKey ctxKey = iota

// currentUser returns the authenticated profile, or nil.
func currentUser(r *http.Request) *practice.Profile {
	p, _ := r.Context().Value(profileKey).(*practice.Profile)
	return p
}

// userID returns the authenticated profile id, or "".
func userID(r *http.Request) string {
	if p := currentUser(r); p != nil {
		return p.ID
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticated rejects requests without a valid bearer token and stores the
// caller's profile in the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.svc.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, err, http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), profileKey, p)
		next(w, r.WithContext(ctx))
	}
}

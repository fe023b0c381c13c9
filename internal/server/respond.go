package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"lexdesk/internal/practice"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// maxMultipartBody bounds multipart uploads: the file plus form overhead.
const maxMultipartBody = practice.MaxUploadSize + 1<<20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// statusFor maps a service error onto an HTTP status. Errors without a
// sentinel get fallback.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, practice.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, practice.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, practice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, practice.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, practice.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, practice.ErrInvalidInput),
		errors.Is(err, practice.ErrInvalidSignature),
		errors.Is(err, practice.ErrUpstream):
		return http.StatusBadRequest
	case errors.Is(err, practice.ErrLocked):
		return http.StatusConflict
	}
	return fallback
}

// writeError writes {"error": msg}. Errors mapped to 5xx are logged and their
// detail is not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, err error, fallback int) {
	status := statusFor(err, fallback)
	msg := err.Error()
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody(msg))
}

// decodeJSON decodes a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json: %v", practice.ErrInvalidInput, err)
	}
	return nil
}

// parseTime accepts YYYY-MM-DD (midnight UTC) or RFC 3339.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", practice.ErrInvalidInput, s)
	}
	return t, nil
}

// optionalTime parses s, returning nil for "".
func optionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// endOfDay widens a bare date to the last instant of that day so that date
// ranges include the whole end day.
func endOfDay(s string, t time.Time) time.Time {
	if len(s) == len(time.DateOnly) {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t
}

// queryRange reads the from/to query parameters.
func queryRange(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if from, err = optionalTime(q.Get("from")); err != nil {
		return nil, nil, err
	}
	if to, err = optionalTime(q.Get("to")); err != nil {
		return nil, nil, err
	}
	if to != nil {
		end := endOfDay(q.Get("to"), *to)
		to = &end
	}
	return from, to, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", practice.ErrInvalidInput, name)
	}
	return n, nil
}

// optionalID returns nil for "" and for the root container names.
func optionalID(s string) *string {
	if s == "" || s == practice.RootContainer {
		return nil
	}
	return &s
}

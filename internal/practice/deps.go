package practice

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Logger receives the service's structured log records. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DiscardLogger returns a Logger that drops every record.
func DiscardLogger() Logger {
	return slog.New(slog.DiscardHandler)
}

// Clock supplies timestamps for new and updated rows.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock reading the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// IDGenerator names new rows and stored objects.
type IDGenerator interface {
	New() string
}

type uuidGenerator struct{}

func (uuidGenerator) New() string { return uuid.NewString() }

// UUIDs returns an IDGenerator producing random version 4 UUIDs.
func UUIDs() IDGenerator { return uuidGenerator{} }

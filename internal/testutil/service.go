package testutil

import (
	"context"
	"testing"

	"lexdesk/internal/practice"
	"lexdesk/internal/store"
)

// Env is a Service wired to an in-memory store and recording fakes.
type Env struct {
	Service  *practice.Service
	Store    *store.SQLiteStore
	Blobs    *RecordingBlobStore
	Clock    *StubClock
	IDs      *StubIDGenerator
	Mailer   *RecordingMailer
	Payments *FakePayments
	Tracker  *FakeTracker
}

// EnvOption adjusts the Deps before the Service is built.
type EnvOption func(*practice.Deps)

// WithEncryptor enables at-rest encryption with enc.
func WithEncryptor(enc practice.Encryptor) EnvOption {
	return func(d *practice.Deps) { d.Encryptor = enc }
}

// WithoutIntegrations leaves payments, email and time tracking unconfigured.
func WithoutIntegrations() EnvOption {
	return func(d *practice.Deps) {
		d.Payments = nil
		d.Mailer = nil
		d.Tracker = nil
	}
}

// NewEnv builds an Env whose clock is FixedClock.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()
	env := &Env{
		Store:    NewTestStore(t),
		Blobs:    NewRecordingBlobStore(),
		Clock:    FixedClock(),
		IDs:      NewStubIDGenerator(),
		Mailer:   NewRecordingMailer(),
		Payments: NewFakePayments(),
		Tracker:  NewFakeTracker(),
	}
	deps := practice.Deps{
		Store:    env.Store,
		Blobs:    env.Blobs,
		Payments: env.Payments,
		Mailer:   env.Mailer,
		Tracker:  env.Tracker,
		Clock:    env.Clock,
		IDGen:    env.IDs,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.Service = practice.NewService(deps)
	return env
}

// AddUser creates a lawyer profile with the given email.
func (e *Env) AddUser(t *testing.T, email string) *practice.Profile {
	t.Helper()
	p, err := e.Service.CreateProfile(context.Background(), email, email, practice.RoleLawyer)
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	return p
}

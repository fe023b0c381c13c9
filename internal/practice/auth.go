package practice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// DefaultTokenTTL is the lifetime of issued bearer tokens.
const DefaultTokenTTL = 30 * 24 * time.Hour

// Profile preferences of a new user.
const (
	DefaultTimezone = "UTC"
	DefaultLanguage = "en"
)

// Profile roles.
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleAdmin  = "admin"
)

func validRole(r string) bool {
	return r == RoleClient || r == RoleLawyer || r == RoleAdmin
}

// CreateProfile registers a user. Emails are stored lower-cased and must be
// unique.
func (s *Service) CreateProfile(ctx context.Context, email, fullName, role string) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}
	if role == "" {
		role = RoleLawyer
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	existing, err := s.store.FindProfileByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a user with email %s already exists", ErrInvalidInput, email)
	}
	now := s.clock.Now()
	p := &Profile{
		ID:                 s.idgen.New(),
		Email:              email,
		FullName:           fullName,
		Role:               role,
		Timezone:           DefaultTimezone,
		Language:           DefaultLanguage,
		EmailNotifications: true,
		SMSNotifications:   true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	s.logger.Info("profile created", "user_id", p.ID, "role", role)
	return p, nil
}

// ProfilePatch holds the user-editable profile fields. Nil fields are left
// unchanged. Email and role are not editable.
type ProfilePatch struct {
	FullName           *string `json:"full_name"`
	PhoneNumber        *string `json:"phone_number"`
	Timezone           *string `json:"timezone"`
	Language           *string `json:"language"`
	BarNumber          *string `json:"bar_number"`
	EmailNotifications *bool   `json:"email_notifications"`
	SMSNotifications   *bool   `json:"sms_notifications"`
}

// UpdateProfile edits the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfilePatch) (*Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	p, err := s.store.FindProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	if in.FullName != nil {
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		p.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		// LoadLocation maps "" to UTC and "Local" to the server's zone.
		if tz == "" || tz == "Local" {
			return nil, fmt.Errorf("%w: timezone is required", ErrInvalidInput)
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, tz)
		}
		p.Timezone = tz
	}
	if in.Language != nil {
		lang := strings.TrimSpace(*in.Language)
		if lang == "" {
			return nil, fmt.Errorf("%w: language is required", ErrInvalidInput)
		}
		p.Language = lang
	}
	if in.BarNumber != nil {
		p.BarNumber = strings.TrimSpace(*in.BarNumber)
	}
	if in.EmailNotifications != nil {
		p.EmailNotifications = *in.EmailNotifications
	}
	if in.SMSNotifications != nil {
		p.SMSNotifications = *in.SMSNotifications
	}

	p.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	s.logger.Info("profile updated", "user_id", p.ID)
	return p, nil
}

// IssueToken creates a session for userID and returns its bearer token.
// Only a hash of the token is stored.
func (s *Service) IssueToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if err := requireUser(userID); err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	p, err := s.store.FindProfileByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("finding profile: %w", err)
	}
	if p == nil {
		return "", fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := s.clock.Now()
	sess := &Session{
		ID:        s.idgen.New(),
		UserID:    userID,
		TokenHash: hashToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its profile.
func (s *Service) Authenticate(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.store.FindSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if sess == nil || !s.clock.Now().Before(sess.ExpiresAt) {
		return nil, ErrUnauthenticated
	}
	p, err := s.store.FindProfileByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	if p == nil {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RevokeToken ends the session behind a bearer token. An unknown token is
// ErrUnauthenticated.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthenticated
	}
	if err := s.store.DeleteSessionByTokenHash(ctx, hashToken(token)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthenticated
		}
		return fmt.Errorf("revoking session: %w", err)
	}
	s.logger.Info("session revoked")
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

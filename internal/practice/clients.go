package practice

import (
	"context"
	"fmt"
	"strings"
)

// ClientInput holds the fields of the client form.
type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

func (s *Service) CreateClient(ctx context.Context, userID string, in ClientInput) (*Client, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := s.clock.Now()
	c := &Client{
		ID:        s.idgen.New(),
		UserID:    userID,
		Name:      in.Name,
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		Company:   in.Company,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	s.logger.Info("client created", "client_id", c.ID)
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, userID, id string) (*Client, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	c, err := s.store.FindClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding client: %w", err)
	}
	if c == nil || c.UserID != userID {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context, userID string) ([]*Client, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return clients, nil
}

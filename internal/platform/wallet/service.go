package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/piclaim/pkg/logger"
)

// Service provides the enrollment lifecycle for monitored wallets
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService creates a new wallet service
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log.WithField("component", "wallet"),
	}
}

// Enroll validates and stores a new wallet. The secret must derive to
// the address; duplicate addresses are rejected.
func (s *Service) Enroll(ctx context.Context, address, secret, destination string) (*Wallet, error) {
	if err := ValidateEnrollment(address, secret, destination); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByAddress(ctx, address); err == nil {
		return nil, ErrDuplicateAddress
	}

	w := &Wallet{
		ID:          uuid.New(),
		Address:     address,
		Secret:      secret,
		Destination: destination,
		Status:      StatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to store wallet: %w", err)
	}

	s.logger.Info("wallet enrolled",
		"wallet_id", w.ID,
		"address", MaskAddress(w.Address),
		"destination", MaskAddress(w.Destination))
	return w, nil
}

// Get retrieves a wallet by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves all enrolled wallets
func (s *Service) List(ctx context.Context) ([]*Wallet, error) {
	return s.repo.List(ctx)
}

// Remove deletes a wallet from the registry
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}

	s.logger.Info("wallet removed", "wallet_id", id, "address", MaskAddress(w.Address))
	return nil
}

// Quarantine marks a wallet as terminally failed. Quarantined wallets
// are no longer scheduled but remain visible.
func (s *Service) Quarantine(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.UpdateStatus(ctx, id, StatusQuarantined); err != nil {
		return err
	}
	s.logger.Warn("wallet quarantined", "wallet_id", id)
	return nil
}

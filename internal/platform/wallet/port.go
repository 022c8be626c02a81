package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines wallet persistence. The default implementation is
// in-memory; a Postgres-backed implementation can be plugged in so
// enrolled wallets survive restarts.
type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
	GetByAddress(ctx context.Context, address string) (*Wallet, error)
	List(ctx context.Context) ([]*Wallet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is the default in-memory wallet store
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Wallet
	byAddr  map[string]uuid.UUID
}

// NewMemoryRepository creates a new in-memory wallet repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[uuid.UUID]*Wallet),
		byAddr: make(map[string]uuid.UUID),
	}
}

// Create stores a new wallet, enforcing address uniqueness
func (r *MemoryRepository) Create(ctx context.Context, w *Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddr[w.Address]; exists {
		return ErrDuplicateAddress
	}

	stored := *w
	r.byID[w.ID] = &stored
	r.byAddr[w.Address] = w.ID
	return nil
}

// GetByID retrieves a wallet by its id
func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.byID[id]
	if !ok {
		return nil, ErrWalletNotFound
	}
	copied := *w
	return &copied, nil
}

// GetByAddress retrieves a wallet by its ledger address
func (r *MemoryRepository) GetByAddress(ctx context.Context, address string) (*Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byAddr[address]
	if !ok {
		return nil, ErrWalletNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

// List returns a snapshot of all enrolled wallets
func (r *MemoryRepository) List(ctx context.Context) ([]*Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallets := make([]*Wallet, 0, len(r.byID))
	for _, w := range r.byID {
		copied := *w
		wallets = append(wallets, &copied)
	}
	return wallets, nil
}

// Delete removes a wallet, scrubbing the stored secret
func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.byID[id]
	if !ok {
		return ErrWalletNotFound
	}

	w.Secret = ""
	delete(r.byAddr, w.Address)
	delete(r.byID, id)
	return nil
}

// UpdateStatus changes a wallet's scheduling status
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.byID[id]
	if !ok {
		return ErrWalletNotFound
	}
	w.Status = status
	return nil
}

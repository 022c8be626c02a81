package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/piclaim/internal/platform/wallet"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// WalletRepository implements the wallet repository using PostgreSQL
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create creates a new wallet
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, address, secret, destination, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	if w.Status == "" {
		w.Status = wallet.StatusActive
	}

	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.Address,
		w.Secret,
		w.Destination,
		w.Status,
		w.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return wallet.ErrDuplicateAddress
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// GetByID retrieves a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, address, secret, destination, status, created_at
		FROM wallets
		WHERE id = $1
	`

	w := &wallet.Wallet{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.Address,
		&w.Secret,
		&w.Destination,
		&w.Status,
		&w.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// GetByAddress retrieves a wallet by ledger address
func (r *WalletRepository) GetByAddress(ctx context.Context, address string) (*wallet.Wallet, error) {
	query := `
		SELECT id, address, secret, destination, status, created_at
		FROM wallets
		WHERE address = $1
	`

	w := &wallet.Wallet{}
	err := r.pool.QueryRow(ctx, query, address).Scan(
		&w.ID,
		&w.Address,
		&w.Secret,
		&w.Destination,
		&w.Status,
		&w.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// List retrieves all enrolled wallets
func (r *WalletRepository) List(ctx context.Context) ([]*wallet.Wallet, error) {
	query := `
		SELECT id, address, secret, destination, status, created_at
		FROM wallets
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*wallet.Wallet
	for rows.Next() {
		w := &wallet.Wallet{}
		err := rows.Scan(
			&w.ID,
			&w.Address,
			&w.Secret,
			&w.Destination,
			&w.Status,
			&w.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallets: %w", err)
	}

	return wallets, nil
}

// Delete removes a wallet
func (r *WalletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound
	}
	return nil
}

// UpdateStatus changes a wallet's monitoring status
func (r *WalletRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status wallet.Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE wallets SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound
	}
	return nil
}

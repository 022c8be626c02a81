package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kislikjeka/piclaim/internal/ledger"
	"github.com/kislikjeka/piclaim/internal/platform/txbuilder"
	"github.com/kislikjeka/piclaim/internal/platform/wallet"
)

// LedgerClient is the slice of the ledger gateway the monitor consumes
type LedgerClient interface {
	ClaimableBalances(ctx context.Context, claimant string) ([]ledger.ClaimableBalance, error)
	SubmitTransaction(ctx context.Context, blob string) (*ledger.SubmitResult, error)
}

// SequenceCache provides short-lived account sequence numbers
type SequenceCache interface {
	Get(ctx context.Context, address string) (int64, error)
	Prime(ctx context.Context, address string) (int64, error)
	Invalidate(address string)
}

// TransactionBuilder signs claim transactions
type TransactionBuilder interface {
	Build(w *wallet.Wallet, balanceID, amountStr string, sequence int64) (*txbuilder.SignedTransaction, error)
}

// UnlockResolver extracts the unlock instant from a balance record
type UnlockResolver interface {
	Resolve(record ledger.ClaimableBalance) (time.Time, bool)
}

// WalletStore is the slice of the wallet repository the monitor consumes
type WalletStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)
	List(ctx context.Context) ([]*wallet.Wallet, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status wallet.Status) error
}

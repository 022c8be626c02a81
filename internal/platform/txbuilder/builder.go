package txbuilder

import (
	"fmt"

	"time"

	"github.com/benbjohnson/clock"
	"github.com/stellar/go/amount"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/kislikjeka/piclaim/internal/platform/wallet"
)

// DefaultFee is the total transaction fee in stroops (0.1 units across
// both operations) paid to buy submission priority.
const DefaultFee = 1_000_000

// SignedTransaction is a built and signed claim transaction
type SignedTransaction struct {
	Blob string // base64 wire envelope
	Hash string // hex content hash
}

// Builder constructs the two-operation claim transaction: claim the
// balance, then forward the full amount to the wallet's destination as a
// native-asset payment. Purely local; deterministic given identical
// inputs and clock.
type Builder struct {
	networkPassphrase string
	totalFee          int64
	validity          time.Duration
	clock             clock.Clock
}

// New creates a new transaction builder
func New(networkPassphrase string, totalFee int64, validity time.Duration, clk clock.Clock) *Builder {
	if totalFee <= 0 {
		totalFee = DefaultFee
	}
	if validity <= 0 {
		validity = 120 * time.Second
	}
	return &Builder{
		networkPassphrase: networkPassphrase,
		totalFee:          totalFee,
		validity:          validity,
		clock:             clk,
	}
}

// Build signs a claim+forward transaction for the given balance at the
// supplied sequence number. Fails with wallet.ErrAuthMismatch when the
// wallet's secret does not derive to its address; that failure is
// terminal for the wallet and must not be retried.
func (b *Builder) Build(w *wallet.Wallet, balanceID, amountStr string, sequence int64) (*SignedTransaction, error) {
	kp, err := keypair.ParseFull(w.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable secret", wallet.ErrAuthMismatch)
	}
	if kp.Address() != w.Address {
		return nil, wallet.ErrAuthMismatch
	}

	if _, err := amount.ParseInt64(amountStr); err != nil {
		return nil, fmt.Errorf("invalid balance amount %q: %w", amountStr, err)
	}

	sourceAccount := &txnbuild.SimpleAccount{
		AccountID: w.Address,
		Sequence:  sequence,
	}

	ops := []txnbuild.Operation{
		&txnbuild.ClaimClaimableBalance{
			BalanceID: balanceID,
		},
		&txnbuild.Payment{
			Destination: w.Destination,
			Amount:      amountStr,
			Asset:       txnbuild.NativeAsset{},
		},
	}

	maxTime := b.clock.Now().Add(b.validity).Unix()

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        sourceAccount,
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              b.totalFee / int64(len(ops)),
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimebounds(0, maxTime),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	tx, err = tx.Sign(b.networkPassphrase, kp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	blob, err := tx.Base64()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	hash, err := tx.HashHex(b.networkPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to hash transaction: %w", err)
	}

	return &SignedTransaction{Blob: blob, Hash: hash}, nil
}

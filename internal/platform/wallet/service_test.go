package wallet_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/piclaim/internal/platform/wallet"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

func newService(t *testing.T) *wallet.Service {
	t.Helper()
	log := logger.New("test", os.Stdout)
	return wallet.NewService(wallet.NewMemoryRepository(), log)
}

func TestEnroll(t *testing.T) {
	svc := newService(t)
	kp := keypair.MustRandom()
	dest := keypair.MustRandom()

	w, err := svc.Enroll(context.Background(), kp.Address(), kp.Seed(), dest.Address())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, w.ID)
	assert.Equal(t, kp.Address(), w.Address)
	assert.Equal(t, dest.Address(), w.Destination)
	assert.Equal(t, wallet.StatusActive, w.Status)
	assert.False(t, w.CreatedAt.IsZero())
}

func TestEnroll_AuthMismatch(t *testing.T) {
	svc := newService(t)
	kp := keypair.MustRandom()
	other := keypair.MustRandom()
	dest := keypair.MustRandom()

	// Secret derives to a different address than the one supplied.
	_, err := svc.Enroll(context.Background(), other.Address(), kp.Seed(), dest.Address())
	assert.ErrorIs(t, err, wallet.ErrAuthMismatch)
}

func TestEnroll_Validation(t *testing.T) {
	svc := newService(t)
	kp := keypair.MustRandom()
	dest := keypair.MustRandom()

	tests := []struct {
		name        string
		address     string
		secret      string
		destination string
		wantErr     error
	}{
		{"malformed address", "not-an-address", kp.Seed(), dest.Address(), wallet.ErrInvalidAddress},
		{"malformed secret", kp.Address(), "not-a-seed", dest.Address(), wallet.ErrInvalidSecret},
		{"malformed destination", kp.Address(), kp.Seed(), "not-an-address", wallet.ErrInvalidDestination},
		{"secret in address field", kp.Seed(), kp.Seed(), dest.Address(), wallet.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enroll(context.Background(), tt.address, tt.secret, tt.destination)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// Enrolling the same address twice yields exactly one wallet and a
// conflict on the second call.
func TestEnroll_DuplicateAddress(t *testing.T) {
	svc := newService(t)
	kp := keypair.MustRandom()
	dest := keypair.MustRandom()
	ctx := context.Background()

	_, err := svc.Enroll(ctx, kp.Address(), kp.Seed(), dest.Address())
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, kp.Address(), kp.Seed(), dest.Address())
	assert.ErrorIs(t, err, wallet.ErrDuplicateAddress)

	wallets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, wallets, 1)
}

func TestRemove(t *testing.T) {
	svc := newService(t)
	kp := keypair.MustRandom()
	dest := keypair.MustRandom()
	ctx := context.Background()

	w, err := svc.Enroll(ctx, kp.Address(), kp.Seed(), dest.Address())
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, w.ID))

	_, err = svc.Get(ctx, w.ID)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	// The address is free for re-enrollment.
	_, err = svc.Enroll(ctx, kp.Address(), kp.Seed(), dest.Address())
	assert.NoError(t, err)
}

func TestRemove_NotFound(t *testing.T) {
	svc := newService(t)
	err := svc.Remove(context.Background(), uuid.New())
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestQuarantine(t *testing.T) {
	svc := newService(t)
	kp := keypair.MustRandom()
	dest := keypair.MustRandom()
	ctx := context.Background()

	w, err := svc.Enroll(ctx, kp.Address(), kp.Seed(), dest.Address())
	require.NoError(t, err)

	require.NoError(t, svc.Quarantine(ctx, w.ID))

	got, err := svc.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.StatusQuarantined, got.Status)
}

func TestMaskAddress(t *testing.T) {
	assert.Equal(t, "GDUKMG…M2QX", wallet.MaskAddress("GDUKMGUGDZQK6YHYA5Z6AY2G4XDSZPSZ3SW5UN3ARVMO6QSRDWP5M2QX"))
	assert.Equal(t, "short", wallet.MaskAddress("short"))
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/piclaim/internal/platform/wallet"
	"github.com/kislikjeka/piclaim/testutil/testdb"
)

func setupRepo(t *testing.T) (*WalletRepository, *testdb.TestDB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	db, err := testdb.NewTestDB(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close(context.Background())
	})

	return NewWalletRepository(db.Pool), db
}

func testWallet() *wallet.Wallet {
	kp := keypair.MustRandom()
	return &wallet.Wallet{
		ID:          uuid.New(),
		Address:     kp.Address(),
		Secret:      kp.Seed(),
		Destination: keypair.MustRandom().Address(),
		Status:      wallet.StatusActive,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestWalletRepositoryCRUD(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	w := testWallet()
	require.NoError(t, repo.Create(ctx, w))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.Address, got.Address)
	assert.Equal(t, w.Secret, got.Secret)
	assert.Equal(t, w.Destination, got.Destination)
	assert.Equal(t, wallet.StatusActive, got.Status)

	byAddr, err := repo.GetByAddress(ctx, w.Address)
	require.NoError(t, err)
	assert.Equal(t, w.ID, byAddr.ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, w.ID))
	_, err = repo.GetByID(ctx, w.ID)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestWalletRepositoryDuplicateAddress(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	w := testWallet()
	require.NoError(t, repo.Create(ctx, w))

	dup := testWallet()
	dup.Address = w.Address
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, wallet.ErrDuplicateAddress)
}

func TestWalletRepositoryUpdateStatus(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	w := testWallet()
	require.NoError(t, repo.Create(ctx, w))

	require.NoError(t, repo.UpdateStatus(ctx, w.ID, wallet.StatusQuarantined))
	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.StatusQuarantined, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), wallet.StatusActive), wallet.ErrWalletNotFound)
}

func TestWalletRepositoryMissingRows(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	_, err = repo.GetByAddress(ctx, keypair.MustRandom().Address())
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), wallet.ErrWalletNotFound)
}

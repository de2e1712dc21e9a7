package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diamondpay/models"
	"diamondpay/store"
	"diamondpay/store/testutil"
)

func TestWalletStore_CreditAndDeduct(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	wallets := store.NewWalletStore(tr.Client)

	t.Run("first read initializes an empty wallet", func(t *testing.T) {
		wallet, err := wallets.Get(ctx, "creator-1")
		require.NoError(t, err)
		assert.Equal(t, "creator-1", wallet.UserID)
		assert.Equal(t, 0.0, wallet.Balance)
	})

	t.Run("credit accumulates balance and lifetime earnings", func(t *testing.T) {
		wallet, err := wallets.Credit(ctx, "creator-1", 8.00)
		require.NoError(t, err)
		assert.Equal(t, 8.00, wallet.Balance)

		wallet, err = wallets.Credit(ctx, "creator-1", 4.75)
		require.NoError(t, err)
		assert.Equal(t, 12.75, wallet.Balance)
		assert.Equal(t, 12.75, wallet.TotalEarnings)
	})

	t.Run("deduct reduces the balance only", func(t *testing.T) {
		wallet, err := wallets.Deduct(ctx, "creator-1", 10.00)
		require.NoError(t, err)
		assert.Equal(t, 2.75, wallet.Balance)
		assert.Equal(t, 12.75, wallet.TotalEarnings)
	})

	t.Run("overdraft reports the available balance", func(t *testing.T) {
		_, err := wallets.Deduct(ctx, "creator-1", 100.00)

		var insufficientErr *models.InsufficientFundsError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, 2.75, insufficientErr.Available)
		assert.Equal(t, 100.00, insufficientErr.Requested)
	})

	t.Run("deduct from missing wallet returns ErrNotFound", func(t *testing.T) {
		_, err := wallets.Deduct(ctx, "ghost", 5.00)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWalletStore_RefundDoesNotCountAsEarning(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	wallets := store.NewWalletStore(tr.Client)

	_, err := wallets.Credit(ctx, "creator-1", 100.00)
	require.NoError(t, err)
	_, err = wallets.Deduct(ctx, "creator-1", 40.00)
	require.NoError(t, err)

	wallet, err := wallets.Refund(ctx, "creator-1", 40.00)
	require.NoError(t, err)
	assert.Equal(t, 100.00, wallet.Balance)
	assert.Equal(t, 100.00, wallet.TotalEarnings)

	t.Run("refund to missing wallet returns ErrNotFound", func(t *testing.T) {
		_, err := wallets.Refund(ctx, "ghost", 5.00)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWalletStore_History(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	wallets := store.NewWalletStore(tr.Client)

	err := wallets.AppendHistory(ctx, "creator-1", &models.WalletTransaction{
		ID:          "wt-1",
		UserID:      "creator-1",
		Type:        models.WalletTransactionTip,
		Amount:      10.00,
		NetAmount:   8.00,
		PlatformFee: 2.00,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	err = wallets.AppendHistory(ctx, "creator-1", &models.WalletTransaction{
		ID:        "wt-2",
		UserID:    "creator-1",
		Type:      models.WalletTransactionWithdrawal,
		Amount:    20.00,
		NetAmount: -20.00,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	history, err := wallets.History(ctx, "creator-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "wt-2", history[0].ID)
	assert.Equal(t, 8.00, history[1].NetAmount)
	assert.Equal(t, 2.00, history[1].PlatformFee)
}

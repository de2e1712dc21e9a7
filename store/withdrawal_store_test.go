package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diamondpay/models"
	"diamondpay/store"
	"diamondpay/store/testutil"
)

func pendingWithdrawal(id, userID string, amount float64) *models.Withdrawal {
	return &models.Withdrawal{
		ID:           id,
		UserID:       userID,
		Amount:       amount,
		Status:       models.WithdrawalStatusPending,
		PayoutMethod: "paypal",
		RequestedAt:  time.Now().UTC(),
	}
}

func TestWithdrawalStore_Transition(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	wallets := store.NewWalletStore(tr.Client)
	withdrawals := store.NewWithdrawalStore(tr.Client)

	// Wallet with funds already earmarked: balance reduced, request recorded.
	_, err := wallets.Credit(ctx, "creator-1", 100.00)
	require.NoError(t, err)
	_, err = wallets.Deduct(ctx, "creator-1", 50.00)
	require.NoError(t, err)
	require.NoError(t, withdrawals.Create(ctx, pendingWithdrawal("wd-1", "creator-1", 50.00)))

	t.Run("approve completes and counts toward lifetime payouts", func(t *testing.T) {
		wd, wallet, err := withdrawals.Transition(ctx, "wd-1", "creator-1", models.WithdrawalActionApprove)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusCompleted, wd.Status)
		require.NotNil(t, wd.ProcessedAt)
		assert.Equal(t, 50.00, wallet.TotalWithdrawn)
		assert.Equal(t, 50.00, wallet.Balance)
	})

	t.Run("second decision returns ErrAlreadyProcessed", func(t *testing.T) {
		_, _, err := withdrawals.Transition(ctx, "wd-1", "creator-1", models.WithdrawalActionReject)
		assert.ErrorIs(t, err, models.ErrAlreadyProcessed)

		// The first decision stands.
		wd, err := withdrawals.Get(ctx, "wd-1")
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusCompleted, wd.Status)
	})

	t.Run("reject refunds the wallet", func(t *testing.T) {
		_, err = wallets.Deduct(ctx, "creator-1", 30.00)
		require.NoError(t, err)
		require.NoError(t, withdrawals.Create(ctx, pendingWithdrawal("wd-2", "creator-1", 30.00)))

		wd, wallet, err := withdrawals.Transition(ctx, "wd-2", "creator-1", models.WithdrawalActionReject)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusRejected, wd.Status)
		assert.Equal(t, 50.00, wallet.Balance)
		assert.Equal(t, 50.00, wallet.TotalWithdrawn)
	})

	t.Run("unknown withdrawal returns ErrNotFound", func(t *testing.T) {
		_, _, err := withdrawals.Transition(ctx, "wd-ghost", "creator-1", models.WithdrawalActionApprove)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWithdrawalStore_ConcurrentDecisions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	wallets := store.NewWalletStore(tr.Client)
	withdrawals := store.NewWithdrawalStore(tr.Client)

	_, err := wallets.Credit(ctx, "creator-1", 50.00)
	require.NoError(t, err)
	_, err = wallets.Deduct(ctx, "creator-1", 50.00)
	require.NoError(t, err)
	require.NoError(t, withdrawals.Create(ctx, pendingWithdrawal("wd-1", "creator-1", 50.00)))

	// Two admins race: one approves, one rejects. Exactly one decision wins.
	const workers = 10
	var decided atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		action := models.WithdrawalActionApprove
		if i%2 == 1 {
			action = models.WithdrawalActionReject
		}
		go func(a models.WithdrawalAction) {
			defer wg.Done()
			if _, _, err := withdrawals.Transition(ctx, "wd-1", "creator-1", a); err == nil {
				decided.Add(1)
			}
		}(action)
	}
	wg.Wait()

	assert.Equal(t, int64(1), decided.Load())

	wd, err := withdrawals.Get(ctx, "wd-1")
	require.NoError(t, err)
	assert.Contains(t, []models.WithdrawalStatus{
		models.WithdrawalStatusCompleted,
		models.WithdrawalStatusRejected,
	}, wd.Status)
}

func TestWithdrawalStore_Listing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	wallets := store.NewWalletStore(tr.Client)
	withdrawals := store.NewWithdrawalStore(tr.Client)

	_, err := wallets.Credit(ctx, "creator-1", 200.00)
	require.NoError(t, err)

	require.NoError(t, withdrawals.Create(ctx, pendingWithdrawal("wd-1", "creator-1", 20.00)))
	require.NoError(t, withdrawals.Create(ctx, pendingWithdrawal("wd-2", "creator-1", 30.00)))
	require.NoError(t, withdrawals.Create(ctx, pendingWithdrawal("wd-3", "creator-2", 40.00)))

	t.Run("by user, newest first", func(t *testing.T) {
		list, err := withdrawals.ListByUser(ctx, "creator-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "wd-2", list[0].ID)
	})

	t.Run("pending queue, oldest first", func(t *testing.T) {
		pending, err := withdrawals.ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		assert.Equal(t, "wd-1", pending[0].ID)
	})

	t.Run("resolved requests leave the pending queue", func(t *testing.T) {
		_, err := wallets.Deduct(ctx, "creator-1", 20.00)
		require.NoError(t, err)
		_, _, err = withdrawals.Transition(ctx, "wd-1", "creator-1", models.WithdrawalActionApprove)
		require.NoError(t, err)

		pending, err := withdrawals.ListPending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, "wd-2", pending[0].ID)
	})
}

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

func pendingPurchase(id, userID string) *models.Purchase {
	return &models.Purchase{
		ID:                id,
		UserID:            userID,
		PackageID:         "pkg-popular",
		DiamondAmount:     500,
		BonusDiamonds:     50,
		TotalDiamonds:     550,
		AmountUSD:         12.99,
		ExternalSessionID: "cs_" + id,
		Status:            models.PurchaseStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
}

func TestPurchaseStore_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	purchases := store.NewPurchaseStore(tr.Client)

	require.NoError(t, purchases.Create(ctx, pendingPurchase("dp-1", "user-1")))

	got, err := purchases.Get(ctx, "dp-1")
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusPending, got.Status)
	assert.Equal(t, int64(550), got.TotalDiamonds)

	_, err = purchases.Get(ctx, "dp-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Pending records carry an expiry so abandoned checkouts age out.
	ttl, err := tr.Client.TTL(ctx, "diamond:purchase:dp-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
}

func TestPurchaseStore_CreateCompletedDoesNotExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	purchases := store.NewPurchaseStore(tr.Client)

	now := time.Now().UTC()
	completed := pendingPurchase("dp-mock", "user-1")
	completed.Status = models.PurchaseStatusCompleted
	completed.ExternalPaymentID = "mock_abc"
	completed.CompletedAt = &now
	require.NoError(t, purchases.Create(ctx, completed))

	ttl, err := tr.Client.TTL(ctx, "diamond:purchase:dp-mock").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestPurchaseStore_Complete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	purchases := store.NewPurchaseStore(tr.Client)

	require.NoError(t, purchases.Create(ctx, pendingPurchase("dp-1", "user-1")))

	t.Run("first completion wins", func(t *testing.T) {
		purchase, won, err := purchases.Complete(ctx, "dp-1", "pay_abc")
		require.NoError(t, err)
		assert.True(t, won)
		assert.Equal(t, models.PurchaseStatusCompleted, purchase.Status)
		assert.Equal(t, "pay_abc", purchase.ExternalPaymentID)
		require.NotNil(t, purchase.CompletedAt)

		// Completion clears the pending expiry.
		ttl, err := tr.Client.TTL(ctx, "diamond:purchase:dp-1").Result()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("replay is a no-op", func(t *testing.T) {
		purchase, won, err := purchases.Complete(ctx, "dp-1", "pay_abc")
		require.NoError(t, err)
		assert.False(t, won)
		assert.Nil(t, purchase)
	})

	t.Run("unknown purchase returns ErrNotFound", func(t *testing.T) {
		_, _, err := purchases.Complete(ctx, "dp-ghost", "pay_xyz")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPurchaseStore_ConcurrentCompletions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	purchases := store.NewPurchaseStore(tr.Client)

	require.NoError(t, purchases.Create(ctx, pendingPurchase("dp-1", "user-1")))

	const workers = 20
	var wins atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, won, err := purchases.Complete(ctx, "dp-1", "pay_abc")
			if err == nil && won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}

func TestPurchaseStore_ListByUser(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	purchases := store.NewPurchaseStore(tr.Client)

	require.NoError(t, purchases.Create(ctx, pendingPurchase("dp-1", "user-1")))
	require.NoError(t, purchases.Create(ctx, pendingPurchase("dp-2", "user-1")))
	require.NoError(t, purchases.Create(ctx, pendingPurchase("dp-3", "user-2")))

	list, err := purchases.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dp-2", list[0].ID)

	other, err := purchases.ListByUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

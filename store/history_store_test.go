package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diamondpay/models"
	"diamondpay/store"
	"diamondpay/store/testutil"
)

func TestHistoryStore_AppendAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	history := store.NewHistoryStore(tr.Client)

	entries, err := history.List(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for i := 0; i < 5; i++ {
		err := history.Append(ctx, "user-1", &models.DiamondTransaction{
			ID:            fmt.Sprintf("dt-%d", i),
			Type:          models.TransactionTypeSpend,
			Amount:        -10,
			ReferenceType: models.ReferenceTypeSuperLike,
			CreatedAt:     time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	entries, err = history.List(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Newest first.
	assert.Equal(t, "dt-4", entries[0].ID)
	assert.Equal(t, "dt-0", entries[4].ID)

	limited, err := history.List(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "dt-4", limited[0].ID)
}

func TestHistoryStore_SkipsMalformedEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	history := store.NewHistoryStore(tr.Client)

	err := history.Append(ctx, "user-1", &models.DiamondTransaction{
		ID:     "dt-good",
		Type:   models.TransactionTypeCredit,
		Amount: 100,
	})
	require.NoError(t, err)

	// Corrupt entry pushed directly past the store.
	require.NoError(t, tr.Client.LPush(ctx, "diamond:history:user-1", "{not json").Err())

	entries, err := history.List(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dt-good", entries[0].ID)
}

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diamondpay/models"
	"diamondpay/store"
	"diamondpay/store/testutil"
)

func TestPricingStore_SeedsDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	pricing := store.NewPricingStore(tr.Client)

	cfg, err := pricing.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(50), cfg.SuperLikeCost)
	assert.Equal(t, int64(150), cfg.BoostCost)
	assert.Equal(t, 30, cfg.BoostDurationMinutes)
	assert.Equal(t, int64(100), cfg.ConversionRate)
	assert.Equal(t, 0.2, cfg.PlatformFeeRate)
	assert.Equal(t, int64(500), cfg.MinConversionDiamonds)
}

func TestPricingStore_PartialUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	pricing := store.NewPricingStore(tr.Client)

	newCost := int64(75)
	newFee := 0.25
	updated, err := pricing.Update(ctx, &models.PricingUpdate{
		SuperLikeCost:   &newCost,
		PlatformFeeRate: &newFee,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(75), updated.SuperLikeCost)
	assert.Equal(t, 0.25, updated.PlatformFeeRate)
	// Untouched fields keep their previous values.
	assert.Equal(t, int64(150), updated.BoostCost)
	assert.Equal(t, int64(500), updated.MinConversionDiamonds)

	reread, err := pricing.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(75), reread.SuperLikeCost)
}

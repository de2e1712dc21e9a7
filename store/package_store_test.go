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

func TestPackageStore_Catalog(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	tr := testutil.SetupTestRedis(t)
	packages := store.NewPackageStore(tr.Client)

	t.Run("seeds the default catalog sorted by sort order", func(t *testing.T) {
		active, err := packages.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 4)
		assert.Equal(t, "pkg-starter", active[0].ID)
		assert.Equal(t, "pkg-elite", active[3].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		pkg, err := packages.GetByID(ctx, "pkg-popular")
		require.NoError(t, err)
		assert.Equal(t, int64(500), pkg.DiamondAmount)
		assert.Equal(t, int64(50), pkg.BonusDiamonds)
		assert.Equal(t, 12.99, pkg.PriceUSD)
	})

	t.Run("unknown id returns ErrInvalidPackage", func(t *testing.T) {
		_, err := packages.GetByID(ctx, "pkg-nope")
		assert.ErrorIs(t, err, models.ErrInvalidPackage)
	})

	t.Run("deactivated package leaves the active list", func(t *testing.T) {
		require.NoError(t, packages.Deactivate(ctx, "pkg-starter"))

		active, err := packages.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 3)

		all, err := packages.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		pkg, err := packages.GetByID(ctx, "pkg-starter")
		require.NoError(t, err)
		assert.False(t, pkg.IsActive)
	})

	t.Run("created package appears in the catalog", func(t *testing.T) {
		created, err := packages.Create(ctx, &models.DiamondPackage{
			Name:          "Mega",
			DiamondAmount: 10000,
			BonusDiamonds: 5000,
			PriceUSD:      149.99,
			SortOrder:     10,
			IsActive:      true,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		active, err := packages.ListActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, created.ID, active[len(active)-1].ID)
	})
}

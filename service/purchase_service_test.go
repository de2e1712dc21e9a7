package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"diamondpay/events"
	"diamondpay/gateway"
	"diamondpay/models"
)

func popularPackage() *models.DiamondPackage {
	return &models.DiamondPackage{
		ID:            "pkg-popular",
		Name:          "Popular",
		DiamondAmount: 500,
		BonusDiamonds: 50,
		PriceUSD:      12.99,
		SortOrder:     2,
		IsActive:      true,
	}
}

type purchaseServiceFixture struct {
	packages  *MockPackageStore
	purchases *MockPurchaseStore
	balances  *MockBalanceStore
	history   *MockHistoryStore
	checkout  *MockCheckoutClient
	publisher *MockEventPublisher
	service   *PurchaseService
}

func newPurchaseServiceFixture() *purchaseServiceFixture {
	f := &purchaseServiceFixture{
		packages:  new(MockPackageStore),
		purchases: new(MockPurchaseStore),
		balances:  new(MockBalanceStore),
		history:   new(MockHistoryStore),
		checkout:  new(MockCheckoutClient),
		publisher: new(MockEventPublisher),
	}
	ledger := newTestDiamondService(f.balances, f.history, nil, nil)
	f.service = NewPurchaseService(f.packages, f.purchases, ledger, f.checkout, f.publisher, nil)
	return f
}

func TestPurchaseService_CreateCheckoutIntent_Success(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	f.packages.On("GetByID", ctx, "pkg-popular").Return(popularPackage(), nil)
	f.checkout.On("CreateCheckoutSession", ctx, 12.99, mock.Anything, mock.MatchedBy(func(metadata map[string]string) bool {
		return metadata[gateway.MetadataUserID] == "user-1" &&
			metadata[gateway.MetadataDiamondAmount] == "550" &&
			strings.HasPrefix(metadata[gateway.MetadataPurchaseID], "dp-")
	})).Return(&gateway.CheckoutSession{SessionID: "cs_123", RedirectURL: "https://pay.example/cs_123"}, nil)
	f.purchases.On("Create", ctx, mock.MatchedBy(func(p *models.Purchase) bool {
		return p.UserID == "user-1" &&
			p.PackageID == "pkg-popular" &&
			p.TotalDiamonds == 550 &&
			p.ExternalSessionID == "cs_123" &&
			p.Status == models.PurchaseStatusPending
	})).Return(nil)

	purchase, session, err := f.service.CreateCheckoutIntent(ctx, "user-1", "pkg-popular")

	assert.NoError(t, err)
	assert.Equal(t, "cs_123", session.SessionID)
	assert.Equal(t, int64(550), purchase.TotalDiamonds)
	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
	f.purchases.AssertExpectations(t)
	f.balances.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseService_CreateCheckoutIntent_InactivePackage(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	pkg := popularPackage()
	pkg.IsActive = false
	f.packages.On("GetByID", ctx, "pkg-popular").Return(pkg, nil)

	_, _, err := f.service.CreateCheckoutIntent(ctx, "user-1", "pkg-popular")

	assert.ErrorIs(t, err, models.ErrInvalidPackage)
	f.checkout.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseService_CreateCheckoutIntent_UnknownPackage(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	f.packages.On("GetByID", ctx, "pkg-nope").Return(nil, models.ErrInvalidPackage)

	_, _, err := f.service.CreateCheckoutIntent(ctx, "user-1", "pkg-nope")

	assert.ErrorIs(t, err, models.ErrInvalidPackage)
}

func TestPurchaseService_HandlePaymentConfirmed_CreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	completed := &models.Purchase{
		ID:            "dp-1",
		UserID:        "user-1",
		TotalDiamonds: 550,
		AmountUSD:     12.99,
		Status:        models.PurchaseStatusCompleted,
	}
	metadata := map[string]string{
		gateway.MetadataPurchaseID:    "dp-1",
		gateway.MetadataUserID:        "user-1",
		gateway.MetadataDiamondAmount: "550",
	}

	f.purchases.On("Complete", ctx, "dp-1", "pay_abc").Return(completed, true, nil)
	f.balances.On("Credit", ctx, "user-1", int64(550), models.CreditKindPurchase).Return(int64(550), nil)
	f.history.On("Append", ctx, "user-1", mock.MatchedBy(func(tx *models.DiamondTransaction) bool {
		return tx.Type == models.TransactionTypePurchase &&
			tx.ReferenceID == "dp-1" &&
			tx.ReferenceType == models.ReferenceTypeDiamondPurchase
	})).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		purchased, ok := e.(events.DiamondPurchasedEvent)
		return ok && purchased.PurchaseID == "dp-1" && purchased.DiamondAmount == 550 &&
			purchased.ExternalPaymentID == "pay_abc"
	})).Return(nil)

	err := f.service.HandlePaymentConfirmed(ctx, "pay_abc", metadata)

	assert.NoError(t, err)
	f.balances.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestPurchaseService_HandlePaymentConfirmed_DuplicateIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	metadata := map[string]string{
		gateway.MetadataPurchaseID:    "dp-1",
		gateway.MetadataUserID:        "user-1",
		gateway.MetadataDiamondAmount: "550",
	}

	f.purchases.On("Complete", ctx, "dp-1", "pay_abc").Return(nil, false, nil)

	err := f.service.HandlePaymentConfirmed(ctx, "pay_abc", metadata)

	assert.NoError(t, err)
	f.balances.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestPurchaseService_HandlePaymentConfirmed_UnknownPurchaseIgnored(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	metadata := map[string]string{
		gateway.MetadataPurchaseID:    "dp-missing",
		gateway.MetadataUserID:        "user-1",
		gateway.MetadataDiamondAmount: "550",
	}

	f.purchases.On("Complete", ctx, "dp-missing", "pay_abc").Return(nil, false, models.ErrNotFound)

	err := f.service.HandlePaymentConfirmed(ctx, "pay_abc", metadata)

	assert.NoError(t, err)
	f.balances.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchaseService_HandlePaymentConfirmed_MissingMetadataIgnored(t *testing.T) {
	ctx := context.Background()

	cases := map[string]map[string]string{
		"empty": {},
		"no diamond amount": {
			gateway.MetadataPurchaseID: "dp-1",
			gateway.MetadataUserID:     "user-1",
		},
		"no purchase id": {
			gateway.MetadataUserID:        "user-1",
			gateway.MetadataDiamondAmount: "550",
		},
	}
	for name, metadata := range cases {
		t.Run(name, func(t *testing.T) {
			f := newPurchaseServiceFixture()

			err := f.service.HandlePaymentConfirmed(ctx, "pay_abc", metadata)

			assert.NoError(t, err)
			f.purchases.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPurchaseService_MockPurchase_CreditsImmediately(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	f.packages.On("GetByID", ctx, "pkg-popular").Return(popularPackage(), nil)
	f.purchases.On("Create", ctx, mock.MatchedBy(func(p *models.Purchase) bool {
		return p.Status == models.PurchaseStatusCompleted &&
			strings.HasPrefix(p.ExternalPaymentID, "mock_") &&
			p.CompletedAt != nil
	})).Return(nil)
	f.balances.On("Credit", ctx, "user-1", int64(550), models.CreditKindPurchase).Return(int64(550), nil)
	f.history.On("Append", ctx, "user-1", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	purchase, err := f.service.MockPurchase(ctx, "user-1", "pkg-popular")

	assert.NoError(t, err)
	assert.Equal(t, models.PurchaseStatusCompleted, purchase.Status)
	assert.Equal(t, int64(550), purchase.TotalDiamonds)
	f.balances.AssertExpectations(t)
}

func TestPurchaseService_ListPackages(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseServiceFixture()

	f.packages.On("ListActive", ctx).Return([]*models.DiamondPackage{popularPackage()}, nil)

	packages, err := f.service.ListPackages(ctx)

	assert.NoError(t, err)
	assert.Len(t, packages, 1)
}

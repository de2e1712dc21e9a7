package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"diamondpay/events"
	"diamondpay/gateway"
	"diamondpay/models"
)

// Mock implementations of the store interfaces for unit testing services.

type MockBalanceStore struct {
	mock.Mock
}

func (m *MockBalanceStore) Get(ctx context.Context, userID string) (*models.DiamondBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiamondBalance), args.Error(1)
}

func (m *MockBalanceStore) Spend(ctx context.Context, userID string, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceStore) Credit(ctx context.Context, userID string, amount int64, kind models.CreditKind) (int64, error) {
	args := m.Called(ctx, userID, amount, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceStore) Transfer(ctx context.Context, fromUserID, toUserID string, amount int64) (*models.TransferResult, error) {
	args := m.Called(ctx, fromUserID, toUserID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1)
}

func (m *MockBalanceStore) Convert(ctx context.Context, userID string, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Append(ctx context.Context, userID string, tx *models.DiamondTransaction) error {
	args := m.Called(ctx, userID, tx)
	return args.Error(0)
}

func (m *MockHistoryStore) List(ctx context.Context, userID string, limit int) ([]*models.DiamondTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DiamondTransaction), args.Error(1)
}

type MockPricingStore struct {
	mock.Mock
}

func (m *MockPricingStore) Get(ctx context.Context) (*models.PricingConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingConfig), args.Error(1)
}

func (m *MockPricingStore) Update(ctx context.Context, update *models.PricingUpdate) (*models.PricingConfig, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingConfig), args.Error(1)
}

type MockPackageStore struct {
	mock.Mock
}

func (m *MockPackageStore) ListActive(ctx context.Context) ([]*models.DiamondPackage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DiamondPackage), args.Error(1)
}

func (m *MockPackageStore) ListAll(ctx context.Context) ([]*models.DiamondPackage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DiamondPackage), args.Error(1)
}

func (m *MockPackageStore) GetByID(ctx context.Context, id string) (*models.DiamondPackage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiamondPackage), args.Error(1)
}

func (m *MockPackageStore) Create(ctx context.Context, pkg *models.DiamondPackage) (*models.DiamondPackage, error) {
	args := m.Called(ctx, pkg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiamondPackage), args.Error(1)
}

func (m *MockPackageStore) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPurchaseStore struct {
	mock.Mock
}

func (m *MockPurchaseStore) Create(ctx context.Context, purchase *models.Purchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockPurchaseStore) Get(ctx context.Context, id string) (*models.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Purchase), args.Error(1)
}

func (m *MockPurchaseStore) Complete(ctx context.Context, id, externalPaymentID string) (*models.Purchase, bool, error) {
	args := m.Called(ctx, id, externalPaymentID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Purchase), args.Bool(1), args.Error(2)
}

func (m *MockPurchaseStore) ListByUser(ctx context.Context, userID string) ([]*models.Purchase, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Purchase), args.Error(1)
}

type MockWalletStore struct {
	mock.Mock
}

func (m *MockWalletStore) Get(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletStore) Credit(ctx context.Context, userID string, netAmount float64) (*models.Wallet, error) {
	args := m.Called(ctx, userID, netAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletStore) Refund(ctx context.Context, userID string, amount float64) (*models.Wallet, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletStore) Deduct(ctx context.Context, userID string, amount float64) (*models.Wallet, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletStore) AppendHistory(ctx context.Context, userID string, tx *models.WalletTransaction) error {
	args := m.Called(ctx, userID, tx)
	return args.Error(0)
}

func (m *MockWalletStore) History(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletTransaction), args.Error(1)
}

type MockWithdrawalStore struct {
	mock.Mock
}

func (m *MockWithdrawalStore) Create(ctx context.Context, wd *models.Withdrawal) error {
	args := m.Called(ctx, wd)
	return args.Error(0)
}

func (m *MockWithdrawalStore) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalStore) Transition(ctx context.Context, id, userID string, action models.WithdrawalAction) (*models.Withdrawal, *models.Wallet, error) {
	args := m.Called(ctx, id, userID, action)
	var wd *models.Withdrawal
	var wallet *models.Wallet
	if args.Get(0) != nil {
		wd = args.Get(0).(*models.Withdrawal)
	}
	if args.Get(1) != nil {
		wallet = args.Get(1).(*models.Wallet)
	}
	return wd, wallet, args.Error(2)
}

func (m *MockWithdrawalStore) ListByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalStore) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Record(ctx context.Context, entry *models.ArchiveEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockEventPublisher captures published events for assertion.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

type MockCheckoutClient struct {
	mock.Mock
}

func (m *MockCheckoutClient) CreateCheckoutSession(ctx context.Context, amountUSD float64, description string, metadata map[string]string) (*gateway.CheckoutSession, error) {
	args := m.Called(ctx, amountUSD, description, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}

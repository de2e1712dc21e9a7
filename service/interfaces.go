package service

import (
	"context"

	"diamondpay/models"
)

// BalanceStore is the atomic diamond balance primitive set. Implementations
// must make each operation linearizable per affected key across processes.
type BalanceStore interface {
	Get(ctx context.Context, userID string) (*models.DiamondBalance, error)
	Spend(ctx context.Context, userID string, amount int64) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, kind models.CreditKind) (int64, error)
	Transfer(ctx context.Context, fromUserID, toUserID string, amount int64) (*models.TransferResult, error)
	Convert(ctx context.Context, userID string, amount int64) (int64, error)
}

// HistoryStore is the append-only diamond transaction log.
type HistoryStore interface {
	Append(ctx context.Context, userID string, tx *models.DiamondTransaction) error
	List(ctx context.Context, userID string, limit int) ([]*models.DiamondTransaction, error)
}

// PricingStore holds the mutable pricing configuration.
type PricingStore interface {
	Get(ctx context.Context) (*models.PricingConfig, error)
	Update(ctx context.Context, update *models.PricingUpdate) (*models.PricingConfig, error)
}

// PackageStore manages the diamond package catalog.
type PackageStore interface {
	ListActive(ctx context.Context) ([]*models.DiamondPackage, error)
	ListAll(ctx context.Context) ([]*models.DiamondPackage, error)
	GetByID(ctx context.Context, id string) (*models.DiamondPackage, error)
	Create(ctx context.Context, pkg *models.DiamondPackage) (*models.DiamondPackage, error)
	Deactivate(ctx context.Context, id string) error
}

// PurchaseStore persists purchase records tied to external checkout sessions.
type PurchaseStore interface {
	Create(ctx context.Context, purchase *models.Purchase) error
	Get(ctx context.Context, id string) (*models.Purchase, error)
	Complete(ctx context.Context, id, externalPaymentID string) (*models.Purchase, bool, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Purchase, error)
}

// WalletStore holds creator cash wallets and their history.
type WalletStore interface {
	Get(ctx context.Context, userID string) (*models.Wallet, error)
	Credit(ctx context.Context, userID string, netAmount float64) (*models.Wallet, error)
	Deduct(ctx context.Context, userID string, amount float64) (*models.Wallet, error)
	Refund(ctx context.Context, userID string, amount float64) (*models.Wallet, error)
	AppendHistory(ctx context.Context, userID string, tx *models.WalletTransaction) error
	History(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error)
}

// WithdrawalStore persists withdrawal requests and their atomic transitions.
type WithdrawalStore interface {
	Create(ctx context.Context, wd *models.Withdrawal) error
	Get(ctx context.Context, id string) (*models.Withdrawal, error)
	Transition(ctx context.Context, id, userID string, action models.WithdrawalAction) (*models.Withdrawal, *models.Wallet, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error)
	ListPending(ctx context.Context) ([]*models.Withdrawal, error)
}

// Archiver copies balance mutations to durable storage. Failures are logged
// by the caller and never roll back the mutation.
type Archiver interface {
	Record(ctx context.Context, entry *models.ArchiveEntry) error
}

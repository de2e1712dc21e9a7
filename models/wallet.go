package models

import (
	"time"
)

// EarningKind categorizes creator earnings credited to a wallet.
// Closed set; unknown kinds are rejected before any mutation.
type EarningKind string

const (
	EarningKindTip          EarningKind = "tip_received"
	EarningKindSubscription EarningKind = "subscription_received"
	EarningKindPPV          EarningKind = "ppv_received"
)

// Valid reports whether the kind is one of the closed set.
func (k EarningKind) Valid() bool {
	return k == EarningKindTip || k == EarningKindSubscription || k == EarningKindPPV
}

// WalletTransactionType is the type tag on a wallet history entry: either an
// EarningKind or a withdrawal.
type WalletTransactionType string

const (
	WalletTransactionTip          = WalletTransactionType(EarningKindTip)
	WalletTransactionSubscription = WalletTransactionType(EarningKindSubscription)
	WalletTransactionPPV          = WalletTransactionType(EarningKindPPV)

	WalletTransactionWithdrawal WalletTransactionType = "withdrawal"
)

// Wallet is a creator's real-money earnings record, independent of the
// diamond balance. Balance is the amount available for withdrawal.
type Wallet struct {
	UserID         string    `json:"userId"`
	Balance        float64   `json:"balance"`
	PendingBalance float64   `json:"pendingBalance"`
	TotalEarnings  float64   `json:"totalEarnings"`
	TotalWithdrawn float64   `json:"totalWithdrawn"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WalletTransaction is an immutable wallet history entry. Amount is the gross
// amount; NetAmount is what actually moved after the platform fee.
type WalletTransaction struct {
	ID          string                `json:"id"`
	UserID      string                `json:"userId"`
	Type        WalletTransactionType `json:"type"`
	Amount      float64               `json:"amount"`
	NetAmount   float64               `json:"netAmount"`
	PlatformFee float64               `json:"platformFee"`
	ReferenceID string                `json:"referenceId,omitempty"`
	Description string                `json:"description"`
	CreatedAt   time.Time             `json:"createdAt"`
}

package models

import (
	"time"
)

// TransactionType represents the type of a diamond ledger entry
type TransactionType string

const (
	TransactionTypePurchase    TransactionType = "purchase"
	TransactionTypeSpend       TransactionType = "spend"
	TransactionTypeCredit      TransactionType = "credit"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeConversion  TransactionType = "conversion"
)

// CreditKind selects which lifetime counter a credit bumps
type CreditKind string

const (
	CreditKindPurchase CreditKind = "purchase"
	CreditKindReceived CreditKind = "received"
)

// Valid reports whether the kind is one of the closed set.
func (k CreditKind) Valid() bool {
	return k == CreditKindPurchase || k == CreditKindReceived
}

// ReferenceType categorizes what a spend or transfer paid for.
// Closed set; unknown values are rejected at the service boundary.
type ReferenceType string

const (
	ReferenceTypeSuperLike       ReferenceType = "super_like"
	ReferenceTypeBoost           ReferenceType = "boost"
	ReferenceTypeTip             ReferenceType = "tip"
	ReferenceTypePPV             ReferenceType = "ppv"
	ReferenceTypeDMUnlock        ReferenceType = "dm_unlock"
	ReferenceTypeAdminAdjust     ReferenceType = "admin_adjust"
	ReferenceTypeTransfer        ReferenceType = "transfer"
	ReferenceTypeCashConversion  ReferenceType = "cash_conversion"
	ReferenceTypeDiamondPurchase ReferenceType = "diamond_purchase"
)

// Valid reports whether the reference type is one of the closed set.
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferenceTypeSuperLike, ReferenceTypeBoost, ReferenceTypeTip,
		ReferenceTypePPV, ReferenceTypeDMUnlock, ReferenceTypeAdminAdjust,
		ReferenceTypeTransfer, ReferenceTypeCashConversion, ReferenceTypeDiamondPurchase:
		return true
	}
	return false
}

// DiamondBalance is the per-user diamond ledger record.
// balance is always >= 0; the lifetime counters are monotonically non-decreasing.
type DiamondBalance struct {
	Balance        int64     `json:"balance"`
	TotalPurchased int64     `json:"totalPurchased"`
	TotalSpent     int64     `json:"totalSpent"`
	TotalReceived  int64     `json:"totalReceived"`
	TotalConverted int64     `json:"totalConverted"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DiamondTransaction is an immutable ledger history entry, one per balance
// mutation. Amount is signed: negative for debits.
type DiamondTransaction struct {
	ID            string          `json:"id"`
	Type          TransactionType `json:"type"`
	Amount        int64           `json:"amount"`
	ReferenceID   string          `json:"referenceId,omitempty"`
	ReferenceType ReferenceType   `json:"referenceType,omitempty"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TransferResult carries both post-transfer balances
type TransferResult struct {
	FromBalance int64
	ToBalance   int64
}

// ConversionResult is the outcome of a diamond-to-cash conversion
type ConversionResult struct {
	CashAmount       float64
	RemainingBalance int64
}

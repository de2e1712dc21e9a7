package events

import (
	"time"

	"diamondpay/models"
)

// EventType represents different types of events produced by the ledger
type EventType string

const (
	EventTypeDiamondSpent        EventType = "diamond.spent"
	EventTypeDiamondCredited     EventType = "diamond.credited"
	EventTypeDiamondConverted    EventType = "diamond.converted"
	EventTypeDiamondPurchased    EventType = "diamond.purchased"
	EventTypeWalletCredited      EventType = "wallet.credited"
	EventTypeWithdrawalRequested EventType = "withdrawal.requested"
	EventTypeWithdrawalCompleted EventType = "withdrawal.completed"
	EventTypeWithdrawalRejected  EventType = "withdrawal.rejected"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// Publisher delivers events to the outside world. Delivery is fire-and-forget:
// failures are logged by the implementation and never roll back the mutation
// that produced the event.
type Publisher interface {
	Publish(event Event) error
}

// DiamondSpentEvent is emitted after a successful spend
type DiamondSpentEvent struct {
	UserID        string               `json:"userId"`
	Amount        int64                `json:"amount"`
	ReferenceType models.ReferenceType `json:"referenceType"`
	ReferenceID   string               `json:"referenceId,omitempty"`
	SpentAt       time.Time            `json:"spentAt"`
}

func (e DiamondSpentEvent) Type() EventType { return EventTypeDiamondSpent }

// DiamondCreditedEvent is emitted after a successful credit
type DiamondCreditedEvent struct {
	UserID      string            `json:"userId"`
	Amount      int64             `json:"amount"`
	CreditKind  models.CreditKind `json:"creditKind"`
	ReferenceID string            `json:"referenceId,omitempty"`
	CreditedAt  time.Time         `json:"creditedAt"`
}

func (e DiamondCreditedEvent) Type() EventType { return EventTypeDiamondCredited }

// DiamondConvertedEvent is emitted after a diamond-to-cash conversion
type DiamondConvertedEvent struct {
	UserID        string    `json:"userId"`
	DiamondAmount int64     `json:"diamondAmount"`
	CashAmount    float64   `json:"cashAmount"`
	ConvertedAt   time.Time `json:"convertedAt"`
}

func (e DiamondConvertedEvent) Type() EventType { return EventTypeDiamondConverted }

// DiamondPurchasedEvent is emitted when a gateway payment credits diamonds
type DiamondPurchasedEvent struct {
	PurchaseID        string    `json:"purchaseId"`
	UserID            string    `json:"userId"`
	DiamondAmount     int64     `json:"diamondAmount"`
	AmountUSD         float64   `json:"amountUsd"`
	ExternalPaymentID string    `json:"externalPaymentId"`
	PurchasedAt       time.Time `json:"purchasedAt"`
}

func (e DiamondPurchasedEvent) Type() EventType { return EventTypeDiamondPurchased }

// WalletCreditedEvent is emitted after a fee-adjusted wallet credit
type WalletCreditedEvent struct {
	UserID      string             `json:"userId"`
	Kind        models.EarningKind `json:"kind"`
	GrossAmount float64            `json:"grossAmount"`
	NetAmount   float64            `json:"netAmount"`
	PlatformFee float64            `json:"platformFee"`
	ReferenceID string             `json:"referenceId,omitempty"`
	CreditedAt  time.Time          `json:"creditedAt"`
}

func (e WalletCreditedEvent) Type() EventType { return EventTypeWalletCredited }

// WithdrawalRequestedEvent is emitted when funds are earmarked for payout
type WithdrawalRequestedEvent struct {
	WithdrawalID string    `json:"withdrawalId"`
	UserID       string    `json:"userId"`
	Amount       float64   `json:"amount"`
	PayoutMethod string    `json:"payoutMethod"`
	RequestedAt  time.Time `json:"requestedAt"`
}

func (e WithdrawalRequestedEvent) Type() EventType { return EventTypeWithdrawalRequested }

// WithdrawalCompletedEvent is emitted when an admin approves a withdrawal
type WithdrawalCompletedEvent struct {
	WithdrawalID string    `json:"withdrawalId"`
	UserID       string    `json:"userId"`
	Amount       float64   `json:"amount"`
	PayoutMethod string    `json:"payoutMethod"`
	CompletedAt  time.Time `json:"completedAt"`
}

func (e WithdrawalCompletedEvent) Type() EventType { return EventTypeWithdrawalCompleted }

// WithdrawalRejectedEvent is emitted when an admin rejects a withdrawal
type WithdrawalRejectedEvent struct {
	WithdrawalID string    `json:"withdrawalId"`
	UserID       string    `json:"userId"`
	Amount       float64   `json:"amount"`
	PayoutMethod string    `json:"payoutMethod"`
	RejectedAt   time.Time `json:"rejectedAt"`
}

func (e WithdrawalRejectedEvent) Type() EventType { return EventTypeWithdrawalRejected }

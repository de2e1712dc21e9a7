package models

import (
	"time"
)

// WithdrawalStatus is the state of a withdrawal request.
// pending -> completed and pending -> rejected are the only legal
// transitions; both targets are terminal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

// WithdrawalAction is the admin review decision on a pending withdrawal.
type WithdrawalAction string

const (
	WithdrawalActionApprove WithdrawalAction = "approve"
	WithdrawalActionReject  WithdrawalAction = "reject"
)

// Valid reports whether the action is approve or reject.
func (a WithdrawalAction) Valid() bool {
	return a == WithdrawalActionApprove || a == WithdrawalActionReject
}

// Withdrawal is a request to pay out wallet funds. The amount is deducted
// from the wallet when the request is created; rejection refunds it.
type Withdrawal struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	Amount        float64          `json:"amount"`
	Status        WithdrawalStatus `json:"status"`
	PayoutMethod  string           `json:"payoutMethod"`
	PayoutDetails string           `json:"payoutDetails,omitempty"`
	RequestedAt   time.Time        `json:"requestedAt"`
	ProcessedAt   *time.Time       `json:"processedAt,omitempty"`
}

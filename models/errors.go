package models

import (
	"errors"
	"fmt"
)

// Business-rule failures surfaced to callers as typed errors. Infrastructure
// failures (store unreachable, script error) are wrapped and propagated
// separately and must never be mistaken for one of these.
var (
	// ErrNoBalance means no diamond balance record exists for the user.
	ErrNoBalance = errors.New("no diamond balance found")

	// ErrNotFound means the referenced withdrawal or purchase does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyProcessed means a terminal withdrawal was asked to transition again.
	ErrAlreadyProcessed = errors.New("withdrawal already processed")

	// ErrInvalidPackage means the purchase targeted an unknown or inactive package.
	ErrInvalidPackage = errors.New("package not available")
)

// InsufficientError is returned when a balance exists but is too low.
// It carries the current balance for user-facing messaging.
type InsufficientError struct {
	Have int64
	Need int64
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Have, e.Need)
}

// InsufficientFundsError is the wallet (cash) variant of InsufficientError.
type InsufficientFundsError struct {
	Available float64
	Requested float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %.2f, requested %.2f", e.Available, e.Requested)
}

// BelowMinimumError is returned when an amount is under a configured floor.
type BelowMinimumError struct {
	Minimum float64
	What    string // "conversion" or "withdrawal"
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum %s amount is %g", e.What, e.Minimum)
}

// MalformedRecordError indicates stored JSON that fails to parse. The record
// is treated as corrupt: logged and skipped, never coerced to a default.
type MalformedRecordError struct {
	Key string
	Err error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at %s: %v", e.Key, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"diamondpay/models"
)

// BalanceStore exposes the atomic diamond balance primitives. Each operation
// is linearizable per affected key against callers in other processes: the
// balance check and the mutation execute as one server-side script.
type BalanceStore struct {
	rdb *redis.Client
}

// NewBalanceStore creates a balance store backed by Redis.
func NewBalanceStore(rdb *redis.Client) *BalanceStore {
	return &BalanceStore{rdb: rdb}
}

// Get returns the user's balance record, or a zeroed record if the user has
// never been credited. Records are never deleted once created.
func (s *BalanceStore) Get(ctx context.Context, userID string) (*models.DiamondBalance, error) {
	key := balanceKey(userID)
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return &models.DiamondBalance{UpdatedAt: time.Now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for user %s: %w", userID, err)
	}

	var balance models.DiamondBalance
	if err := json.Unmarshal([]byte(raw), &balance); err != nil {
		return nil, &models.MalformedRecordError{Key: key, Err: err}
	}
	return &balance, nil
}

// Spend atomically deducts amount if the balance covers it, bumping
// totalSpent. Returns the new balance, ErrNoBalance when no record exists,
// or InsufficientError carrying the current balance.
func (s *BalanceStore) Spend(ctx context.Context, userID string, amount int64) (int64, error) {
	return s.deduct(ctx, userID, amount, "totalSpent")
}

// Convert is Spend with the deduction counted against totalConverted.
func (s *BalanceStore) Convert(ctx context.Context, userID string, amount int64) (int64, error) {
	return s.deduct(ctx, userID, amount, "totalConverted")
}

func (s *BalanceStore) deduct(ctx context.Context, userID string, amount int64, counter string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	res, err := spendScript.Run(ctx, s.rdb,
		[]string{balanceKey(userID)},
		amount, time.Now().UTC().Format(time.RFC3339Nano), counter,
	).Slice()
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %s: %w", userID, err)
	}
	return parseBalanceReply(res, amount)
}

// Credit atomically adds amount to the balance, creating the record with
// zeroed counters when absent. kind selects whether totalPurchased or
// totalReceived is bumped. Credits always succeed.
func (s *BalanceStore) Credit(ctx context.Context, userID string, amount int64, kind models.CreditKind) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	res, err := creditScript.Run(ctx, s.rdb,
		[]string{balanceKey(userID)},
		amount, time.Now().UTC().Format(time.RFC3339Nano), string(kind),
	).Slice()
	if err != nil {
		return 0, fmt.Errorf("failed to credit balance for user %s: %w", userID, err)
	}
	return parseBalanceReply(res, amount)
}

// Transfer deducts from the sender and credits the receiver as a single
// indivisible step. If the sender's balance is insufficient the whole
// operation fails and neither side is mutated.
func (s *BalanceStore) Transfer(ctx context.Context, fromUserID, toUserID string, amount int64) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	res, err := transferScript.Run(ctx, s.rdb,
		[]string{balanceKey(fromUserID), balanceKey(toUserID)},
		amount, time.Now().UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to transfer from %s to %s: %w", fromUserID, toUserID, err)
	}

	if len(res) >= 3 && res[0] == "ok" {
		return &models.TransferResult{
			FromBalance: toInt64(res[1]),
			ToBalance:   toInt64(res[2]),
		}, nil
	}
	return nil, replyError(res, amount)
}

func parseBalanceReply(res []interface{}, needed int64) (int64, error) {
	if len(res) >= 2 && res[0] == "ok" {
		return toInt64(res[1]), nil
	}
	return 0, replyError(res, needed)
}

// replyError maps a {"err", CODE, ...} script reply to the typed taxonomy.
func replyError(res []interface{}, needed int64) error {
	if len(res) >= 2 && res[0] == "err" {
		switch res[1] {
		case "NO_BALANCE":
			return models.ErrNoBalance
		case "INSUFFICIENT":
			have := int64(0)
			if len(res) >= 3 {
				have = toInt64(res[2])
			}
			return &models.InsufficientError{Have: have, Need: needed}
		}
	}
	return fmt.Errorf("unexpected script reply: %v", res)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

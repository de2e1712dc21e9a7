package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"diamondpay/models"
)

// WalletStore holds creator cash wallets in a keyspace independent from the
// diamond balances, with the same atomicity discipline: every check-and-write
// runs as a single server-side script.
type WalletStore struct {
	rdb *redis.Client
}

// NewWalletStore creates a wallet store backed by Redis.
func NewWalletStore(rdb *redis.Client) *WalletStore {
	return &WalletStore{rdb: rdb}
}

// Get returns the user's wallet, initializing an empty record when absent.
func (s *WalletStore) Get(ctx context.Context, userID string) (*models.Wallet, error) {
	key := walletKey(userID)
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		wallet := &models.Wallet{UserID: userID, UpdatedAt: time.Now().UTC()}
		data, err := json.Marshal(wallet)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal wallet for user %s: %w", userID, err)
		}
		if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
			return nil, fmt.Errorf("failed to initialize wallet for user %s: %w", userID, err)
		}
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(raw), &wallet); err != nil {
		return nil, &models.MalformedRecordError{Key: key, Err: err}
	}
	return &wallet, nil
}

// Credit atomically adds netAmount to the wallet balance and totalEarnings,
// creating the wallet on first credit. The caller computes the fee split.
func (s *WalletStore) Credit(ctx context.Context, userID string, netAmount float64) (*models.Wallet, error) {
	if netAmount <= 0 {
		return nil, fmt.Errorf("net amount must be positive")
	}

	res, err := walletCreditScript.Run(ctx, s.rdb,
		[]string{walletKey(userID)},
		formatCash(netAmount), time.Now().UTC().Format(time.RFC3339Nano), userID,
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to credit wallet for user %s: %w", userID, err)
	}
	return s.parseWalletReply(res, userID, 0)
}

// Refund atomically returns an earmarked amount to the wallet balance
// without counting it as a new earning. Compensates a withdrawal request
// that deducted funds but could not be recorded.
func (s *WalletStore) Refund(ctx context.Context, userID string, amount float64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	res, err := walletRefundScript.Run(ctx, s.rdb,
		[]string{walletKey(userID)},
		formatCash(amount), time.Now().UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to refund wallet for user %s: %w", userID, err)
	}
	return s.parseWalletReply(res, userID, 0)
}

// Deduct atomically earmarks amount for a withdrawal request. Fails with
// ErrNotFound when no wallet exists and InsufficientFundsError when the
// available balance does not cover the amount.
func (s *WalletStore) Deduct(ctx context.Context, userID string, amount float64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	res, err := walletDeductScript.Run(ctx, s.rdb,
		[]string{walletKey(userID)},
		formatCash(amount), time.Now().UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to deduct wallet for user %s: %w", userID, err)
	}
	return s.parseWalletReply(res, userID, amount)
}

func (s *WalletStore) parseWalletReply(res []interface{}, userID string, requested float64) (*models.Wallet, error) {
	if len(res) >= 2 && res[0] == "ok" {
		raw, _ := res[1].(string)
		var wallet models.Wallet
		if err := json.Unmarshal([]byte(raw), &wallet); err != nil {
			return nil, &models.MalformedRecordError{Key: walletKey(userID), Err: err}
		}
		return &wallet, nil
	}
	if len(res) >= 2 && res[0] == "err" {
		switch res[1] {
		case "NOT_FOUND":
			return nil, models.ErrNotFound
		case "INSUFFICIENT":
			available := 0.0
			if len(res) >= 3 {
				if raw, ok := res[2].(string); ok {
					available, _ = strconv.ParseFloat(raw, 64)
				}
			}
			return nil, &models.InsufficientFundsError{Available: available, Requested: requested}
		}
	}
	return nil, fmt.Errorf("unexpected script reply: %v", res)
}

// AppendHistory pushes a wallet transaction to the head of the user's list.
func (s *WalletStore) AppendHistory(ctx context.Context, userID string, tx *models.WalletTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet transaction %s: %w", tx.ID, err)
	}
	if err := s.rdb.LPush(ctx, walletHistoryKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to append wallet history for user %s: %w", userID, err)
	}
	return nil
}

// History returns the most recent limit wallet transactions, newest first.
func (s *WalletStore) History(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.rdb.LRange(ctx, walletHistoryKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet history for user %s: %w", userID, err)
	}

	txs := make([]*models.WalletTransaction, 0, len(raw))
	for _, entry := range raw {
		var tx models.WalletTransaction
		if err := json.Unmarshal([]byte(entry), &tx); err != nil {
			log.WithFields(log.Fields{
				"userId": userID,
				"error":  err,
			}).Error("Skipping malformed wallet history entry")
			continue
		}
		txs = append(txs, &tx)
	}
	return txs, nil
}

// formatCash renders a cash amount for Lua's tonumber without float noise.
func formatCash(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

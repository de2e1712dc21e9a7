package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"diamondpay/models"
)

// HistoryStore is the append-only diamond transaction log, one list per user,
// newest first. Appends happen after the balance mutation succeeds as a
// separate write; entries are never mutated or deleted.
type HistoryStore struct {
	rdb *redis.Client
}

// NewHistoryStore creates a history store backed by Redis lists.
func NewHistoryStore(rdb *redis.Client) *HistoryStore {
	return &HistoryStore{rdb: rdb}
}

// Append pushes a transaction to the head of the user's history.
func (s *HistoryStore) Append(ctx context.Context, userID string, tx *models.DiamondTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction %s: %w", tx.ID, err)
	}
	if err := s.rdb.LPush(ctx, historyKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to append history for user %s: %w", userID, err)
	}
	return nil
}

// List returns the most recent limit entries, newest first. Malformed entries
// are treated as corruption: logged and skipped, never coerced.
func (s *HistoryStore) List(ctx context.Context, userID string, limit int) ([]*models.DiamondTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := s.rdb.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history for user %s: %w", userID, err)
	}

	txs := make([]*models.DiamondTransaction, 0, len(raw))
	for _, entry := range raw {
		var tx models.DiamondTransaction
		if err := json.Unmarshal([]byte(entry), &tx); err != nil {
			log.WithFields(log.Fields{
				"userId": userID,
				"error":  err,
			}).Error("Skipping malformed history entry")
			continue
		}
		txs = append(txs, &tx)
	}
	return txs, nil
}

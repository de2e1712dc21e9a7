package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"diamondpay/models"
)

// pendingPurchaseTTL expires checkout sessions that are abandoned at the
// gateway and never confirmed. Completion rewrites the key without a TTL.
const pendingPurchaseTTL = 30 * 24 * time.Hour

// PurchaseStore persists diamond purchase records and their per-user index.
type PurchaseStore struct {
	rdb *redis.Client
}

// NewPurchaseStore creates a purchase store backed by Redis.
func NewPurchaseStore(rdb *redis.Client) *PurchaseStore {
	return &PurchaseStore{rdb: rdb}
}

// Create writes a purchase record and indexes it for the user. Pending
// records carry the abandonment TTL; records born completed do not expire.
func (s *PurchaseStore) Create(ctx context.Context, purchase *models.Purchase) error {
	data, err := json.Marshal(purchase)
	if err != nil {
		return fmt.Errorf("failed to marshal purchase %s: %w", purchase.ID, err)
	}
	var ttl time.Duration
	if purchase.Status == models.PurchaseStatusPending {
		ttl = pendingPurchaseTTL
	}
	if err := s.rdb.Set(ctx, purchaseKey(purchase.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create purchase %s: %w", purchase.ID, err)
	}
	if err := s.rdb.LPush(ctx, purchasesUserKey(purchase.UserID), purchase.ID).Err(); err != nil {
		return fmt.Errorf("failed to index purchase %s: %w", purchase.ID, err)
	}
	return nil
}

// Get returns a purchase record, or ErrNotFound when missing.
func (s *PurchaseStore) Get(ctx context.Context, id string) (*models.Purchase, error) {
	key := purchaseKey(id)
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase %s: %w", id, err)
	}

	var purchase models.Purchase
	if err := json.Unmarshal([]byte(raw), &purchase); err != nil {
		return nil, &models.MalformedRecordError{Key: key, Err: err}
	}
	return &purchase, nil
}

// Complete transitions a purchase from pending to completed exactly once.
// The returned bool reports whether this call won the transition; a false
// with nil error means the purchase was already completed (idempotent replay).
func (s *PurchaseStore) Complete(ctx context.Context, id, externalPaymentID string) (*models.Purchase, bool, error) {
	res, err := completePurchaseScript.Run(ctx, s.rdb,
		[]string{purchaseKey(id)},
		externalPaymentID, time.Now().UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, false, fmt.Errorf("failed to complete purchase %s: %w", id, err)
	}

	if len(res) >= 2 && res[0] == "ok" {
		var purchase models.Purchase
		raw, _ := res[1].(string)
		if err := json.Unmarshal([]byte(raw), &purchase); err != nil {
			return nil, false, &models.MalformedRecordError{Key: purchaseKey(id), Err: err}
		}
		// Index the external payment id for gateway-side lookups.
		if err := s.rdb.Set(ctx, purchasePaymentKey(externalPaymentID), id, 0).Err(); err != nil {
			log.WithFields(log.Fields{
				"purchaseId": id,
				"error":      err,
			}).Error("Failed to index purchase by payment id")
		}
		return &purchase, true, nil
	}

	if len(res) >= 2 && res[0] == "err" {
		switch res[1] {
		case "NOT_FOUND":
			return nil, false, models.ErrNotFound
		case "ALREADY_COMPLETED":
			return nil, false, nil
		}
	}
	return nil, false, fmt.Errorf("unexpected script reply: %v", res)
}

// ListByUser returns the user's purchases, newest first. Expired pending
// records are silently absent.
func (s *PurchaseStore) ListByUser(ctx context.Context, userID string) ([]*models.Purchase, error) {
	ids, err := s.rdb.LRange(ctx, purchasesUserKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases for user %s: %w", userID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = purchaseKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchases for user %s: %w", userID, err)
	}

	purchases := make([]*models.Purchase, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var purchase models.Purchase
		if err := json.Unmarshal([]byte(raw), &purchase); err != nil {
			log.WithFields(log.Fields{
				"key":   keys[i],
				"error": err,
			}).Error("Skipping malformed purchase record")
			continue
		}
		purchases = append(purchases, &purchase)
	}
	return purchases, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"diamondpay/models"
)

// WithdrawalStore persists withdrawal requests and drives their state
// machine. Transitions run as a single script over the withdrawal and wallet
// keys, so a request can be approved or rejected exactly once even when the
// owning backend and the admin surface race on the same record.
type WithdrawalStore struct {
	rdb *redis.Client
}

// NewWithdrawalStore creates a withdrawal store backed by Redis.
func NewWithdrawalStore(rdb *redis.Client) *WithdrawalStore {
	return &WithdrawalStore{rdb: rdb}
}

// Create writes a pending withdrawal and queues it for admin review.
func (s *WithdrawalStore) Create(ctx context.Context, wd *models.Withdrawal) error {
	data, err := json.Marshal(wd)
	if err != nil {
		return fmt.Errorf("failed to marshal withdrawal %s: %w", wd.ID, err)
	}
	if err := s.rdb.Set(ctx, withdrawalKey(wd.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to create withdrawal %s: %w", wd.ID, err)
	}
	if err := s.rdb.LPush(ctx, withdrawalsUserKey(wd.UserID), wd.ID).Err(); err != nil {
		return fmt.Errorf("failed to index withdrawal %s: %w", wd.ID, err)
	}
	if err := s.rdb.LPush(ctx, withdrawalsPendingKey, wd.ID).Err(); err != nil {
		return fmt.Errorf("failed to queue withdrawal %s: %w", wd.ID, err)
	}
	return nil
}

// Get returns a withdrawal record, or ErrNotFound when missing.
func (s *WithdrawalStore) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	key := withdrawalKey(id)
	raw, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %s: %w", id, err)
	}

	var wd models.Withdrawal
	if err := json.Unmarshal([]byte(raw), &wd); err != nil {
		return nil, &models.MalformedRecordError{Key: key, Err: err}
	}
	return &wd, nil
}

// Transition applies the admin decision. The status check and the transition
// are one atomic step: re-invoking on a terminal record fails with
// ErrAlreadyProcessed rather than silently repeating, which is what prevents
// a double refund or double totalWithdrawn count.
func (s *WithdrawalStore) Transition(ctx context.Context, id, userID string, action models.WithdrawalAction) (*models.Withdrawal, *models.Wallet, error) {
	res, err := withdrawalTransitionScript.Run(ctx, s.rdb,
		[]string{withdrawalKey(id), walletKey(userID)},
		string(action), time.Now().UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to transition withdrawal %s: %w", id, err)
	}

	if len(res) >= 3 && res[0] == "ok" {
		var wd models.Withdrawal
		var wallet models.Wallet
		wdRaw, _ := res[1].(string)
		walletRaw, _ := res[2].(string)
		if err := json.Unmarshal([]byte(wdRaw), &wd); err != nil {
			return nil, nil, &models.MalformedRecordError{Key: withdrawalKey(id), Err: err}
		}
		if err := json.Unmarshal([]byte(walletRaw), &wallet); err != nil {
			return nil, nil, &models.MalformedRecordError{Key: walletKey(userID), Err: err}
		}
		return &wd, &wallet, nil
	}

	if len(res) >= 2 && res[0] == "err" {
		switch res[1] {
		case "NOT_FOUND", "WALLET_NOT_FOUND":
			return nil, nil, models.ErrNotFound
		case "ALREADY_PROCESSED":
			return nil, nil, models.ErrAlreadyProcessed
		}
	}
	return nil, nil, fmt.Errorf("unexpected script reply: %v", res)
}

// ListByUser returns the user's withdrawals, newest request first.
func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	wds, err := s.fetch(ctx, withdrawalsUserKey(userID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(wds, func(i, j int) bool { return wds[i].RequestedAt.After(wds[j].RequestedAt) })
	return wds, nil
}

// ListPending returns withdrawals still awaiting review, oldest first so the
// admin queue is processed in request order.
func (s *WithdrawalStore) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	all, err := s.fetch(ctx, withdrawalsPendingKey)
	if err != nil {
		return nil, err
	}
	pending := make([]*models.Withdrawal, 0, len(all))
	for _, wd := range all {
		if wd.Status == models.WithdrawalStatusPending {
			pending = append(pending, wd)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].RequestedAt.Before(pending[j].RequestedAt) })
	return pending, nil
}

func (s *WithdrawalStore) fetch(ctx context.Context, listKey string) ([]*models.Withdrawal, error) {
	ids, err := s.rdb.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals at %s: %w", listKey, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = withdrawalKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch withdrawals: %w", err)
	}

	wds := make([]*models.Withdrawal, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var wd models.Withdrawal
		if err := json.Unmarshal([]byte(raw), &wd); err != nil {
			log.WithFields(log.Fields{
				"key":   keys[i],
				"error": err,
			}).Error("Skipping malformed withdrawal record")
			continue
		}
		wds = append(wds, &wd)
	}
	return wds, nil
}

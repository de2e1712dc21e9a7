package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"diamondpay/models"
)

// PricingStore holds the singleton pricing record. Reads seed the default
// configuration on first access; admin updates are last-write-wins.
type PricingStore struct {
	rdb *redis.Client
}

// NewPricingStore creates a pricing store backed by Redis.
func NewPricingStore(rdb *redis.Client) *PricingStore {
	return &PricingStore{rdb: rdb}
}

// Get returns the current pricing configuration, writing the defaults if no
// record exists yet.
func (s *PricingStore) Get(ctx context.Context) (*models.PricingConfig, error) {
	raw, err := s.rdb.Get(ctx, pricingKey).Result()
	if err == redis.Nil {
		cfg := models.DefaultPricing()
		if err := s.set(ctx, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pricing config: %w", err)
	}

	var cfg models.PricingConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, &models.MalformedRecordError{Key: pricingKey, Err: err}
	}
	return &cfg, nil
}

// Update applies a partial admin update over the current record and returns
// the merged result.
func (s *PricingStore) Update(ctx context.Context, update *models.PricingUpdate) (*models.PricingConfig, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if update.SuperLikeCost != nil {
		cfg.SuperLikeCost = *update.SuperLikeCost
	}
	if update.BoostCost != nil {
		cfg.BoostCost = *update.BoostCost
	}
	if update.BoostDurationMinutes != nil {
		cfg.BoostDurationMinutes = *update.BoostDurationMinutes
	}
	if update.ConversionRate != nil {
		cfg.ConversionRate = *update.ConversionRate
	}
	if update.PlatformFeeRate != nil {
		cfg.PlatformFeeRate = *update.PlatformFeeRate
	}
	if update.MinConversionDiamonds != nil {
		cfg.MinConversionDiamonds = *update.MinConversionDiamonds
	}

	if err := s.set(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *PricingStore) set(ctx context.Context, cfg *models.PricingConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing config: %w", err)
	}
	if err := s.rdb.Set(ctx, pricingKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set pricing config: %w", err)
	}
	return nil
}

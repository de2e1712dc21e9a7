package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Key layout. Diamond and wallet records live in independent keyspaces.
func balanceKey(userID string) string         { return "diamond:" + userID }
func historyKey(userID string) string         { return "diamond:history:" + userID }
func purchaseKey(id string) string            { return "diamond:purchase:" + id }
func purchasesUserKey(userID string) string   { return "diamond:purchases:user:" + userID }
func purchasePaymentKey(id string) string     { return "diamond:purchase:payment:" + id }
func walletKey(userID string) string          { return "wallet:" + userID }
func walletHistoryKey(userID string) string   { return "wallet:history:" + userID }
func withdrawalKey(id string) string          { return "withdrawal:" + id }
func withdrawalsUserKey(userID string) string { return "withdrawals:user:" + userID }

const (
	pricingKey            = "diamond:config"
	packagesKey           = "diamond:packages"
	withdrawalsPendingKey = "withdrawals:pending"
)

// Connect opens a Redis client from either a redis:// URL or a bare addr.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

package models

import (
	"time"
)

// PurchaseStatus is the lifecycle state of a diamond purchase.
// pending -> completed is the only transition; completed is terminal.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
)

// Purchase ties a pending diamond credit to an external checkout session.
type Purchase struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	PackageID         string         `json:"packageId"`
	DiamondAmount     int64          `json:"diamondAmount"`
	BonusDiamonds     int64          `json:"bonusDiamonds"`
	TotalDiamonds     int64          `json:"totalDiamonds"`
	AmountUSD         float64        `json:"amountUsd"`
	ExternalSessionID string         `json:"externalSessionId,omitempty"`
	ExternalPaymentID string         `json:"externalPaymentId,omitempty"`
	Status            PurchaseStatus `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
}

// DiamondPackage is a purchasable diamond bundle. Deactivated packages stay
// in the catalog for historical reference but cannot be bought.
type DiamondPackage struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	DiamondAmount int64   `json:"diamondAmount"`
	BonusDiamonds int64   `json:"bonusDiamonds"`
	PriceUSD      float64 `json:"priceUsd"`
	SortOrder     int     `json:"sortOrder"`
	IsActive      bool    `json:"isActive"`
}

package models

// PricingConfig is the singleton pricing record read by every ledger
// operation that needs costs or rates. Mutable by admins; last write wins.
type PricingConfig struct {
	SuperLikeCost         int64   `json:"superLikeCost"`
	BoostCost             int64   `json:"boostCost"`
	BoostDurationMinutes  int     `json:"boostDurationMinutes"`
	ConversionRate        int64   `json:"conversionRate"` // diamonds per 1 USD
	PlatformFeeRate       float64 `json:"platformFeeRate"`
	MinConversionDiamonds int64   `json:"minConversionDiamonds"`
}

// DefaultPricing returns the seed configuration used until an admin writes one.
func DefaultPricing() *PricingConfig {
	return &PricingConfig{
		SuperLikeCost:         50,
		BoostCost:             150,
		BoostDurationMinutes:  30,
		ConversionRate:        100, // 100 diamonds = $1
		PlatformFeeRate:       0.2,
		MinConversionDiamonds: 500,
	}
}

// PricingUpdate carries the fields of a partial admin update. Nil fields are
// left unchanged.
type PricingUpdate struct {
	SuperLikeCost         *int64
	BoostCost             *int64
	BoostDurationMinutes  *int
	ConversionRate        *int64
	PlatformFeeRate       *float64
	MinConversionDiamonds *int64
}

// Package domain defines the trust recompute's rule thresholds and results.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Badge reason codes, set by the first rule that fails. ReasonOK means every
// rule passed.
const (
	ReasonOK                 = "ok"
	ReasonFeatureDisabled    = "feature_disabled"
	ReasonVerificationTier   = "verification_tier"
	ReasonMinCompletedOrders = "min_completed_orders"
	ReasonPolicyViolation    = "policy_violation"
	ReasonOpenDisputes       = "open_disputes"
	ReasonDisputeRate        = "dispute_rate"
)

// Risk flags attached alongside the score.
const (
	FlagDisputeRateElevated = "dispute_rate_elevated"
	FlagDisputeRateHigh     = "dispute_rate_high"
	FlagOpenDisputesMany    = "open_disputes_many"
	FlagAbandonmentSpike    = "abandonment_spike"
	FlagPolicyViolation     = "policy_violation"
)

// Rules holds every threshold and point weight the recompute applies. Scores
// are sums of fixed weights clamped to [0,100].
type Rules struct {
	WindowLong  time.Duration
	WindowShort time.Duration

	ElevatedDisputeRate float64
	HighDisputeRate     float64
	OpenDisputesMany    int64
	AbandonmentRatio    float64

	PointsElevatedDisputeRate int16
	PointsHighDisputeRate     int16
	PointsOpenDisputes        int16
	PointsAbandonmentSpike    int16
	PointsPolicyViolation     int16

	BadgeMinVerificationTier int16
	BadgeMinCompletedOrders  int64
	BadgeOpenDisputeCeiling  int64
	BadgeDisputeRateCeiling  float64
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		WindowLong:  30 * 24 * time.Hour,
		WindowShort: 7 * 24 * time.Hour,

		ElevatedDisputeRate: 0.05,
		HighDisputeRate:     0.10,
		OpenDisputesMany:    3,
		AbandonmentRatio:    0.5,

		PointsElevatedDisputeRate: 15,
		PointsHighDisputeRate:     30,
		PointsOpenDisputes:        20,
		PointsAbandonmentSpike:    15,
		PointsPolicyViolation:     35,

		BadgeMinVerificationTier: 1,
		BadgeMinCompletedOrders:  10,
		BadgeOpenDisputeCeiling:  2,
		BadgeDisputeRateCeiling:  0.08,
	}
}

// Signals are the aggregated inputs the rules run over.
type Signals struct {
	CompletedLong  int64
	CompletedShort int64
	AbandonedShort int64
	DisputesLong   int64
	OpenDisputes   int64
	PolicyHitsLong int64
	DisputeRate    float64
}

// Result is the per-vendor outcome of one recompute run.
type Result struct {
	BusinessID      snowflake.ID `json:"business_id"`
	OK              bool         `json:"ok"`
	BadgeActive     bool         `json:"badge_active"`
	Reason          string       `json:"reason"`
	RiskScore       int16        `json:"risk_score"`
	Flags           []string     `json:"flags"`
	ProductsUpdated int64        `json:"products_updated"`
	Error           string       `json:"error,omitempty"`
}

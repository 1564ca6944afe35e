// Package domain defines plan keys, billing cycles and the feature/limit sets
// resolved for a vendor.
package domain

import (
	"time"

	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
)

const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

const (
	CycleMonthly   = "monthly"
	CycleQuarterly = "quarterly"
	CycleYearly    = "yearly"
)

// CycleDuration returns the entitlement duration purchased by one cycle.
func CycleDuration(cycle string) (time.Duration, bool) {
	switch cycle {
	case CycleMonthly:
		return 30 * 24 * time.Hour, true
	case CycleQuarterly:
		return 90 * 24 * time.Hour, true
	case CycleYearly:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Features are the boolean capabilities a plan grants.
type Features struct {
	ApexTrust        bool `json:"apex_trust"`
	ChatCheckout     bool `json:"chat_checkout"`
	CustomStorefront bool `json:"custom_storefront"`
	PrioritySupport  bool `json:"priority_support"`
}

// Limits are the numeric ceilings a plan grants.
type Limits struct {
	MaxProducts         int64 `json:"max_products"`
	MaxImagesPerProduct int64 `json:"max_images_per_product"`
	MaxActivePromotions int64 `json:"max_active_promotions"`
	TeamSeats           int64 `json:"team_seats"`
}

// Plan is the fully resolved definition for one plan key.
type Plan struct {
	Key      string           `json:"key"`
	Name     string           `json:"name"`
	Features Features         `json:"features"`
	Limits   Limits           `json:"limits"`
	Prices   map[string]int64 `json:"prices"` // cycle -> kobo
}

// AddonDefinition describes a purchasable add-on SKU. Bundles list the SKUs
// the purchase fans out to; the bundle's own SKU is not granted directly.
type AddonDefinition struct {
	SKU    string           `json:"sku"`
	Name   string           `json:"name"`
	Bundle []string         `json:"bundle,omitempty"`
	Prices map[string]int64 `json:"prices"` // cycle -> kobo
}

// Resolution is the effective plan for a vendor at resolve time.
type Resolution struct {
	PlanKey               string                   `json:"plan_key"`
	HasActiveSubscription bool                     `json:"has_active_subscription"`
	Features              Features                 `json:"features"`
	Limits                Limits                   `json:"limits"`
	Business              *businessdomain.Business `json:"-"`
}

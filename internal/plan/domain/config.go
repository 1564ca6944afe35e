package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigRow is an admin-editable override document for one plan or add-on.
// Keys are namespaced "plan:<key>" / "addon:<sku>". Docs may be partial; every
// field falls back to the hard-coded default individually.
type ConfigRow struct {
	Key       string         `gorm:"primaryKey;type:text"`
	Doc       datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ConfigRow) TableName() string { return "plan_configs" }

type FeaturesOverride struct {
	ApexTrust        *bool `json:"apex_trust"`
	ChatCheckout     *bool `json:"chat_checkout"`
	CustomStorefront *bool `json:"custom_storefront"`
	PrioritySupport  *bool `json:"priority_support"`
}

type LimitsOverride struct {
	MaxProducts         *int64 `json:"max_products"`
	MaxImagesPerProduct *int64 `json:"max_images_per_product"`
	MaxActivePromotions *int64 `json:"max_active_promotions"`
	TeamSeats           *int64 `json:"team_seats"`
}

type PlanOverride struct {
	Name     *string           `json:"name"`
	Features *FeaturesOverride `json:"features"`
	Limits   *LimitsOverride   `json:"limits"`
	Prices   map[string]int64  `json:"prices"`
}

type AddonOverride struct {
	Name   *string          `json:"name"`
	Bundle []string         `json:"bundle"`
	Prices map[string]int64 `json:"prices"`
}

// ApplyPlanOverride merges a partial override document over the default plan.
func ApplyPlanOverride(base Plan, ov *PlanOverride) Plan {
	if ov == nil {
		return base
	}
	if ov.Name != nil {
		base.Name = *ov.Name
	}
	if f := ov.Features; f != nil {
		if f.ApexTrust != nil {
			base.Features.ApexTrust = *f.ApexTrust
		}
		if f.ChatCheckout != nil {
			base.Features.ChatCheckout = *f.ChatCheckout
		}
		if f.CustomStorefront != nil {
			base.Features.CustomStorefront = *f.CustomStorefront
		}
		if f.PrioritySupport != nil {
			base.Features.PrioritySupport = *f.PrioritySupport
		}
	}
	if l := ov.Limits; l != nil {
		if l.MaxProducts != nil {
			base.Limits.MaxProducts = *l.MaxProducts
		}
		if l.MaxImagesPerProduct != nil {
			base.Limits.MaxImagesPerProduct = *l.MaxImagesPerProduct
		}
		if l.MaxActivePromotions != nil {
			base.Limits.MaxActivePromotions = *l.MaxActivePromotions
		}
		if l.TeamSeats != nil {
			base.Limits.TeamSeats = *l.TeamSeats
		}
	}
	if len(ov.Prices) > 0 {
		merged := make(map[string]int64, len(base.Prices)+len(ov.Prices))
		for cycle, amount := range base.Prices {
			merged[cycle] = amount
		}
		for cycle, amount := range ov.Prices {
			merged[cycle] = amount
		}
		base.Prices = merged
	}
	return base
}

// ApplyAddonOverride merges a partial override document over the default SKU.
func ApplyAddonOverride(base AddonDefinition, ov *AddonOverride) AddonDefinition {
	if ov == nil {
		return base
	}
	if ov.Name != nil {
		base.Name = *ov.Name
	}
	if len(ov.Bundle) > 0 {
		base.Bundle = ov.Bundle
	}
	if len(ov.Prices) > 0 {
		merged := make(map[string]int64, len(base.Prices)+len(ov.Prices))
		for cycle, amount := range base.Prices {
			merged[cycle] = amount
		}
		for cycle, amount := range ov.Prices {
			merged[cycle] = amount
		}
		base.Prices = merged
	}
	return base
}

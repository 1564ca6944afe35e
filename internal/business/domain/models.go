// Package domain contains persistence models for vendors and the records the
// trust recompute aggregates over.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a vendor subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "NONE"
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// EntitlementStatus represents lifecycle states for an add-on entitlement.
type EntitlementStatus string

const (
	EntitlementStatusActive   EntitlementStatus = "ACTIVE"
	EntitlementStatusPaused   EntitlementStatus = "PAUSED"
	EntitlementStatusInactive EntitlementStatus = "INACTIVE"
)

// Business is a marketplace vendor. The subscription, trust and dispute
// counter columns are owned exclusively by the billing and trust services.
type Business struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	Name             string       `gorm:"type:text;not null"`
	Locked           bool         `gorm:"not null;default:false"`
	VerificationTier int16        `gorm:"not null;default:0"`

	PlanKey               *string            `gorm:"type:text"`
	SubscriptionCycle     *string            `gorm:"type:text"`
	SubscriptionStatus    SubscriptionStatus `gorm:"type:text;not null;default:'NONE'"`
	SubscriptionStartedAt *time.Time         `gorm:""`
	SubscriptionExpiresAt *time.Time         `gorm:""`
	LastPaymentReference  *string            `gorm:"type:text"`

	BadgeActive    bool           `gorm:"not null;default:false"`
	BadgeReason    string         `gorm:"type:text;not null;default:''"`
	RiskScore      int16          `gorm:"not null;default:0"`
	RiskFlags      datatypes.JSON `gorm:"type:jsonb"`
	TrustUpdatedAt *time.Time     `gorm:""`

	OpenDisputes  int `gorm:"not null;default:0"`
	DisputesCount int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Business) TableName() string { return "businesses" }

// HasActiveSubscription reports whether the vendor's paid plan is in force at t.
func (b *Business) HasActiveSubscription(t time.Time) bool {
	return b.PlanKey != nil && *b.PlanKey != "" &&
		b.SubscriptionExpiresAt != nil && b.SubscriptionExpiresAt.After(t)
}

// AddonEntitlement is one SKU's time-boxed grant for a vendor. Exactly one of
// ExpiresAt/RemainingMs carries meaning, selected by Status: ACTIVE counts down
// to ExpiresAt, PAUSED banks RemainingMs.
type AddonEntitlement struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	BusinessID    snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_addon_entitlements_business_sku,priority:1"`
	SKU           string            `gorm:"column:sku;type:text;not null;uniqueIndex:ux_addon_entitlements_business_sku,priority:2"`
	Status        EntitlementStatus `gorm:"type:text;not null"`
	ExpiresAt     *time.Time        `gorm:""`
	RemainingMs   int64             `gorm:"not null;default:0"`
	Cycle         string            `gorm:"type:text;not null"`
	PurchaseCount int               `gorm:"not null;default:0"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AddonEntitlement) TableName() string { return "addon_entitlements" }

// Product carries only the denormalized trust columns this core writes;
// catalog CRUD lives elsewhere.
type Product struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	BusinessID      snowflake.ID `gorm:"not null;index"`
	Title           string       `gorm:"type:text;not null"`
	ApexBadgeActive bool         `gorm:"not null;default:false"`
	ApexRiskScore   int16        `gorm:"not null;default:0"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// OrderStatus values observed by the trust recompute.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusAbandoned OrderStatus = "ABANDONED"
	OrderStatusPending   OrderStatus = "PENDING"
)

// Order is read-only here; checkout writes it.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	BusinessID snowflake.ID `gorm:"not null;index"`
	Status     OrderStatus  `gorm:"type:text;not null"`
	AmountKobo int64        `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

type Dispute struct {
	ID         snowflake.ID  `gorm:"primaryKey"`
	BusinessID snowflake.ID  `gorm:"not null;index"`
	OrderID    snowflake.ID  `gorm:"not null;index"`
	Status     DisputeStatus `gorm:"type:text;not null"`
	CreatedAt  time.Time     `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Dispute) TableName() string { return "disputes" }

type PolicyViolation struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	BusinessID snowflake.ID `gorm:"not null;index"`
	Code       string       `gorm:"type:text;not null"`
	CreatedAt  time.Time    `gorm:"not null;index"`
}

// TableName sets the database table name.
func (PolicyViolation) TableName() string { return "policy_violations" }

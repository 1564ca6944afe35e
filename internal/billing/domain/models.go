// Package domain contains the payment confirmation protocol's persistence
// models and result shapes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Purpose partitions the idempotency key space. A reference confirmed for one
// purpose can never be replayed against a different handler.
type Purpose string

const (
	PurposeSubscription Purpose = "subscription"
	PurposeAddon        Purpose = "addon_purchase"
	PurposePromotion    Purpose = "promotion"
)

// Confirmation is the immutable per-reference record whose existence is the
// idempotency guard. It is written in the same transaction as every side
// effect of the payment it confirms.
type Confirmation struct {
	ID         snowflake.ID   `gorm:"primaryKey"`
	Purpose    Purpose        `gorm:"type:text;not null;uniqueIndex:ux_confirmations_purpose_reference,priority:1"`
	Reference  string         `gorm:"type:text;not null;uniqueIndex:ux_confirmations_purpose_reference,priority:2"`
	BusinessID snowflake.ID   `gorm:"not null;index"`
	AmountKobo int64          `gorm:"not null"`
	Result     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Confirmation) TableName() string { return "payment_confirmations" }

type CampaignStatus string

const (
	CampaignStatusPendingPayment CampaignStatus = "PENDING_PAYMENT"
	CampaignStatusActive         CampaignStatus = "ACTIVE"
	CampaignStatusEnded          CampaignStatus = "ENDED"
)

// Campaign is a promotion/boost purchase intent. The expected charge amount is
// stored here when the campaign is drafted and re-checked at confirmation.
type Campaign struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	BusinessID       snowflake.ID   `gorm:"not null;index" json:"business_id"`
	Name             string         `gorm:"type:text;not null" json:"name"`
	AmountKobo       int64          `gorm:"not null" json:"amount_kobo"`
	DurationDays     int            `gorm:"not null" json:"duration_days"`
	Status           CampaignStatus `gorm:"type:text;not null" json:"status"`
	PaymentReference *string        `gorm:"type:text" json:"payment_reference,omitempty"`
	StartsAt         *time.Time     `gorm:"" json:"starts_at,omitempty"`
	EndsAt           *time.Time     `gorm:"" json:"ends_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Campaign) TableName() string { return "campaigns" }

// Metadata is the purchase context attached to the gateway charge.
type Metadata struct {
	Purpose    string `json:"purpose"`
	BusinessID string `json:"business_id"`
	PlanKey    string `json:"plan_key,omitempty"`
	Cycle      string `json:"cycle,omitempty"`
	SKU        string `json:"sku,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`
}

// VerifiedTransaction is the gateway's verify-by-reference response, already
// parsed. AmountKobo is the amount the gateway reports was actually paid.
type VerifiedTransaction struct {
	Reference  string
	Status     string
	AmountKobo int64
	Currency   string
	PaidAt     time.Time
	Metadata   Metadata
}

// Succeeded reports whether the gateway considers the charge successful.
func (t *VerifiedTransaction) Succeeded() bool {
	return t != nil && t.Status == "success"
}

// AddonGrant is the post-merge state of one SKU, echoed in results.
type AddonGrant struct {
	SKU           string     `json:"sku"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RemainingMs   int64      `json:"remaining_ms,omitempty"`
	PurchaseCount int        `json:"purchase_count"`
}

// ConfirmResult is returned by every confirmation handler and persisted inside
// the confirmation record so replays can return it unchanged.
type ConfirmResult struct {
	AlreadyProcessed bool         `json:"already_processed"`
	Purpose          Purpose      `json:"purpose"`
	Reference        string       `json:"reference"`
	BusinessID       snowflake.ID `json:"business_id"`
	AmountKobo       int64        `json:"amount_kobo"`

	PlanKey   string     `json:"plan_key,omitempty"`
	Cycle     string     `json:"cycle,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Grants []AddonGrant `json:"grants,omitempty"`

	CampaignID     snowflake.ID   `json:"campaign_id,omitempty"`
	CampaignStatus CampaignStatus `json:"campaign_status,omitempty"`
}

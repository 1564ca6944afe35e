// Package domain contains the platform finance aggregate and the append-only
// ledger that makes it auditable.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypeSubscription  EntryType = "subscription"
	EntryTypePromotion     EntryType = "promotion"
	EntryTypeAddon         EntryType = "addon"
	EntryTypePayoutOutflow EntryType = "payout_outflow"
)

// LedgerEntry is the immutable record of one financial event. Rows are never
// updated or deleted; the aggregate balances must be reconstructible from them.
type LedgerEntry struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Type       EntryType    `gorm:"type:text;not null;index;uniqueIndex:ux_ledger_entries_type_reference,priority:1" json:"type"`
	Reference  string       `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_type_reference,priority:2" json:"reference"`
	BusinessID snowflake.ID `gorm:"not null;index" json:"business_id"`
	AmountKobo int64        `gorm:"not null" json:"amount_kobo"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// PlatformFinance is the singleton aggregate row, mutated only alongside a
// ledger entry and under the same transaction.
type PlatformFinance struct {
	ID                      int16     `gorm:"primaryKey" json:"-"`
	BalanceKobo             int64     `gorm:"not null;default:0" json:"balance_kobo"`
	SubscriptionRevenueKobo int64     `gorm:"not null;default:0" json:"subscription_revenue_kobo"`
	BoostRevenueKobo        int64     `gorm:"not null;default:0" json:"boost_revenue_kobo"`
	PayoutOutflowKobo       int64     `gorm:"not null;default:0" json:"payout_outflow_kobo"`
	UpdatedAt               time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PlatformFinance) TableName() string { return "platform_finance" }

// PlatformFinanceID is the fixed primary key of the singleton row.
const PlatformFinanceID int16 = 1

// ReconcileReport compares the aggregate row against ledger sums.
type ReconcileReport struct {
	Aggregate       PlatformFinance `json:"aggregate"`
	LedgerRevenue   int64           `json:"ledger_revenue_kobo"`
	LedgerPayouts   int64           `json:"ledger_payouts_kobo"`
	ExpectedBalance int64           `json:"expected_balance_kobo"`
	DriftKobo       int64           `json:"drift_kobo"`
	Balanced        bool            `json:"balanced"`
}

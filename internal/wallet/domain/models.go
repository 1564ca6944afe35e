// Package domain contains per-vendor escrow wallet bookkeeping and the
// withdrawal request lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Wallet tracks a vendor's spendable balance and the amount reserved against
// withdrawal requests. Both balances stay non-negative at all times.
type Wallet struct {
	BusinessID           snowflake.ID `gorm:"primaryKey" json:"business_id"`
	AvailableBalanceKobo int64        `gorm:"not null;default:0" json:"available_balance_kobo"`
	WithdrawHoldKobo     int64        `gorm:"not null;default:0" json:"withdraw_hold_kobo"`
	TotalWithdrawnKobo   int64        `gorm:"not null;default:0" json:"total_withdrawn_kobo"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Wallet) TableName() string { return "wallets" }

// WithdrawalStatus values. Transitions are strictly forward except that
// rejecting returns the held amount to the available balance.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected WithdrawalStatus = "REJECTED"
	WithdrawalStatusPaid     WithdrawalStatus = "PAID"
)

type WithdrawalRequest struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	BusinessID  snowflake.ID     `gorm:"not null;index" json:"business_id"`
	AmountKobo  int64            `gorm:"not null" json:"amount_kobo"`
	Status      WithdrawalStatus `gorm:"type:text;not null" json:"status"`
	AdminNote   string           `gorm:"type:text;not null;default:''" json:"admin_note,omitempty"`
	PayoutRef   string           `gorm:"type:text;not null;default:''" json:"payout_ref,omitempty"`
	RequestedAt time.Time        `gorm:"not null" json:"requested_at"`
	ApprovedAt  *time.Time       `gorm:"" json:"approved_at,omitempty"`
	RejectedAt  *time.Time       `gorm:"" json:"rejected_at,omitempty"`
	PaidAt      *time.Time       `gorm:"" json:"paid_at,omitempty"`
}

// TableName sets the database table name.
func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }

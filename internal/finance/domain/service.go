package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidEntry   = errors.New("invalid ledger entry")
	ErrDuplicateEntry = errors.New("ledger entry already recorded")
)

// ListFilter narrows ledger listings.
type ListFilter struct {
	BusinessID snowflake.ID
	Type       EntryType
	Limit      int
}

// Service guards every mutation of the platform aggregate behind a ledger
// append. Record* methods take the caller's open transaction; they never
// commit on their own.
type Service interface {
	RecordRevenue(ctx context.Context, tx *gorm.DB, entryType EntryType, reference string, businessID snowflake.ID, amountKobo int64) error
	RecordPayout(ctx context.Context, tx *gorm.DB, reference string, businessID snowflake.ID, amountKobo int64) error
	Aggregate(ctx context.Context) (*PlatformFinance, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]LedgerEntry, error)
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

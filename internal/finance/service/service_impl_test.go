package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/apexmarket/vendora/internal/clock"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, financedomain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&financedomain.PlatformFinance{},
		&financedomain.LedgerEntry{},
	))
	require.NoError(t, db.Create(&financedomain.PlatformFinance{ID: financedomain.PlatformFinanceID}).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})
	return db, svc, fake
}

func TestRecordRevenue_UpdatesAggregateAndLedger(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_sub_1", 42, 250_000)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypePromotion, "ref_promo_1", 42, 80_000)
	})
	require.NoError(t, err)

	aggregate, err := svc.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(330_000), aggregate.BalanceKobo)
	assert.Equal(t, int64(250_000), aggregate.SubscriptionRevenueKobo)
	assert.Equal(t, int64(80_000), aggregate.BoostRevenueKobo)
	assert.Equal(t, int64(0), aggregate.PayoutOutflowKobo)

	entries, err := svc.ListEntries(ctx, financedomain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecordRevenue_AddonCountsAsSubscriptionRevenue(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeAddon, "ref_addon_1", 42, 150_000)
	})
	require.NoError(t, err)

	aggregate, err := svc.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150_000), aggregate.SubscriptionRevenueKobo)
	assert.Equal(t, int64(0), aggregate.BoostRevenueKobo)
}

func TestRecordRevenue_DuplicateReferenceLeavesAggregateUntouched(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_dup", 42, 250_000)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_dup", 42, 250_000)
	})
	assert.ErrorIs(t, err, financedomain.ErrDuplicateEntry)

	aggregate, err := svc.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), aggregate.BalanceKobo)

	entries, err := svc.ListEntries(ctx, financedomain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordRevenue_RejectsPayoutType(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypePayoutOutflow, "ref_x", 42, 1_000)
	})
	assert.ErrorIs(t, err, financedomain.ErrInvalidEntry)
}

func TestRecordRevenue_RejectsBadInput(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "  ", 42, 1_000)
	})
	assert.ErrorIs(t, err, financedomain.ErrInvalidEntry)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_neg", 42, -5)
	})
	assert.ErrorIs(t, err, financedomain.ErrInvalidAmount)
}

func TestRecordPayout_DebitsBalance(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_sub", 42, 750_000)
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RecordPayout(ctx, tx, "po_abc", 42, 500_000)
	})
	require.NoError(t, err)

	aggregate, err := svc.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), aggregate.BalanceKobo)
	assert.Equal(t, int64(500_000), aggregate.PayoutOutflowKobo)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_1", 42, 250_000); err != nil {
			return err
		}
		return svc.RecordPayout(ctx, tx, "po_1", 42, 100_000)
	})
	require.NoError(t, err)

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, int64(0), report.DriftKobo)
	assert.Equal(t, int64(150_000), report.ExpectedBalance)

	// Corrupt the aggregate behind the ledger's back.
	require.NoError(t, db.Exec(
		`UPDATE platform_finance SET balance_kobo = balance_kobo + 7 WHERE id = ?`,
		financedomain.PlatformFinanceID,
	).Error)

	report, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.Balanced)
	assert.Equal(t, int64(7), report.DriftKobo)
}

func TestListEntries_Filters(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, "ref_a", 1, 10); err != nil {
			return err
		}
		if err := svc.RecordRevenue(ctx, tx, financedomain.EntryTypeAddon, "ref_b", 2, 20); err != nil {
			return err
		}
		return svc.RecordPayout(ctx, tx, "po_c", 1, 5)
	})
	require.NoError(t, err)

	entries, err := svc.ListEntries(ctx, financedomain.ListFilter{Type: financedomain.EntryTypePayoutOutflow})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "po_c", entries[0].Reference)

	entries, err = svc.ListEntries(ctx, financedomain.ListFilter{BusinessID: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

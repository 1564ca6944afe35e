package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/apexmarket/vendora/internal/clock"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) financedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("finance.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// RecordRevenue appends a revenue ledger entry and bumps the aggregate inside
// the caller's transaction. The (type, reference) unique index backstops any
// caller that fails its own idempotency check.
func (s *Service) RecordRevenue(ctx context.Context, tx *gorm.DB, entryType financedomain.EntryType, reference string, businessID snowflake.ID, amountKobo int64) error {
	if entryType == financedomain.EntryTypePayoutOutflow {
		return financedomain.ErrInvalidEntry
	}
	if err := s.appendEntry(ctx, tx, entryType, reference, businessID, amountKobo); err != nil {
		return err
	}

	revenueColumn := "subscription_revenue_kobo"
	if entryType == financedomain.EntryTypePromotion {
		revenueColumn = "boost_revenue_kobo"
	}

	result := tx.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE platform_finance
		 SET balance_kobo = balance_kobo + ?,
		     %s = %s + ?,
		     updated_at = ?
		 WHERE id = ?`, revenueColumn, revenueColumn),
		amountKobo,
		amountKobo,
		s.clock.Now(),
		financedomain.PlatformFinanceID,
	)
	if result.Error != nil {
		return fmt.Errorf("update platform finance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("platform finance row missing")
	}
	return nil
}

// RecordPayout appends the payout_outflow entry and debits the aggregate
// inside the caller's transaction.
func (s *Service) RecordPayout(ctx context.Context, tx *gorm.DB, reference string, businessID snowflake.ID, amountKobo int64) error {
	if err := s.appendEntry(ctx, tx, financedomain.EntryTypePayoutOutflow, reference, businessID, amountKobo); err != nil {
		return err
	}

	result := tx.WithContext(ctx).Exec(
		`UPDATE platform_finance
		 SET balance_kobo = balance_kobo - ?,
		     payout_outflow_kobo = payout_outflow_kobo + ?,
		     updated_at = ?
		 WHERE id = ?`,
		amountKobo,
		amountKobo,
		s.clock.Now(),
		financedomain.PlatformFinanceID,
	)
	if result.Error != nil {
		return fmt.Errorf("update platform finance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("platform finance row missing")
	}
	return nil
}

func (s *Service) appendEntry(ctx context.Context, tx *gorm.DB, entryType financedomain.EntryType, reference string, businessID snowflake.ID, amountKobo int64) error {
	reference = strings.TrimSpace(reference)
	if reference == "" || businessID == 0 {
		return financedomain.ErrInvalidEntry
	}
	if amountKobo <= 0 {
		return financedomain.ErrInvalidAmount
	}

	result := tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_entries (id, type, reference, business_id, amount_kobo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (type, reference) DO NOTHING`,
		s.genID.Generate(),
		string(entryType),
		reference,
		businessID,
		amountKobo,
		s.clock.Now(),
	)
	if result.Error != nil {
		return fmt.Errorf("append ledger entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrDuplicateEntry
	}

	s.log.Info("ledger entry appended",
		zap.String("type", string(entryType)),
		zap.String("reference", reference),
		zap.Int64("amount_kobo", amountKobo),
	)
	return nil
}

func (s *Service) Aggregate(ctx context.Context) (*financedomain.PlatformFinance, error) {
	var aggregate financedomain.PlatformFinance
	err := s.db.WithContext(ctx).
		Where("id = ?", financedomain.PlatformFinanceID).
		First(&aggregate).Error
	if err != nil {
		return nil, err
	}
	return &aggregate, nil
}

func (s *Service) ListEntries(ctx context.Context, filter financedomain.ListFilter) ([]financedomain.LedgerEntry, error) {
	query := s.db.WithContext(ctx).Model(&financedomain.LedgerEntry{})
	if filter.BusinessID != 0 {
		query = query.Where("business_id = ?", filter.BusinessID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []financedomain.LedgerEntry
	if err := query.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Reconcile recomputes what the aggregate balance should be from the ledger
// alone and reports any drift.
func (s *Service) Reconcile(ctx context.Context) (*financedomain.ReconcileReport, error) {
	aggregate, err := s.Aggregate(ctx)
	if err != nil {
		return nil, err
	}

	var revenue, payouts int64
	err = s.db.WithContext(ctx).
		Model(&financedomain.LedgerEntry{}).
		Where("type <> ?", financedomain.EntryTypePayoutOutflow).
		Select("COALESCE(SUM(amount_kobo), 0)").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Model(&financedomain.LedgerEntry{}).
		Where("type = ?", financedomain.EntryTypePayoutOutflow).
		Select("COALESCE(SUM(amount_kobo), 0)").
		Scan(&payouts).Error
	if err != nil {
		return nil, err
	}

	expected := revenue - payouts
	report := &financedomain.ReconcileReport{
		Aggregate:       *aggregate,
		LedgerRevenue:   revenue,
		LedgerPayouts:   payouts,
		ExpectedBalance: expected,
		DriftKobo:       aggregate.BalanceKobo - expected,
		Balanced:        aggregate.BalanceKobo == expected,
	}
	if !report.Balanced {
		s.log.Warn("platform finance drift detected",
			zap.Int64("aggregate_balance_kobo", aggregate.BalanceKobo),
			zap.Int64("expected_balance_kobo", expected),
		)
	}
	return report, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() businessdomain.Repository {
	return &repo{}
}

// forUpdate applies a row lock on dialects that support it. SQLite serializes
// writers already, so the clause is skipped there.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*businessdomain.Business, error) {
	var business businessdomain.Business
	err := db.WithContext(ctx).Where("id = ?", id).First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*businessdomain.Business, error) {
	var business businessdomain.Business
	err := forUpdate(db.WithContext(ctx)).Where("id = ?", id).First(&business).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *repo) ListIDsByPlan(ctx context.Context, db *gorm.DB, planKey string) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&businessdomain.Business{}).
		Where("plan_key = ?", planKey).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) UpdateSubscription(ctx context.Context, db *gorm.DB, b *businessdomain.Business) error {
	return db.WithContext(ctx).
		Model(&businessdomain.Business{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"plan_key":                b.PlanKey,
			"subscription_cycle":      b.SubscriptionCycle,
			"subscription_status":     b.SubscriptionStatus,
			"subscription_started_at": b.SubscriptionStartedAt,
			"subscription_expires_at": b.SubscriptionExpiresAt,
			"last_payment_reference":  b.LastPaymentReference,
			"updated_at":              b.UpdatedAt,
		}).Error
}

func (r *repo) UpdateTrust(ctx context.Context, db *gorm.DB, b *businessdomain.Business) error {
	return db.WithContext(ctx).
		Model(&businessdomain.Business{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"badge_active":     b.BadgeActive,
			"badge_reason":     b.BadgeReason,
			"risk_score":       b.RiskScore,
			"risk_flags":       b.RiskFlags,
			"trust_updated_at": b.TrustUpdatedAt,
			"open_disputes":    b.OpenDisputes,
			"disputes_count":   b.DisputesCount,
			"updated_at":       b.UpdatedAt,
		}).Error
}

func (r *repo) FindEntitlementForUpdate(ctx context.Context, db *gorm.DB, businessID snowflake.ID, sku string) (*businessdomain.AddonEntitlement, error) {
	var entitlement businessdomain.AddonEntitlement
	err := forUpdate(db.WithContext(ctx)).
		Where("business_id = ? AND sku = ?", businessID, sku).
		First(&entitlement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entitlement, nil
}

func (r *repo) UpsertEntitlement(ctx context.Context, db *gorm.DB, e *businessdomain.AddonEntitlement) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "expires_at", "remaining_ms", "cycle", "purchase_count", "updated_at",
			}),
		}).
		Create(e).Error
}

func (r *repo) ListEntitlements(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]businessdomain.AddonEntitlement, error) {
	var entitlements []businessdomain.AddonEntitlement
	err := db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("sku").
		Find(&entitlements).Error
	if err != nil {
		return nil, err
	}
	return entitlements, nil
}

func (r *repo) ListProductIDs(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&businessdomain.Product{}).
		Where("business_id = ?", businessID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) UpdateProductTrust(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID, badgeActive bool, riskScore int16, now time.Time) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Model(&businessdomain.Product{}).
		Where("id IN ?", productIDs).
		Updates(map[string]any{
			"apex_badge_active": badgeActive,
			"apex_risk_score":   riskScore,
			"updated_at":        now,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) CountOrders(ctx context.Context, db *gorm.DB, businessID snowflake.ID, status businessdomain.OrderStatus, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&businessdomain.Order{}).
		Where("business_id = ? AND status = ? AND created_at >= ?", businessID, status, since).
		Count(&count).Error
	return count, err
}

func (r *repo) CountOpenDisputes(ctx context.Context, db *gorm.DB, businessID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&businessdomain.Dispute{}).
		Where("business_id = ? AND status = ?", businessID, businessdomain.DisputeStatusOpen).
		Count(&count).Error
	return count, err
}

func (r *repo) CountDisputes(ctx context.Context, db *gorm.DB, businessID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&businessdomain.Dispute{}).
		Where("business_id = ? AND created_at >= ?", businessID, since).
		Count(&count).Error
	return count, err
}

func (r *repo) CountPolicyViolations(ctx context.Context, db *gorm.DB, businessID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&businessdomain.PolicyViolation{}).
		Where("business_id = ? AND created_at >= ?", businessID, since).
		Count(&count).Error
	return count, err
}

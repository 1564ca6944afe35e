package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Business, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Business, error)
	ListIDsByPlan(ctx context.Context, db *gorm.DB, planKey string) ([]snowflake.ID, error)
	UpdateSubscription(ctx context.Context, db *gorm.DB, b *Business) error
	UpdateTrust(ctx context.Context, db *gorm.DB, b *Business) error

	FindEntitlementForUpdate(ctx context.Context, db *gorm.DB, businessID snowflake.ID, sku string) (*AddonEntitlement, error)
	UpsertEntitlement(ctx context.Context, db *gorm.DB, e *AddonEntitlement) error
	ListEntitlements(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]AddonEntitlement, error)

	ListProductIDs(ctx context.Context, db *gorm.DB, businessID snowflake.ID) ([]snowflake.ID, error)
	UpdateProductTrust(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID, badgeActive bool, riskScore int16, now time.Time) (int64, error)

	CountOrders(ctx context.Context, db *gorm.DB, businessID snowflake.ID, status OrderStatus, since time.Time) (int64, error)
	CountOpenDisputes(ctx context.Context, db *gorm.DB, businessID snowflake.ID) (int64, error)
	CountDisputes(ctx context.Context, db *gorm.DB, businessID snowflake.ID, since time.Time) (int64, error)
	CountPolicyViolations(ctx context.Context, db *gorm.DB, businessID snowflake.ID, since time.Time) (int64, error)
}

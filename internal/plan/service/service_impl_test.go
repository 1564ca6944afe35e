package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	businessrepository "github.com/apexmarket/vendora/internal/business/repository"
	"github.com/apexmarket/vendora/internal/clock"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	planrepository "github.com/apexmarket/vendora/internal/plan/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*gorm.DB, plandomain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&businessdomain.Business{},
		&plandomain.ConfigRow{},
	))

	fake := clock.NewFakeClock(testNow)
	svc := NewService(Params{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fake,
		Repo:         planrepository.Provide(),
		BusinessRepo: businessrepository.Provide(),
	})
	return db, svc, fake
}

func seedBusiness(t *testing.T, db *gorm.DB, mutate func(*businessdomain.Business)) snowflake.ID {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	business := &businessdomain.Business{
		ID:        node.Generate(),
		Name:      "Ada's Fabrics",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if mutate != nil {
		mutate(business)
	}
	require.NoError(t, db.Create(business).Error)
	return business.ID
}

func TestResolve_NoSubscriptionIsFree(t *testing.T) {
	db, svc, _ := newTestService(t)
	id := seedBusiness(t, db, nil)

	resolution, err := svc.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, plandomain.PlanFree, resolution.PlanKey)
	assert.False(t, resolution.HasActiveSubscription)
	assert.False(t, resolution.Features.ApexTrust)
}

func TestResolve_ActiveSubscription(t *testing.T) {
	db, svc, _ := newTestService(t)
	planKey := plandomain.PlanStarter
	expires := testNow.Add(20 * 24 * time.Hour)
	id := seedBusiness(t, db, func(b *businessdomain.Business) {
		b.PlanKey = &planKey
		b.SubscriptionStatus = businessdomain.SubscriptionStatusActive
		b.SubscriptionExpiresAt = &expires
	})

	resolution, err := svc.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, plandomain.PlanStarter, resolution.PlanKey)
	assert.True(t, resolution.HasActiveSubscription)
	assert.True(t, resolution.Features.ApexTrust)
	assert.Equal(t, int64(100), resolution.Limits.MaxProducts)
}

func TestResolve_ExpiredSubscriptionDegradesToFree(t *testing.T) {
	db, svc, fake := newTestService(t)
	planKey := plandomain.PlanPro
	expires := testNow.Add(24 * time.Hour)
	id := seedBusiness(t, db, func(b *businessdomain.Business) {
		b.PlanKey = &planKey
		b.SubscriptionStatus = businessdomain.SubscriptionStatusActive
		b.SubscriptionExpiresAt = &expires
	})

	fake.Advance(48 * time.Hour)

	resolution, err := svc.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, plandomain.PlanFree, resolution.PlanKey)
	assert.False(t, resolution.HasActiveSubscription)
	assert.False(t, resolution.Features.ApexTrust)
}

func TestResolve_StalePlanKeyDegradesToFree(t *testing.T) {
	db, svc, _ := newTestService(t)
	planKey := "legacy_gold"
	expires := testNow.Add(24 * time.Hour)
	id := seedBusiness(t, db, func(b *businessdomain.Business) {
		b.PlanKey = &planKey
		b.SubscriptionExpiresAt = &expires
	})

	resolution, err := svc.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, plandomain.PlanFree, resolution.PlanKey)
	assert.False(t, resolution.HasActiveSubscription)
}

func TestResolve_UnknownBusiness(t *testing.T) {
	_, svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), snowflake.ID(999))
	assert.ErrorIs(t, err, businessdomain.ErrBusinessNotFound)
}

func TestPlanByKey_PartialOverrideMerges(t *testing.T) {
	db, svc, _ := newTestService(t)

	doc := `{"prices":{"monthly":300000},"features":{"custom_storefront":true}}`
	require.NoError(t, db.Create(&plandomain.ConfigRow{
		Key: "plan:starter",
		Doc: datatypes.JSON(doc),
	}).Error)

	plan, err := svc.PlanByKey(context.Background(), plandomain.PlanStarter)
	require.NoError(t, err)
	assert.Equal(t, int64(300_000), plan.Prices[plandomain.CycleMonthly])
	// Untouched fields keep their defaults.
	assert.Equal(t, int64(2_500_000), plan.Prices[plandomain.CycleYearly])
	assert.True(t, plan.Features.CustomStorefront)
	assert.True(t, plan.Features.ApexTrust)
	assert.Equal(t, "Starter", plan.Name)
}

func TestPlanByKey_MalformedOverrideFallsBackToDefaults(t *testing.T) {
	db, svc, _ := newTestService(t)

	require.NoError(t, db.Create(&plandomain.ConfigRow{
		Key: "plan:starter",
		Doc: datatypes.JSON(`{"prices":`),
	}).Error)

	plan, err := svc.PlanByKey(context.Background(), plandomain.PlanStarter)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), plan.Prices[plandomain.CycleMonthly])
}

func TestPlanPrice_Validation(t *testing.T) {
	_, svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PlanPrice(ctx, plandomain.PlanStarter, "weekly")
	assert.ErrorIs(t, err, plandomain.ErrUnknownCycle)

	_, err = svc.PlanPrice(ctx, "no_such_plan", plandomain.CycleMonthly)
	assert.ErrorIs(t, err, plandomain.ErrUnknownPlan)

	_, err = svc.PlanPrice(ctx, plandomain.PlanFree, plandomain.CycleMonthly)
	assert.ErrorIs(t, err, plandomain.ErrNotPriced)

	amount, err := svc.PlanPrice(ctx, plandomain.PlanPro, plandomain.CycleYearly)
	require.NoError(t, err)
	assert.Equal(t, int64(7_500_000), amount)
}

func TestAddonByKey_BundleAndOverride(t *testing.T) {
	db, svc, _ := newTestService(t)
	ctx := context.Background()

	addon, err := svc.AddonByKey(ctx, "addon_growth_bundle")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"addon_followups_boost_20", "addon_storefront_themes"}, addon.Bundle)

	require.NoError(t, db.Create(&plandomain.ConfigRow{
		Key: "addon:addon_followups_boost_20",
		Doc: datatypes.JSON(`{"prices":{"monthly":180000}}`),
	}).Error)

	amount, err := svc.AddonPrice(ctx, "addon_followups_boost_20", plandomain.CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, int64(180_000), amount)

	_, err = svc.AddonPrice(ctx, "no_such_sku", plandomain.CycleMonthly)
	assert.ErrorIs(t, err, plandomain.ErrUnknownAddon)
}

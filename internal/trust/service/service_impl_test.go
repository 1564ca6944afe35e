package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	businessrepository "github.com/apexmarket/vendora/internal/business/repository"
	"github.com/apexmarket/vendora/internal/clock"
	"github.com/apexmarket/vendora/internal/config"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	planrepository "github.com/apexmarket/vendora/internal/plan/repository"
	planservice "github.com/apexmarket/vendora/internal/plan/service"
	trustdomain "github.com/apexmarket/vendora/internal/trust/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type trustFixture struct {
	db    *gorm.DB
	svc   trustdomain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *trustFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&businessdomain.Business{},
		&businessdomain.Product{},
		&businessdomain.Order{},
		&businessdomain.Dispute{},
		&businessdomain.PolicyViolation{},
		&plandomain.ConfigRow{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(testNow)
	businessRepo := businessrepository.Provide()

	planSvc := planservice.NewService(planservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fake,
		Repo:         planrepository.Provide(),
		BusinessRepo: businessRepo,
	})
	svc := NewService(Params{
		Config:       config.Config{TrustProductBatchSize: 2},
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fake,
		BusinessRepo: businessRepo,
		PlanSvc:      planSvc,
	})

	return &trustFixture{db: db, svc: svc, node: node, clock: fake}
}

type vendorSeed struct {
	planKey          string
	verificationTier int16
	completed30d     int
	completed7d      int
	abandoned7d      int
	disputes30d      int
	openDisputes     int
	policyHits30d    int
	products         int
}

func (f *trustFixture) seedVendor(t *testing.T, seed vendorSeed) snowflake.ID {
	t.Helper()

	business := &businessdomain.Business{
		ID:               f.node.Generate(),
		Name:             "Bola Gadgets",
		VerificationTier: seed.verificationTier,
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	}
	if seed.planKey != "" {
		planKey := seed.planKey
		expires := testNow.Add(20 * 24 * time.Hour)
		business.PlanKey = &planKey
		business.SubscriptionStatus = businessdomain.SubscriptionStatusActive
		business.SubscriptionExpiresAt = &expires
	}
	require.NoError(t, f.db.Create(business).Error)

	addOrder := func(status businessdomain.OrderStatus, at time.Time) {
		require.NoError(t, f.db.Create(&businessdomain.Order{
			ID:         f.node.Generate(),
			BusinessID: business.ID,
			Status:     status,
			AmountKobo: 10_000,
			CreatedAt:  at,
		}).Error)
	}

	// completed30d includes the 7d count; older completions land at day -20.
	for i := 0; i < seed.completed7d; i++ {
		addOrder(businessdomain.OrderStatusCompleted, testNow.Add(-2*24*time.Hour))
	}
	for i := 0; i < seed.completed30d-seed.completed7d; i++ {
		addOrder(businessdomain.OrderStatusCompleted, testNow.Add(-20*24*time.Hour))
	}
	for i := 0; i < seed.abandoned7d; i++ {
		addOrder(businessdomain.OrderStatusAbandoned, testNow.Add(-3*24*time.Hour))
	}

	for i := 0; i < seed.disputes30d; i++ {
		status := businessdomain.DisputeStatusResolved
		if i < seed.openDisputes {
			status = businessdomain.DisputeStatusOpen
		}
		require.NoError(t, f.db.Create(&businessdomain.Dispute{
			ID:         f.node.Generate(),
			BusinessID: business.ID,
			OrderID:    f.node.Generate(),
			Status:     status,
			CreatedAt:  testNow.Add(-5 * 24 * time.Hour),
		}).Error)
	}

	for i := 0; i < seed.policyHits30d; i++ {
		require.NoError(t, f.db.Create(&businessdomain.PolicyViolation{
			ID:         f.node.Generate(),
			BusinessID: business.ID,
			Code:       "counterfeit",
			CreatedAt:  testNow.Add(-10 * 24 * time.Hour),
		}).Error)
	}

	for i := 0; i < seed.products; i++ {
		require.NoError(t, f.db.Create(&businessdomain.Product{
			ID:         f.node.Generate(),
			BusinessID: business.ID,
			Title:      fmt.Sprintf("item %d", i),
			UpdatedAt:  testNow,
		}).Error)
	}

	return business.ID
}

func TestRecompute_HealthyVendorGetsBadge(t *testing.T) {
	f := newFixture(t)
	id := f.seedVendor(t, vendorSeed{
		planKey:          plandomain.PlanStarter,
		verificationTier: 1,
		completed30d:     15,
		completed7d:      5,
		products:         3,
	})

	result, err := f.svc.RecomputeBusiness(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.True(t, result.BadgeActive)
	assert.Equal(t, trustdomain.ReasonOK, result.Reason)
	assert.Equal(t, int16(0), result.RiskScore)
	assert.Empty(t, result.Flags)
	assert.Equal(t, int64(3), result.ProductsUpdated)

	var business businessdomain.Business
	require.NoError(t, f.db.First(&business, "id = ?", id).Error)
	assert.True(t, business.BadgeActive)
	assert.Equal(t, trustdomain.ReasonOK, business.BadgeReason)
	require.NotNil(t, business.TrustUpdatedAt)

	var products []businessdomain.Product
	require.NoError(t, f.db.Find(&products, "business_id = ?", id).Error)
	for _, product := range products {
		assert.True(t, product.ApexBadgeActive)
		assert.Equal(t, int16(0), product.ApexRiskScore)
	}
}

func TestRecompute_FeatureOffClearsScore(t *testing.T) {
	f := newFixture(t)
	// Free plan has no trust feature; heavy dispute history must not matter.
	id := f.seedVendor(t, vendorSeed{
		verificationTier: 1,
		completed30d:     20,
		disputes30d:      10,
		openDisputes:     5,
		policyHits30d:    2,
		products:         2,
	})

	// Pretend a previous run left a badge behind.
	require.NoError(t, f.db.Exec(
		`UPDATE businesses SET badge_active = ?, risk_score = 90 WHERE id = ?`, true, id,
	).Error)

	result, err := f.svc.RecomputeBusiness(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.False(t, result.BadgeActive)
	assert.Equal(t, trustdomain.ReasonFeatureDisabled, result.Reason)
	assert.Equal(t, int16(0), result.RiskScore)
	assert.Equal(t, int64(2), result.ProductsUpdated)

	var business businessdomain.Business
	require.NoError(t, f.db.First(&business, "id = ?", id).Error)
	assert.False(t, business.BadgeActive)
	assert.Equal(t, int16(0), business.RiskScore)
}

func TestRecompute_BadgeChainFirstFailureNamesReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		seed   vendorSeed
		reason string
	}{
		{
			name:   "verification tier",
			seed:   vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 0, completed30d: 20},
			reason: trustdomain.ReasonVerificationTier,
		},
		{
			name:   "min completed orders",
			seed:   vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 1, completed30d: 5},
			reason: trustdomain.ReasonMinCompletedOrders,
		},
		{
			name:   "policy violation",
			seed:   vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 1, completed30d: 20, policyHits30d: 1},
			reason: trustdomain.ReasonPolicyViolation,
		},
		{
			name:   "open disputes",
			seed:   vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 1, completed30d: 100, disputes30d: 3, openDisputes: 3},
			reason: trustdomain.ReasonOpenDisputes,
		},
		{
			name:   "dispute rate",
			seed:   vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 1, completed30d: 20, disputes30d: 2},
			reason: trustdomain.ReasonDisputeRate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := f.seedVendor(t, tc.seed)
			result, err := f.svc.RecomputeBusiness(ctx, id)
			require.NoError(t, err)
			assert.False(t, result.BadgeActive)
			assert.Equal(t, tc.reason, result.Reason)
		})
	}
}

func TestRecompute_RiskScoreSumsAndClamps(t *testing.T) {
	f := newFixture(t)
	// High dispute rate (30) + many open disputes (20) + abandonment spike (15)
	// + policy hit (35) = 100, the ceiling.
	id := f.seedVendor(t, vendorSeed{
		planKey:          plandomain.PlanStarter,
		verificationTier: 1,
		completed30d:     10,
		completed7d:      2,
		abandoned7d:      4,
		disputes30d:      3,
		openDisputes:     3,
		policyHits30d:    1,
	})

	result, err := f.svc.RecomputeBusiness(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int16(100), result.RiskScore)
	assert.ElementsMatch(t, []string{
		trustdomain.FlagDisputeRateHigh,
		trustdomain.FlagOpenDisputesMany,
		trustdomain.FlagAbandonmentSpike,
		trustdomain.FlagPolicyViolation,
	}, result.Flags)
	assert.False(t, result.BadgeActive)
}

func TestRecompute_ElevatedDisputeRateDoesNotStackWithHigh(t *testing.T) {
	f := newFixture(t)
	// 1 dispute over 15 completed is 6.7%: elevated, not high.
	id := f.seedVendor(t, vendorSeed{
		planKey:          plandomain.PlanStarter,
		verificationTier: 1,
		completed30d:     15,
		disputes30d:      1,
	})

	result, err := f.svc.RecomputeBusiness(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int16(15), result.RiskScore)
	assert.Equal(t, []string{trustdomain.FlagDisputeRateElevated}, result.Flags)
}

func TestRecompute_ZeroCompletedWithDisputesPinsRate(t *testing.T) {
	f := newFixture(t)
	id := f.seedVendor(t, vendorSeed{
		planKey:          plandomain.PlanStarter,
		verificationTier: 1,
		disputes30d:      2,
	})

	result, err := f.svc.RecomputeBusiness(context.Background(), id)
	require.NoError(t, err)
	// The rate is pinned to the elevated threshold, never treated as infinite.
	assert.Contains(t, result.Flags, trustdomain.FlagDisputeRateElevated)
	assert.NotContains(t, result.Flags, trustdomain.FlagDisputeRateHigh)
}

func TestRecompute_ProductFanOutIsChunked(t *testing.T) {
	f := newFixture(t)
	// 5 products with batch size 2 means 3 chunks; all must be written.
	id := f.seedVendor(t, vendorSeed{
		planKey:          plandomain.PlanStarter,
		verificationTier: 1,
		completed30d:     15,
		products:         5,
	})

	result, err := f.svc.RecomputeBusiness(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.ProductsUpdated)

	var badged int64
	require.NoError(t, f.db.Model(&businessdomain.Product{}).
		Where("business_id = ? AND apex_badge_active = ?", id, true).
		Count(&badged).Error)
	assert.Equal(t, int64(5), badged)
}

func TestRecompute_RerunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	id := f.seedVendor(t, vendorSeed{
		planKey:          plandomain.PlanStarter,
		verificationTier: 1,
		completed30d:     15,
		products:         2,
	})
	ctx := context.Background()

	first, err := f.svc.RecomputeBusiness(ctx, id)
	require.NoError(t, err)
	second, err := f.svc.RecomputeBusiness(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.BadgeActive, second.BadgeActive)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, first.ProductsUpdated, second.ProductsUpdated)
}

func TestRecompute_UnknownBusiness(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecomputeBusiness(context.Background(), snowflake.ID(12345))
	assert.ErrorIs(t, err, businessdomain.ErrBusinessNotFound)
}

func TestRecomputePlan_CoversEveryVendorOnPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	idA := f.seedVendor(t, vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 1, completed30d: 15})
	idB := f.seedVendor(t, vendorSeed{planKey: plandomain.PlanStarter, verificationTier: 0, completed30d: 15})
	f.seedVendor(t, vendorSeed{planKey: plandomain.PlanPro, verificationTier: 1, completed30d: 15})

	results, err := f.svc.RecomputePlan(ctx, plandomain.PlanStarter)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[snowflake.ID]trustdomain.Result{}
	for _, result := range results {
		byID[result.BusinessID] = result
	}
	assert.True(t, byID[idA].BadgeActive)
	assert.False(t, byID[idB].BadgeActive)
	assert.Equal(t, trustdomain.ReasonVerificationTier, byID[idB].Reason)
}

func TestRecomputePlan_UnknownPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecomputePlan(context.Background(), "no_such_plan")
	assert.ErrorIs(t, err, plandomain.ErrUnknownPlan)
}

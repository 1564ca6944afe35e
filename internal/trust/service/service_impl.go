package service

import (
	"context"
	"encoding/json"

	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/clock"
	"github.com/apexmarket/vendora/internal/config"
	"github.com/apexmarket/vendora/internal/metrics"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	trustdomain "github.com/apexmarket/vendora/internal/trust/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	BusinessRepo businessdomain.Repository
	PlanSvc      plandomain.Service
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	businessRepo businessdomain.Repository
	planSvc      plandomain.Service
	metrics      *metrics.Metrics
	rules        trustdomain.Rules
	batchSize    int
}

func NewService(p Params) trustdomain.Service {
	batchSize := p.Config.TrustProductBatchSize
	if batchSize <= 0 {
		batchSize = 400
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("trust.service"),
		clock:        p.Clock,
		businessRepo: p.BusinessRepo,
		planSvc:      p.PlanSvc,
		metrics:      p.Metrics,
		rules:        trustdomain.DefaultRules(),
		batchSize:    batchSize,
	}
}

// RecomputeBusiness aggregates one vendor's recent history into a risk score
// and badge decision, writes it onto the vendor row, then denormalizes the
// outcome onto every product the vendor owns. The whole run is idempotent and
// safe to re-run from the top after a partial failure.
func (s *Service) RecomputeBusiness(ctx context.Context, businessID snowflake.ID) (*trustdomain.Result, error) {
	business, err := s.businessRepo.FindByID(ctx, s.db, businessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		s.countOutcome("not_found")
		return nil, businessdomain.ErrBusinessNotFound
	}

	resolution, err := s.planSvc.Resolve(ctx, businessID)
	if err != nil {
		return nil, err
	}

	// A vendor whose plan does not include the trust feature gets cleared, not
	// scored. Stale badges from a lapsed plan disappear on the next run.
	if !resolution.Features.ApexTrust {
		result, err := s.clearTrust(ctx, business)
		if err != nil {
			s.countOutcome("error")
			return nil, err
		}
		s.countOutcome("cleared")
		return result, nil
	}

	signals, err := s.gatherSignals(ctx, business)
	if err != nil {
		s.countOutcome("error")
		return nil, err
	}

	score, flags := scoreRisk(s.rules, signals)
	badgeActive, reason := badgeDecision(s.rules, business, signals)

	result := &trustdomain.Result{
		BusinessID:  business.ID,
		OK:          true,
		BadgeActive: badgeActive,
		Reason:      reason,
		RiskScore:   score,
		Flags:       flags,
	}

	if err := s.writeBack(ctx, business.ID, result, signals); err != nil {
		s.countOutcome("error")
		return nil, err
	}

	updated, err := s.fanOutProducts(ctx, business.ID, badgeActive, score)
	if err != nil {
		s.countOutcome("error")
		return nil, err
	}
	result.ProductsUpdated = updated

	s.log.Info("trust recomputed",
		zap.String("business_id", business.ID.String()),
		zap.Int16("risk_score", score),
		zap.Bool("badge_active", badgeActive),
		zap.String("reason", reason),
		zap.Int64("products_updated", updated),
	)
	s.countOutcome("recomputed")
	return result, nil
}

// RecomputePlan runs the recompute for every vendor currently on planKey. One
// vendor's failure is recorded in its result and does not stop the batch.
func (s *Service) RecomputePlan(ctx context.Context, planKey string) ([]trustdomain.Result, error) {
	if _, err := s.planSvc.PlanByKey(ctx, planKey); err != nil {
		return nil, err
	}
	ids, err := s.businessRepo.ListIDsByPlan(ctx, s.db, planKey)
	if err != nil {
		return nil, err
	}

	results := make([]trustdomain.Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := s.RecomputeBusiness(ctx, id)
		if err != nil {
			s.log.Warn("trust recompute failed",
				zap.String("business_id", id.String()),
				zap.Error(err),
			)
			results = append(results, trustdomain.Result{BusinessID: id, OK: false, Error: err.Error()})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func (s *Service) gatherSignals(ctx context.Context, business *businessdomain.Business) (trustdomain.Signals, error) {
	now := s.clock.Now()
	longSince := now.Add(-s.rules.WindowLong)
	shortSince := now.Add(-s.rules.WindowShort)

	var signals trustdomain.Signals
	var err error

	if signals.CompletedLong, err = s.businessRepo.CountOrders(ctx, s.db, business.ID, businessdomain.OrderStatusCompleted, longSince); err != nil {
		return signals, err
	}
	if signals.CompletedShort, err = s.businessRepo.CountOrders(ctx, s.db, business.ID, businessdomain.OrderStatusCompleted, shortSince); err != nil {
		return signals, err
	}
	if signals.AbandonedShort, err = s.businessRepo.CountOrders(ctx, s.db, business.ID, businessdomain.OrderStatusAbandoned, shortSince); err != nil {
		return signals, err
	}
	if signals.DisputesLong, err = s.businessRepo.CountDisputes(ctx, s.db, business.ID, longSince); err != nil {
		return signals, err
	}
	if signals.OpenDisputes, err = s.businessRepo.CountOpenDisputes(ctx, s.db, business.ID); err != nil {
		return signals, err
	}
	if signals.PolicyHitsLong, err = s.businessRepo.CountPolicyViolations(ctx, s.db, business.ID, longSince); err != nil {
		return signals, err
	}

	signals.DisputeRate = disputeRate(s.rules, signals.DisputesLong, signals.CompletedLong)
	return signals, nil
}

// disputeRate is disputes over completed orders. With zero completed orders it
// is 0 when there are no disputes, otherwise pinned to the elevated threshold
// so the ratio cannot explode.
func disputeRate(rules trustdomain.Rules, disputes, completed int64) float64 {
	if completed == 0 {
		if disputes == 0 {
			return 0
		}
		return rules.ElevatedDisputeRate
	}
	return float64(disputes) / float64(completed)
}

// scoreRisk sums the fixed weight of every triggered rule and clamps to
// [0,100]. High dispute rate supersedes elevated; they never stack.
func scoreRisk(rules trustdomain.Rules, signals trustdomain.Signals) (int16, []string) {
	var score int32
	flags := []string{}

	switch {
	case signals.DisputeRate >= rules.HighDisputeRate:
		score += int32(rules.PointsHighDisputeRate)
		flags = append(flags, trustdomain.FlagDisputeRateHigh)
	case signals.DisputeRate >= rules.ElevatedDisputeRate:
		score += int32(rules.PointsElevatedDisputeRate)
		flags = append(flags, trustdomain.FlagDisputeRateElevated)
	}

	if signals.OpenDisputes >= rules.OpenDisputesMany {
		score += int32(rules.PointsOpenDisputes)
		flags = append(flags, trustdomain.FlagOpenDisputesMany)
	}

	if abandonmentSpike(rules, signals) {
		score += int32(rules.PointsAbandonmentSpike)
		flags = append(flags, trustdomain.FlagAbandonmentSpike)
	}

	if signals.PolicyHitsLong > 0 {
		score += int32(rules.PointsPolicyViolation)
		flags = append(flags, trustdomain.FlagPolicyViolation)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int16(score), flags
}

// abandonmentSpike fires when abandoned checkouts in the short window exceed
// the configured share of that window's total order flow.
func abandonmentSpike(rules trustdomain.Rules, signals trustdomain.Signals) bool {
	total := signals.CompletedShort + signals.AbandonedShort
	if total == 0 {
		return false
	}
	return float64(signals.AbandonedShort)/float64(total) >= rules.AbandonmentRatio
}

// badgeDecision walks the eligibility chain in order; the first failing rule
// names the reason.
func badgeDecision(rules trustdomain.Rules, business *businessdomain.Business, signals trustdomain.Signals) (bool, string) {
	if business.VerificationTier < rules.BadgeMinVerificationTier {
		return false, trustdomain.ReasonVerificationTier
	}
	if signals.CompletedLong < rules.BadgeMinCompletedOrders {
		return false, trustdomain.ReasonMinCompletedOrders
	}
	if signals.PolicyHitsLong > 0 {
		return false, trustdomain.ReasonPolicyViolation
	}
	if signals.OpenDisputes > rules.BadgeOpenDisputeCeiling {
		return false, trustdomain.ReasonOpenDisputes
	}
	if signals.DisputeRate > rules.BadgeDisputeRateCeiling {
		return false, trustdomain.ReasonDisputeRate
	}
	return true, trustdomain.ReasonOK
}

func (s *Service) clearTrust(ctx context.Context, business *businessdomain.Business) (*trustdomain.Result, error) {
	result := &trustdomain.Result{
		BusinessID:  business.ID,
		OK:          true,
		BadgeActive: false,
		Reason:      trustdomain.ReasonFeatureDisabled,
		RiskScore:   0,
		Flags:       []string{},
	}
	if err := s.writeBack(ctx, business.ID, result, trustdomain.Signals{
		OpenDisputes: int64(business.OpenDisputes),
		DisputesLong: int64(business.DisputesCount),
	}); err != nil {
		return nil, err
	}
	updated, err := s.fanOutProducts(ctx, business.ID, false, 0)
	if err != nil {
		return nil, err
	}
	result.ProductsUpdated = updated
	return result, nil
}

func (s *Service) writeBack(ctx context.Context, businessID snowflake.ID, result *trustdomain.Result, signals trustdomain.Signals) error {
	encoded, err := json.Marshal(result.Flags)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		business, err := s.businessRepo.FindByIDForUpdate(ctx, tx, businessID)
		if err != nil {
			return err
		}
		if business == nil {
			return businessdomain.ErrBusinessNotFound
		}
		business.BadgeActive = result.BadgeActive
		business.BadgeReason = result.Reason
		business.RiskScore = result.RiskScore
		business.RiskFlags = datatypes.JSON(encoded)
		business.TrustUpdatedAt = &now
		business.OpenDisputes = int(signals.OpenDisputes)
		business.DisputesCount = int(signals.DisputesLong)
		business.UpdatedAt = now
		return s.businessRepo.UpdateTrust(ctx, tx, business)
	})
}

// fanOutProducts pushes the decision onto the vendor's product rows in bounded
// chunks, one statement per chunk. Re-running overwrites with the same values.
func (s *Service) fanOutProducts(ctx context.Context, businessID snowflake.ID, badgeActive bool, score int16) (int64, error) {
	ids, err := s.businessRepo.ListProductIDs(ctx, s.db, businessID)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	var updated int64
	for start := 0; start < len(ids); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		end := start + s.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		n, err := s.businessRepo.UpdateProductTrust(ctx, s.db, ids[start:end], badgeActive, score, now)
		if err != nil {
			return updated, err
		}
		updated += n
	}
	return updated, nil
}

func (s *Service) countOutcome(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Recomputes.WithLabelValues(outcome).Inc()
}

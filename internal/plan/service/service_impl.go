package service

import (
	"context"
	"encoding/json"

	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/clock"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	planrepository "github.com/apexmarket/vendora/internal/plan/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Repo         planrepository.Repository
	BusinessRepo businessdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	repo         planrepository.Repository
	businessRepo businessdomain.Repository
}

func NewService(p Params) plandomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("plan.service"),
		clock:        p.Clock,
		repo:         p.Repo,
		businessRepo: p.BusinessRepo,
	}
}

// Resolve returns the vendor's effective plan. A subscription is in force iff
// a plan key is set and the expiry is in the future; anything else resolves to
// the free tier regardless of what the plan key historically held.
func (s *Service) Resolve(ctx context.Context, businessID snowflake.ID) (*plandomain.Resolution, error) {
	business, err := s.businessRepo.FindByID(ctx, s.db, businessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, businessdomain.ErrBusinessNotFound
	}

	planKey := plandomain.PlanFree
	active := business.HasActiveSubscription(s.clock.Now())
	if active {
		planKey = *business.PlanKey
	}

	plan, err := s.PlanByKey(ctx, planKey)
	if err != nil {
		// A stale or retired plan key on the vendor document degrades to free
		// rather than failing the read path.
		plan, err = s.PlanByKey(ctx, plandomain.PlanFree)
		if err != nil {
			return nil, err
		}
		planKey = plandomain.PlanFree
		active = false
	}

	return &plandomain.Resolution{
		PlanKey:               planKey,
		HasActiveSubscription: active,
		Features:              plan.Features,
		Limits:                plan.Limits,
		Business:              business,
	}, nil
}

func (s *Service) PlanByKey(ctx context.Context, planKey string) (*plandomain.Plan, error) {
	base, ok := plandomain.DefaultPlans()[planKey]
	if !ok {
		return nil, plandomain.ErrUnknownPlan
	}

	row, err := s.repo.FindConfig(ctx, s.db, "plan:"+planKey)
	if err != nil {
		return nil, err
	}
	merged := plandomain.ApplyPlanOverride(base, s.decodePlanOverride(planKey, row))
	return &merged, nil
}

func (s *Service) PlanPrice(ctx context.Context, planKey, cycle string) (int64, error) {
	if _, ok := plandomain.CycleDuration(cycle); !ok {
		return 0, plandomain.ErrUnknownCycle
	}
	plan, err := s.PlanByKey(ctx, planKey)
	if err != nil {
		return 0, err
	}
	amount, ok := plan.Prices[cycle]
	if !ok {
		return 0, plandomain.ErrNotPriced
	}
	return amount, nil
}

func (s *Service) AddonByKey(ctx context.Context, sku string) (*plandomain.AddonDefinition, error) {
	base, ok := plandomain.DefaultAddons()[sku]
	if !ok {
		return nil, plandomain.ErrUnknownAddon
	}

	row, err := s.repo.FindConfig(ctx, s.db, "addon:"+sku)
	if err != nil {
		return nil, err
	}
	merged := plandomain.ApplyAddonOverride(base, s.decodeAddonOverride(sku, row))
	return &merged, nil
}

func (s *Service) AddonPrice(ctx context.Context, sku, cycle string) (int64, error) {
	if _, ok := plandomain.CycleDuration(cycle); !ok {
		return 0, plandomain.ErrUnknownCycle
	}
	addon, err := s.AddonByKey(ctx, sku)
	if err != nil {
		return 0, err
	}
	amount, ok := addon.Prices[cycle]
	if !ok {
		return 0, plandomain.ErrNotPriced
	}
	return amount, nil
}

func (s *Service) decodePlanOverride(planKey string, row *plandomain.ConfigRow) *plandomain.PlanOverride {
	if row == nil || len(row.Doc) == 0 {
		return nil
	}
	var ov plandomain.PlanOverride
	if err := json.Unmarshal(row.Doc, &ov); err != nil {
		s.log.Warn("malformed plan config, using defaults",
			zap.String("plan_key", planKey),
			zap.Error(err),
		)
		return nil
	}
	return &ov
}

func (s *Service) decodeAddonOverride(sku string, row *plandomain.ConfigRow) *plandomain.AddonOverride {
	if row == nil || len(row.Doc) == 0 {
		return nil
	}
	var ov plandomain.AddonOverride
	if err := json.Unmarshal(row.Doc, &ov); err != nil {
		s.log.Warn("malformed addon config, using defaults",
			zap.String("sku", sku),
			zap.Error(err),
		)
		return nil
	}
	return &ov
}

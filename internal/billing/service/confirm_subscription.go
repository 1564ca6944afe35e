package service

import (
	"context"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/entitlement"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfirmSubscription applies a verified subscription payment: the vendor's
// plan is activated or, when the same plan is still running, extended from its
// current expiry.
func (s *Service) ConfirmSubscription(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error) {
	return s.confirm(ctx, billingdomain.PurposeSubscription, reference, s.applySubscription)
}

func (s *Service) applySubscription(ctx context.Context, tx *gorm.DB, verified *billingdomain.VerifiedTransaction, business *businessdomain.Business) (*billingdomain.ConfirmResult, error) {
	planKey := verified.Metadata.PlanKey
	cycle := verified.Metadata.Cycle
	if planKey == "" || cycle == "" {
		return nil, billingdomain.ErrInvalidMetadata
	}

	duration, ok := plandomain.CycleDuration(cycle)
	if !ok {
		return nil, plandomain.ErrUnknownCycle
	}

	expected, err := s.planSvc.PlanPrice(ctx, planKey, cycle)
	if err != nil {
		return nil, err
	}
	if expected != verified.AmountKobo {
		s.log.Warn("subscription amount mismatch",
			zap.String("reference", verified.Reference),
			zap.Int64("expected_kobo", expected),
			zap.Int64("paid_kobo", verified.AmountKobo),
		)
		return nil, billingdomain.ErrAmountMismatch
	}

	now := s.clock.Now()

	// Renewals of the running plan extend from the current expiry; a plan
	// switch (or a lapsed subscription) starts fresh from now.
	existing := entitlement.State{}
	startedAt := now
	if business.HasActiveSubscription(now) && *business.PlanKey == planKey {
		existing = entitlement.State{
			Status:    entitlement.StatusActive,
			ExpiresAt: *business.SubscriptionExpiresAt,
		}
		if business.SubscriptionStartedAt != nil {
			startedAt = *business.SubscriptionStartedAt
		}
	}
	merged := entitlement.Merge(existing, duration, now)
	expiresAt := merged.ExpiresAt

	business.PlanKey = &planKey
	business.SubscriptionCycle = &cycle
	business.SubscriptionStatus = businessdomain.SubscriptionStatusActive
	business.SubscriptionStartedAt = &startedAt
	business.SubscriptionExpiresAt = &expiresAt
	business.LastPaymentReference = &verified.Reference
	business.UpdatedAt = now
	if err := s.businessRepo.UpdateSubscription(ctx, tx, business); err != nil {
		return nil, err
	}

	if err := s.financeSvc.RecordRevenue(ctx, tx, financedomain.EntryTypeSubscription, verified.Reference, business.ID, verified.AmountKobo); err != nil {
		return nil, err
	}

	return &billingdomain.ConfirmResult{
		Purpose:    billingdomain.PurposeSubscription,
		Reference:  verified.Reference,
		BusinessID: business.ID,
		AmountKobo: verified.AmountKobo,
		PlanKey:    planKey,
		Cycle:      cycle,
		ExpiresAt:  &expiresAt,
	}, nil
}

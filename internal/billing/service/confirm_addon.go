package service

import (
	"context"
	"time"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/apexmarket/vendora/internal/entitlement"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	plandomain "github.com/apexmarket/vendora/internal/plan/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfirmAddon applies a verified add-on payment. The purchased duration is
// merged into the SKU's current grant; bundles merge the same duration into
// every included SKU independently.
func (s *Service) ConfirmAddon(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error) {
	return s.confirm(ctx, billingdomain.PurposeAddon, reference, s.applyAddon)
}

func (s *Service) applyAddon(ctx context.Context, tx *gorm.DB, verified *billingdomain.VerifiedTransaction, business *businessdomain.Business) (*billingdomain.ConfirmResult, error) {
	sku := verified.Metadata.SKU
	cycle := verified.Metadata.Cycle
	if sku == "" || cycle == "" {
		return nil, billingdomain.ErrInvalidMetadata
	}

	duration, ok := plandomain.CycleDuration(cycle)
	if !ok {
		return nil, plandomain.ErrUnknownCycle
	}

	addon, err := s.planSvc.AddonByKey(ctx, sku)
	if err != nil {
		return nil, err
	}
	expected, err := s.planSvc.AddonPrice(ctx, sku, cycle)
	if err != nil {
		return nil, err
	}
	if expected != verified.AmountKobo {
		s.log.Warn("addon amount mismatch",
			zap.String("reference", verified.Reference),
			zap.String("sku", sku),
			zap.Int64("expected_kobo", expected),
			zap.Int64("paid_kobo", verified.AmountKobo),
		)
		return nil, billingdomain.ErrAmountMismatch
	}

	granted := []string{sku}
	if len(addon.Bundle) > 0 {
		granted = addon.Bundle
	}

	now := s.clock.Now()
	grants := make([]billingdomain.AddonGrant, 0, len(granted))
	for _, grantSKU := range granted {
		row, err := s.businessRepo.FindEntitlementForUpdate(ctx, tx, business.ID, grantSKU)
		if err != nil {
			return nil, err
		}

		merged := entitlement.Merge(stateFromRow(row), duration, now)

		next := &businessdomain.AddonEntitlement{
			ID:            s.genID.Generate(),
			BusinessID:    business.ID,
			SKU:           grantSKU,
			Cycle:         cycle,
			PurchaseCount: 1,
			UpdatedAt:     now,
		}
		if row != nil {
			next.ID = row.ID
			next.PurchaseCount = row.PurchaseCount + 1
		}
		applyStateToRow(next, merged)

		if err := s.businessRepo.UpsertEntitlement(ctx, tx, next); err != nil {
			return nil, err
		}

		grants = append(grants, billingdomain.AddonGrant{
			SKU:           grantSKU,
			Status:        string(next.Status),
			ExpiresAt:     next.ExpiresAt,
			RemainingMs:   next.RemainingMs,
			PurchaseCount: next.PurchaseCount,
		})
	}

	if err := s.financeSvc.RecordRevenue(ctx, tx, financedomain.EntryTypeAddon, verified.Reference, business.ID, verified.AmountKobo); err != nil {
		return nil, err
	}

	return &billingdomain.ConfirmResult{
		Purpose:    billingdomain.PurposeAddon,
		Reference:  verified.Reference,
		BusinessID: business.ID,
		AmountKobo: verified.AmountKobo,
		Cycle:      cycle,
		Grants:     grants,
	}, nil
}

func stateFromRow(row *businessdomain.AddonEntitlement) entitlement.State {
	if row == nil {
		return entitlement.State{}
	}
	state := entitlement.State{Status: entitlement.Status(row.Status)}
	if row.ExpiresAt != nil {
		state.ExpiresAt = *row.ExpiresAt
	}
	state.Remaining = time.Duration(row.RemainingMs) * time.Millisecond
	return state
}

func applyStateToRow(row *businessdomain.AddonEntitlement, state entitlement.State) {
	row.Status = businessdomain.EntitlementStatus(state.Status)
	row.ExpiresAt = nil
	row.RemainingMs = 0
	switch state.Status {
	case entitlement.StatusActive:
		expires := state.ExpiresAt
		row.ExpiresAt = &expires
	case entitlement.StatusPaused:
		row.RemainingMs = state.Remaining.Milliseconds()
	}
}

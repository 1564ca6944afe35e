package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfirmPromotion applies a verified boost payment to its campaign. A locked
// vendor blocks activation: the money is already captured at the gateway, so
// the rejection is surfaced to the admin channel instead of silently dropped.
func (s *Service) ConfirmPromotion(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error) {
	return s.confirm(ctx, billingdomain.PurposePromotion, reference, s.applyPromotion)
}

func (s *Service) applyPromotion(ctx context.Context, tx *gorm.DB, verified *billingdomain.VerifiedTransaction, business *businessdomain.Business) (*billingdomain.ConfirmResult, error) {
	campaignID, err := snowflake.ParseString(strings.TrimSpace(verified.Metadata.CampaignID))
	if err != nil {
		return nil, billingdomain.ErrInvalidMetadata
	}

	campaign, err := s.repo.FindCampaignForUpdate(ctx, tx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil || campaign.BusinessID != business.ID {
		return nil, billingdomain.ErrCampaignNotFound
	}
	if campaign.Status != billingdomain.CampaignStatusPendingPayment {
		return nil, billingdomain.ErrCampaignNotPayable
	}
	if campaign.AmountKobo != verified.AmountKobo {
		s.log.Warn("promotion amount mismatch",
			zap.String("reference", verified.Reference),
			zap.String("campaign_id", campaign.ID.String()),
			zap.Int64("expected_kobo", campaign.AmountKobo),
			zap.Int64("paid_kobo", verified.AmountKobo),
		)
		return nil, billingdomain.ErrAmountMismatch
	}

	if business.Locked {
		s.notifyLockedPromotion(business.ID, campaign.ID, verified)
		return nil, businessdomain.ErrBusinessLocked
	}

	now := s.clock.Now()
	starts := now
	ends := now.Add(time.Duration(campaign.DurationDays) * 24 * time.Hour)
	campaign.Status = billingdomain.CampaignStatusActive
	campaign.PaymentReference = &verified.Reference
	campaign.StartsAt = &starts
	campaign.EndsAt = &ends
	campaign.UpdatedAt = now
	if err := s.repo.UpdateCampaign(ctx, tx, campaign); err != nil {
		return nil, err
	}

	if err := s.financeSvc.RecordRevenue(ctx, tx, financedomain.EntryTypePromotion, verified.Reference, business.ID, verified.AmountKobo); err != nil {
		return nil, err
	}

	return &billingdomain.ConfirmResult{
		Purpose:        billingdomain.PurposePromotion,
		Reference:      verified.Reference,
		BusinessID:     business.ID,
		AmountKobo:     verified.AmountKobo,
		CampaignID:     campaign.ID,
		CampaignStatus: campaign.Status,
	}, nil
}

// notifyLockedPromotion reports a captured payment whose campaign could not be
// activated. The charge is not auto-refunded, so an operator has to resolve it.
func (s *Service) notifyLockedPromotion(businessID, campaignID snowflake.ID, verified *billingdomain.VerifiedTransaction) {
	ref := verified.Reference
	amount := verified.AmountKobo
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("locked promotion notification panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		subject := "promotion payment blocked: vendor locked"
		message := fmt.Sprintf("business %s paid %d kobo for campaign %s (ref %s) but is locked; manual review required", businessID, amount, campaignID, ref)
		if err := s.notifier.NotifyAdmin(ctx, subject, message); err != nil {
			s.log.Warn("admin notification failed", zap.Error(err))
		}
	}()
}

package service

import (
	"context"
	"strings"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	businessdomain "github.com/apexmarket/vendora/internal/business/domain"
	"github.com/bwmarrin/snowflake"
)

// CreateCampaign drafts a boost campaign awaiting payment. Nothing is charged
// here; the stored amount becomes the server-side price the confirmation
// checks the gateway amount against.
func (s *Service) CreateCampaign(ctx context.Context, req billingdomain.CreateCampaignRequest) (*billingdomain.Campaign, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.AmountKobo <= 0 || req.DurationDays <= 0 {
		return nil, billingdomain.ErrInvalidCampaign
	}

	business, err := s.businessRepo.FindByID(ctx, s.db, req.BusinessID)
	if err != nil {
		return nil, err
	}
	if business == nil {
		return nil, businessdomain.ErrBusinessNotFound
	}

	now := s.clock.Now()
	campaign := &billingdomain.Campaign{
		ID:           s.genID.Generate(),
		BusinessID:   req.BusinessID,
		Name:         req.Name,
		AmountKobo:   req.AmountKobo,
		DurationDays: req.DurationDays,
		Status:       billingdomain.CampaignStatusPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertCampaign(ctx, s.db, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *Service) GetCampaign(ctx context.Context, id snowflake.ID) (*billingdomain.Campaign, error) {
	campaign, err := s.repo.FindCampaign(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, billingdomain.ErrCampaignNotFound
	}
	return campaign, nil
}

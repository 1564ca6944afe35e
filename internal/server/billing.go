package server

import (
	"context"
	"net/http"
	"strings"

	billingdomain "github.com/apexmarket/vendora/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type confirmPaymentRequest struct {
	Reference string `json:"reference"`
}

type createCampaignRequest struct {
	BusinessID   string `json:"business_id"`
	Name         string `json:"name"`
	AmountKobo   int64  `json:"amount_kobo"`
	DurationDays int    `json:"duration_days"`
}

type confirmFunc func(ctx context.Context, reference string) (*billingdomain.ConfirmResult, error)

func (s *Server) ConfirmSubscription(c *gin.Context) {
	s.confirmPayment(c, s.billingSvc.ConfirmSubscription)
}

func (s *Server) ConfirmAddon(c *gin.Context) {
	s.confirmPayment(c, s.billingSvc.ConfirmAddon)
}

func (s *Server) ConfirmPromotion(c *gin.Context) {
	s.confirmPayment(c, s.billingSvc.ConfirmPromotion)
}

func (s *Server) confirmPayment(c *gin.Context, confirm confirmFunc) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Reference) == "" {
		AbortWithError(c, newValidationError("reference", "required", "reference is required"))
		return
	}

	result, err := confirm(c.Request.Context(), req.Reference)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	businessID, err := snowflake.ParseString(strings.TrimSpace(req.BusinessID))
	if err != nil {
		AbortWithError(c, newValidationError("business_id", "invalid", "invalid business id"))
		return
	}

	campaign, err := s.billingSvc.CreateCampaign(c.Request.Context(), billingdomain.CreateCampaignRequest{
		BusinessID:   businessID,
		Name:         req.Name,
		AmountKobo:   req.AmountKobo,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (s *Server) GetCampaign(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid", "invalid campaign id"))
		return
	}

	campaign, err := s.billingSvc.GetCampaign(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

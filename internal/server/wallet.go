package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type requestWithdrawalRequest struct {
	BusinessID string `json:"business_id"`
	AmountKobo int64  `json:"amount_kobo"`
}

type settleWithdrawalRequest struct {
	Action string `json:"action"`
	Note   string `json:"note"`
}

func (s *Server) RequestWithdrawal(c *gin.Context) {
	var req requestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	businessID, err := snowflake.ParseString(strings.TrimSpace(req.BusinessID))
	if err != nil {
		AbortWithError(c, newValidationError("business_id", "invalid", "invalid business id"))
		return
	}

	withdrawal, err := s.walletSvc.RequestWithdrawal(c.Request.Context(), businessID, req.AmountKobo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

func (s *Server) SettleWithdrawal(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid", "invalid withdrawal id"))
		return
	}

	var req settleWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	switch strings.TrimSpace(req.Action) {
	case "approve":
		withdrawal, err := s.walletSvc.Approve(ctx, id, req.Note)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, withdrawal)
	case "reject":
		withdrawal, err := s.walletSvc.Reject(ctx, id, req.Note)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, withdrawal)
	case "mark_paid":
		withdrawal, err := s.walletSvc.MarkPaid(ctx, id, req.Note)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, withdrawal)
	default:
		AbortWithError(c, newValidationError("action", "invalid", "action must be approve, reject or mark_paid"))
	}
}

func (s *Server) GetWithdrawal(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid", "invalid withdrawal id"))
		return
	}

	withdrawal, err := s.walletSvc.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}

func (s *Server) GetWallet(c *gin.Context) {
	businessID, err := snowflake.ParseString(c.Param("business_id"))
	if err != nil {
		AbortWithError(c, newValidationError("business_id", "invalid", "invalid business id"))
		return
	}

	wallet, err := s.walletSvc.Get(c.Request.Context(), businessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

package server

import (
	"net/http"
	"strconv"
	"strings"

	financedomain "github.com/apexmarket/vendora/internal/finance/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListLedger(c *gin.Context) {
	var filter financedomain.ListFilter

	if raw := strings.TrimSpace(c.Query("business_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("business_id", "invalid", "invalid business id"))
			return
		}
		filter.BusinessID = id
	}
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		filter.Type = financedomain.EntryType(raw)
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid", "invalid limit"))
			return
		}
		filter.Limit = limit
	}

	entries, err := s.financeSvc.ListEntries(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) FinanceAggregate(c *gin.Context) {
	aggregate, err := s.financeSvc.Aggregate(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, aggregate)
}

func (s *Server) FinanceReconcile(c *gin.Context) {
	report, err := s.financeSvc.Reconcile(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

package server

import (
	"net/http"
	"strings"

	trustdomain "github.com/apexmarket/vendora/internal/trust/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// TrustRecompute triggers the recompute for one vendor (?business_id=) or for
// every vendor on a plan (?plan=). The response is always an array.
func (s *Server) TrustRecompute(c *gin.Context) {
	rawBusinessID := strings.TrimSpace(c.Query("business_id"))
	planKey := strings.TrimSpace(c.Query("plan"))

	switch {
	case rawBusinessID != "" && planKey != "":
		AbortWithError(c, newValidationError("query", "invalid", "business_id and plan are mutually exclusive"))
	case rawBusinessID != "":
		businessID, err := snowflake.ParseString(rawBusinessID)
		if err != nil {
			AbortWithError(c, newValidationError("business_id", "invalid", "invalid business id"))
			return
		}
		result, err := s.trustSvc.RecomputeBusiness(c.Request.Context(), businessID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": []trustdomain.Result{*result}})
	case planKey != "":
		results, err := s.trustSvc.RecomputePlan(c.Request.Context(), planKey)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	default:
		AbortWithError(c, newValidationError("query", "required", "business_id or plan is required"))
	}
}

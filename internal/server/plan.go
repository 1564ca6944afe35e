package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) ResolvePlan(c *gin.Context) {
	businessID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid", "invalid business id"))
		return
	}

	resolution, err := s.planSvc.Resolve(c.Request.Context(), businessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}

func (s *Server) ListEntitlements(c *gin.Context) {
	businessID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid", "invalid business id"))
		return
	}

	entitlements, err := s.businessRepo.ListEntitlements(c.Request.Context(), s.db, businessID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entitlements": entitlements})
}

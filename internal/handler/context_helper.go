package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hirestack/ats-api/internal/middleware"
	"github.com/hirestack/ats-api/internal/models"
)

// claimsFromContext returns the authenticated claims, or nil when the
// JWT middleware did not run for this route.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Value(middleware.ContextUserKey).(*models.JWTClaims)
	return claims
}

package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/response"
)

// PermissionChecker resolves whether a user may perform an action on a module.
type PermissionChecker interface {
	Check(ctx context.Context, claims *models.JWTClaims, module, action string) (bool, error)
}

// RequirePermission gates a route on a module:action grant. Admins bypass the
// stored permission set entirely; everyone else needs a matching row.
func RequirePermission(checker PermissionChecker, module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowed, err := checker.Check(c.Request.Context(), claims, module, action)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden,
				fmt.Sprintf("missing permission %s:%s", module, action)))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles gates a route on the caller's role. Used for the few endpoints
// whose access is role-shaped rather than module-shaped (e.g. permission
// administration).
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowedRoles[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

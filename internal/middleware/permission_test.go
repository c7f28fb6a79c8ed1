package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/pkg/response"
)

type checkerStub struct {
	allowed bool
	calls   int
}

func (s *checkerStub) Check(ctx context.Context, claims *models.JWTClaims, module, action string) (bool, error) {
	s.calls++
	return s.allowed, nil
}

func permTestContext(t *testing.T, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/tasks", nil)
	require.NoError(t, err)
	c.Request = req
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	return c, w
}

func TestRequirePermissionAllows(t *testing.T) {
	checker := &checkerStub{allowed: true}
	c, _ := permTestContext(t, &models.JWTClaims{UserID: "user-1", Role: models.RoleRecruiter})

	RequirePermission(checker, models.ModuleTasks, models.ActionCreate)(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, 1, checker.calls)
}

func TestRequirePermissionDeniedNamesTheGate(t *testing.T) {
	checker := &checkerStub{allowed: false}
	c, w := permTestContext(t, &models.JWTClaims{UserID: "user-1", Role: models.RoleRecruiter})

	RequirePermission(checker, models.ModuleTasks, models.ActionCreate)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "missing permission tasks:create", envelope.Error.Message)
}

func TestRequirePermissionMissingClaims(t *testing.T) {
	checker := &checkerStub{allowed: true}
	c, w := permTestContext(t, nil)

	RequirePermission(checker, models.ModuleTasks, models.ActionCreate)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, checker.calls)
}

func TestRequireRoles(t *testing.T) {
	c, w := permTestContext(t, &models.JWTClaims{UserID: "user-1", Role: models.RoleRecruiter})
	RequireRoles(models.RoleAdmin)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, _ = permTestContext(t, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	RequireRoles(models.RoleAdmin)(c)
	assert.False(t, c.IsAborted())
}

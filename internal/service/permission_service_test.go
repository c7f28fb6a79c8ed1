package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type permissionRepoStub struct {
	grants        map[string][]models.Permission
	listCalls     int
	replacedWith  []models.Permission
	replacedUser  string
	deletedUserID string
}

func (s *permissionRepoStub) ListByUser(ctx context.Context, userID string) ([]models.Permission, error) {
	s.listCalls++
	return s.grants[userID], nil
}

func (s *permissionRepoStub) Replace(ctx context.Context, userID string, grants []models.Permission) error {
	s.replacedUser = userID
	s.replacedWith = grants
	if s.grants == nil {
		s.grants = map[string][]models.Permission{}
	}
	s.grants[userID] = grants
	return nil
}

func (s *permissionRepoStub) Upsert(ctx context.Context, userID, module string, actions []string) error {
	return nil
}

func (s *permissionRepoStub) DeleteByUser(ctx context.Context, userID string) error {
	s.deletedUserID = userID
	return nil
}

func TestPermissionCheckAdminBypassesStore(t *testing.T) {
	repo := &permissionRepoStub{}
	svc := NewPermissionService(repo, nil, nil, nil)

	ok, err := svc.Check(context.Background(), adminClaims(), models.ModuleSettings, models.ActionDelete)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, repo.listCalls)
}

func TestPermissionCheckNilClaimsDenied(t *testing.T) {
	svc := NewPermissionService(&permissionRepoStub{}, nil, nil, nil)

	ok, err := svc.Check(context.Background(), nil, models.ModuleJobs, models.ActionView)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPermissionCheckRequiresMatchingGrant(t *testing.T) {
	repo := &permissionRepoStub{grants: map[string][]models.Permission{
		"user-1": {
			{UserID: "user-1", Module: models.ModuleCandidates, Actions: []string{models.ActionView, models.ActionEdit}},
		},
	}}
	svc := NewPermissionService(repo, nil, nil, nil)
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleRecruiter}

	ok, err := svc.Check(context.Background(), claims, models.ModuleCandidates, models.ActionEdit)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Check(context.Background(), claims, models.ModuleCandidates, models.ActionDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Check(context.Background(), claims, models.ModuleJobs, models.ActionView)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceRejectsUnknownModule(t *testing.T) {
	svc := NewPermissionService(&permissionRepoStub{}, nil, nil, nil)

	_, err := svc.Replace(context.Background(), adminClaims(), "user-1", UpdatePermissionsRequest{
		Permissions: []PermissionGrant{{Module: "payroll", Actions: []string{models.ActionView}}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "payroll")
}

func TestReplaceRejectsDuplicateModule(t *testing.T) {
	svc := NewPermissionService(&permissionRepoStub{}, nil, nil, nil)

	_, err := svc.Replace(context.Background(), adminClaims(), "user-1", UpdatePermissionsRequest{
		Permissions: []PermissionGrant{
			{Module: models.ModuleJobs, Actions: []string{models.ActionView}},
			{Module: models.ModuleJobs, Actions: []string{models.ActionEdit}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "duplicate module")
}

func TestReplaceStoresGrantsAndAudits(t *testing.T) {
	repo := &permissionRepoStub{}
	audit := &auditRepoStub{}
	svc := NewPermissionService(repo, audit, nil, nil)

	perms, err := svc.Replace(context.Background(), adminClaims(), "user-1", UpdatePermissionsRequest{
		Permissions: []PermissionGrant{
			{Module: models.ModuleTasks, Actions: []string{models.ActionView, models.ActionCreate}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", repo.replacedUser)
	require.Len(t, perms, 1)
	assert.Equal(t, models.ModuleTasks, perms[0].Module)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPermissionChange, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "admin-1", *audit.logs[0].UserID)
}

func TestApplyRoleTemplateCopiesDefaults(t *testing.T) {
	repo := &permissionRepoStub{}
	svc := NewPermissionService(repo, nil, nil, nil)

	require.NoError(t, svc.ApplyRoleTemplate(context.Background(), "user-1", models.RoleInterviewer))
	assert.Equal(t, "user-1", repo.replacedUser)
	assert.Equal(t, RoleTemplate(models.RoleInterviewer), repo.replacedWith)
}

func TestRoleTemplateAdminCoversEverything(t *testing.T) {
	grants := RoleTemplate(models.RoleAdmin)
	require.Len(t, grants, len(models.AllModules))
	for _, g := range grants {
		assert.ElementsMatch(t, models.AllActions, []string(g.Actions))
	}
}

func TestRoleTemplateInterviewerIsNarrow(t *testing.T) {
	grants := RoleTemplate(models.RoleInterviewer)
	require.Len(t, grants, 2)

	byModule := map[string][]string{}
	for _, g := range grants {
		byModule[g.Module] = g.Actions
	}
	assert.Equal(t, []string{models.ActionView}, byModule[models.ModuleCandidates])
	assert.ElementsMatch(t, []string{models.ActionView, models.ActionEdit}, byModule[models.ModuleInterviews])
}

func TestRoleTemplateUnknownRoleHasNoGrants(t *testing.T) {
	assert.Nil(t, RoleTemplate(models.UserRole("Contractor")))
}

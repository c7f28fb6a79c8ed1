package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type permissionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Permission, error)
	Replace(ctx context.Context, userID string, grants []models.Permission) error
	Upsert(ctx context.Context, userID, module string, actions []string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type permissionAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// PermissionGrant is the request/response shape for one module grant.
type PermissionGrant struct {
	Module  string   `json:"module" validate:"required"`
	Actions []string `json:"actions" validate:"required,min=1,dive,oneof=view create edit delete"`
}

// UpdatePermissionsRequest replaces a user's full grant set.
type UpdatePermissionsRequest struct {
	Permissions []PermissionGrant `json:"permissions" validate:"required,dive"`
}

// PermissionService answers module:action checks and manages stored grants.
type PermissionService struct {
	repo      permissionRepository
	audit     permissionAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(repo permissionRepository, audit permissionAuditRepository, validate *validator.Validate, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PermissionService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Check reports whether the caller may perform action on module. Admins pass
// unconditionally; everyone else needs a stored grant covering the action.
func (s *PermissionService) Check(ctx context.Context, claims *models.JWTClaims, module, action string) (bool, error) {
	if claims == nil {
		return false, nil
	}
	if claims.IsAdmin() {
		return true, nil
	}

	perms, err := s.repo.ListByUser(ctx, claims.UserID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
	}
	for i := range perms {
		if perms[i].Module == module && perms[i].Allows(action) {
			return true, nil
		}
	}
	return false, nil
}

// ListByUser returns the stored grant rows for a user.
func (s *PermissionService) ListByUser(ctx context.Context, userID string) ([]models.Permission, error) {
	perms, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permissions")
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	return perms, nil
}

// Replace swaps the user's grant set for the provided one and records an audit
// entry attributed to the acting user.
func (s *PermissionService) Replace(ctx context.Context, actor *models.JWTClaims, userID string, req UpdatePermissionsRequest) ([]models.Permission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permissions payload")
	}

	seen := make(map[string]struct{}, len(req.Permissions))
	grants := make([]models.Permission, 0, len(req.Permissions))
	for _, g := range req.Permissions {
		if !validModule(g.Module) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown module "+g.Module)
		}
		if _, dup := seen[g.Module]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate module "+g.Module)
		}
		seen[g.Module] = struct{}{}
		grants = append(grants, models.Permission{UserID: userID, Module: g.Module, Actions: g.Actions})
	}

	if err := s.repo.Replace(ctx, userID, grants); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store permissions")
	}

	if s.audit != nil && actor != nil {
		payload, _ := json.Marshal(req.Permissions)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionPermissionChange,
			Resource:   "permissions",
			ResourceID: &userID,
			NewValues:  payload,
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("failed to record permission audit log", zap.Error(err))
		}
	}

	return s.ListByUser(ctx, userID)
}

// ApplyRoleTemplate seeds the role's default grants for a newly created user.
// Grants are a copy of the template, not a live view: later role edits never
// rewrite rows created here.
func (s *PermissionService) ApplyRoleTemplate(ctx context.Context, userID string, role models.UserRole) error {
	grants := RoleTemplate(role)
	if err := s.repo.Replace(ctx, userID, grants); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply role template")
	}
	return nil
}

// RemoveUserGrants deletes every grant for the user, used on hard cleanup.
func (s *PermissionService) RemoveUserGrants(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete permissions")
	}
	return nil
}

// RoleTemplate returns the default grant set for a role.
func RoleTemplate(role models.UserRole) []models.Permission {
	switch role {
	case models.RoleAdmin:
		return grantAll(models.AllModules, models.AllActions)
	case models.RoleHRManager:
		grants := grantAll([]string{
			models.ModuleJobs,
			models.ModuleCandidates,
			models.ModuleInterviews,
			models.ModuleAssignments,
			models.ModuleTasks,
			models.ModuleCommunications,
			models.ModuleTemplates,
		}, models.AllActions)
		grants = append(grants,
			grant(models.ModuleUsers, models.ActionView, models.ActionCreate, models.ActionEdit),
			grant(models.ModuleAnalytics, models.ActionView),
		)
		return grants
	case models.RoleTeamLead:
		return []models.Permission{
			grant(models.ModuleJobs, models.ActionView, models.ActionEdit),
			grant(models.ModuleCandidates, models.ActionView, models.ActionEdit),
			grant(models.ModuleInterviews, models.ActionView, models.ActionCreate, models.ActionEdit),
			grant(models.ModuleAssignments, models.ActionView, models.ActionCreate, models.ActionEdit),
			grant(models.ModuleTasks, models.ActionView, models.ActionCreate, models.ActionEdit),
			grant(models.ModuleCommunications, models.ActionView, models.ActionCreate),
			grant(models.ModuleAnalytics, models.ActionView),
		}
	case models.RoleRecruiter:
		return []models.Permission{
			grant(models.ModuleJobs, models.ActionView),
			grant(models.ModuleCandidates, models.ActionView, models.ActionCreate, models.ActionEdit),
			grant(models.ModuleInterviews, models.ActionView, models.ActionCreate),
			grant(models.ModuleCommunications, models.ActionView, models.ActionCreate),
			grant(models.ModuleTemplates, models.ActionView),
		}
	case models.RoleInterviewer:
		return []models.Permission{
			grant(models.ModuleCandidates, models.ActionView),
			grant(models.ModuleInterviews, models.ActionView, models.ActionEdit),
		}
	default:
		return nil
	}
}

func grant(module string, actions ...string) models.Permission {
	return models.Permission{Module: module, Actions: actions}
}

func grantAll(modules []string, actions []string) []models.Permission {
	grants := make([]models.Permission, 0, len(modules))
	for _, m := range modules {
		grants = append(grants, models.Permission{Module: m, Actions: append([]string(nil), actions...)})
	}
	return grants
}

func validModule(module string) bool {
	for _, m := range models.AllModules {
		if m == module {
			return true
		}
	}
	return false
}

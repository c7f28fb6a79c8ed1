package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CountActiveAdmins(ctx context.Context) (int, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type roleTemplateApplier interface {
	ApplyRoleTemplate(ctx context.Context, userID string, role models.UserRole) error
}

func wrapInternal(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// CreateUserRequest is the create-user payload.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3"`
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=Admin 'HR Manager' 'Team Lead' Recruiter Interviewer"`
	Password string          `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest is the update-user payload.
type UpdateUserRequest struct {
	FullName string             `json:"full_name" validate:"required"`
	Email    string             `json:"email" validate:"required,email"`
	Role     models.UserRole    `json:"role" validate:"required,oneof=Admin 'HR Manager' 'Team Lead' Recruiter Interviewer"`
	Status   *models.UserStatus `json:"status" validate:"omitempty,oneof=Active Away Busy inactive"`
}

// UserService manages accounts. Two rules cut across every mutation:
// permission grants are seeded from the role template exactly once at
// creation, and the last active Admin can neither be demoted,
// deactivated, nor deleted.
type UserService struct {
	repo        userRepository
	permissions roleTemplateApplier
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewUserService(repo userRepository, permissions roleTemplateApplier, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, permissions: permissions, validator: validate, logger: logger}
}

// List returns one page of users plus pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, wrapInternal(err, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.loadUser(ctx, id)
}

// Create adds a user with a hashed password and seeds their permission
// rows from the role template.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	email := strings.ToLower(req.Email)
	if err := s.ensureUnique(ctx, email, req.Username); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, wrapInternal(err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		FullName:     req.FullName,
		Role:         req.Role,
		Status:       models.UserStatusActive,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, wrapInternal(err, "failed to create user")
	}

	// One-time copy. Later role edits never rewrite these rows.
	if s.permissions != nil {
		if err := s.permissions.ApplyRoleTemplate(ctx, user.ID, user.Role); err != nil {
			s.logger.Error("failed to apply role template", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	created, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role})
	s.audit(ctx, actorID, models.AuditActionUserCreate, user.ID, nil, created, meta)
	return user, nil
}

// Update rewrites the mutable user fields, guarding the last Admin
// against demotion and deactivation.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actorID string, meta models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}

	deactivating := req.Status != nil && *req.Status == models.UserStatusInactive && user.Status != models.UserStatusInactive
	demoting := user.Role == models.RoleAdmin && req.Role != models.RoleAdmin
	if user.Role == models.RoleAdmin && (deactivating || demoting) {
		if err := s.requireAnotherAdmin(ctx, "cannot remove the last Admin"); err != nil {
			return nil, err
		}
	}

	before, _ := json.Marshal(map[string]interface{}{"role": user.Role, "status": user.Status})

	user.FullName = req.FullName
	user.Email = strings.ToLower(req.Email)
	user.Role = req.Role
	if req.Status != nil {
		user.Status = *req.Status
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, wrapInternal(err, "failed to update user")
	}

	after, _ := json.Marshal(map[string]interface{}{"role": user.Role, "status": user.Status})
	s.audit(ctx, actorID, models.AuditActionUserUpdate, user.ID, before, after, meta)
	return user, nil
}

// Delete soft-deletes a user. The last active Admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == models.RoleAdmin {
		if err := s.requireAnotherAdmin(ctx, "cannot delete the last Admin"); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapInternal(err, "failed to delete user")
	}

	before, _ := json.Marshal(map[string]interface{}{"status": user.Status})
	after, _ := json.Marshal(map[string]interface{}{"status": models.UserStatusInactive})
	s.audit(ctx, actorID, models.AuditActionUserDelete, user.ID, before, after, meta)
	return nil
}

// requireAnotherAdmin enforces the "at least one Admin must remain"
// invariant before demoting, deactivating, or deleting an Admin.
func (s *UserService) requireAnotherAdmin(ctx context.Context, message string) error {
	count, err := s.repo.CountActiveAdmins(ctx)
	if err != nil {
		return wrapInternal(err, "failed to count active admins")
	}
	if count <= 1 {
		return appErrors.Clone(appErrors.ErrConflict, message)
	}
	return nil
}

func (s *UserService) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, wrapInternal(err, "failed to load user")
	}
	return user, nil
}

func (s *UserService) ensureUnique(ctx context.Context, email, username string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return wrapInternal(err, "failed to check email uniqueness")
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return wrapInternal(err, "failed to check username uniqueness")
	}
	return nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues []byte, meta models.LoginRequest) {
	err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	if err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

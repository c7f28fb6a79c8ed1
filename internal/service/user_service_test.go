package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type userRepoStub struct {
	byID        map[string]*models.User
	byEmail     map[string]*models.User
	byUsername  map[string]*models.User
	adminCount  int
	created     []*models.User
	updated     []*models.User
	deleted     []string
	auditLogged []*models.AuditLog
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		byID:       map[string]*models.User{},
		byEmail:    map[string]*models.User{},
		byUsername: map[string]*models.User{},
		adminCount: 2,
	}
}

func (s *userRepoStub) add(u *models.User) {
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u
	s.byUsername[u.Username] = u
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := s.byUsername[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.created = append(s.created, user)
	s.add(user)
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	s.updated = append(s.updated, user)
	return nil
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *userRepoStub) CountActiveAdmins(ctx context.Context) (int, error) {
	return s.adminCount, nil
}

func (s *userRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.auditLogged = append(s.auditLogged, log)
	return nil
}

type roleTemplateApplierStub struct {
	applied map[string]models.UserRole
}

func (s *roleTemplateApplierStub) ApplyRoleTemplate(ctx context.Context, userID string, role models.UserRole) error {
	if s.applied == nil {
		s.applied = map[string]models.UserRole{}
	}
	s.applied[userID] = role
	return nil
}

func createUserRequest() CreateUserRequest {
	return CreateUserRequest{
		Username: "dana.w",
		Email:    "Dana@Example.com",
		FullName: "Dana W",
		Role:     models.RoleRecruiter,
		Password: "s3cret!",
	}
}

func TestUserCreateSeedsRoleTemplate(t *testing.T) {
	repo := newUserRepoStub()
	perms := &roleTemplateApplierStub{}
	svc := NewUserService(repo, perms, nil, nil)

	user, err := svc.Create(context.Background(), createUserRequest(), "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret!")))
	assert.Equal(t, models.RoleRecruiter, perms.applied[user.ID])

	require.Len(t, repo.auditLogged, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogged[0].Action)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	repo.add(&models.User{ID: "user-1", Email: "dana@example.com", Username: "taken"})
	svc := NewUserService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), createUserRequest(), "admin-1", models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "email")
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	repo := newUserRepoStub()
	repo.add(&models.User{ID: "user-1", Email: "other@example.com", Username: "dana.w"})
	svc := NewUserService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), createUserRequest(), "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "username")
}

func TestUserUpdateBlocksDemotingLastAdmin(t *testing.T) {
	repo := newUserRepoStub()
	repo.adminCount = 1
	repo.add(&models.User{ID: "admin-1", Email: "admin@example.com", Username: "admin", Role: models.RoleAdmin, Status: models.UserStatusActive})
	svc := NewUserService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), "admin-1", UpdateUserRequest{
		FullName: "Admin",
		Email:    "admin@example.com",
		Role:     models.RoleRecruiter,
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.updated)
}

func TestUserUpdateBlocksDeactivatingLastAdmin(t *testing.T) {
	repo := newUserRepoStub()
	repo.adminCount = 1
	repo.add(&models.User{ID: "admin-1", Email: "admin@example.com", Username: "admin", Role: models.RoleAdmin, Status: models.UserStatusActive})
	svc := NewUserService(repo, nil, nil, nil)

	inactive := models.UserStatusInactive
	_, err := svc.Update(context.Background(), "admin-1", UpdateUserRequest{
		FullName: "Admin",
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
		Status:   &inactive,
	}, "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateAllowsDemotionWithAnotherAdmin(t *testing.T) {
	repo := newUserRepoStub()
	repo.adminCount = 2
	repo.add(&models.User{ID: "admin-1", Email: "admin@example.com", Username: "admin", Role: models.RoleAdmin, Status: models.UserStatusActive})
	svc := NewUserService(repo, nil, nil, nil)

	user, err := svc.Update(context.Background(), "admin-1", UpdateUserRequest{
		FullName: "Admin",
		Email:    "admin@example.com",
		Role:     models.RoleTeamLead,
	}, "admin-2", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeamLead, user.Role)
}

func TestUserDeleteBlocksLastAdmin(t *testing.T) {
	repo := newUserRepoStub()
	repo.adminCount = 1
	repo.add(&models.User{ID: "admin-1", Email: "admin@example.com", Username: "admin", Role: models.RoleAdmin, Status: models.UserStatusActive})
	svc := NewUserService(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "admin-1", "admin-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestUserDeleteSoftDeletesAndAudits(t *testing.T) {
	repo := newUserRepoStub()
	repo.add(&models.User{ID: "user-1", Email: "dana@example.com", Username: "dana.w", Role: models.RoleRecruiter, Status: models.UserStatusActive})
	svc := NewUserService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "admin-1", models.LoginRequest{}))
	assert.Equal(t, []string{"user-1"}, repo.deleted)
	require.Len(t, repo.auditLogged, 1)
	assert.Equal(t, models.AuditActionUserDelete, repo.auditLogged[0].Action)
}

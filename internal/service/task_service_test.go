package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/mailer"
)

type taskRepoStub struct {
	items   map[string]*models.Task
	deleted []string
}

func (s *taskRepoStub) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if t, ok := s.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *taskRepoStub) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	return nil, 0, nil
}

func (s *taskRepoStub) Create(ctx context.Context, task *models.Task) error {
	task.ID = "task-new"
	return nil
}

func (s *taskRepoStub) Update(ctx context.Context, task *models.Task) error {
	s.items[task.ID] = task
	return nil
}

func (s *taskRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type taskUserStub struct {
	users map[string]*models.User
}

func (s *taskUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func newTaskFixture() (*TaskService, *taskRepoStub, *taskUserStub, *recordingMailer) {
	repo := &taskRepoStub{items: map[string]*models.Task{}}
	users := &taskUserStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "robin@example.com", FullName: "Robin"},
	}}
	mail := &recordingMailer{receipt: mailer.Receipt{Success: true, MessageID: "msg-1"}}
	return NewTaskService(repo, users, mail, nil, nil), repo, users, mail
}

func strptr(s string) *string { return &s }

func TestTaskCreateNotifiesAssigneeForManagers(t *testing.T) {
	svc, _, _, mail := newTaskFixture()

	manager := &models.JWTClaims{UserID: "hr-1", Role: models.RoleHRManager}
	result, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:      "Screen applicants",
		AssignedTo: strptr("user-1"),
		Priority:   models.TaskPriorityHigh,
	}, manager)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, result.Task.Status)
	assert.Equal(t, "hr-1", result.Task.CreatedBy)

	require.NotNil(t, result.EmailNotification)
	assert.True(t, result.EmailNotification.Success)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "robin@example.com", mail.sent[0].To)
}

func TestTaskCreateNonManagerSkipsNotification(t *testing.T) {
	svc, _, _, mail := newTaskFixture()

	recruiter := &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter}
	result, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:      "Follow up",
		AssignedTo: strptr("user-1"),
		Priority:   models.TaskPriorityMedium,
	}, recruiter)
	require.NoError(t, err)
	assert.Nil(t, result.EmailNotification)
	assert.Empty(t, mail.sent)
}

func TestTaskCreateUnassignedSkipsNotification(t *testing.T) {
	svc, _, _, mail := newTaskFixture()

	result, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:    "Tidy job board",
		Priority: models.TaskPriorityLow,
	}, adminClaims())
	require.NoError(t, err)
	assert.Nil(t, result.EmailNotification)
	assert.Empty(t, mail.sent)
}

func TestTaskCreateUnknownAssigneeWarnsInReceipt(t *testing.T) {
	svc, _, _, mail := newTaskFixture()

	result, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:      "Prep offer letter",
		AssignedTo: strptr("ghost"),
		Priority:   models.TaskPriorityHigh,
	}, adminClaims())
	require.NoError(t, err)
	require.NotNil(t, result.EmailNotification)
	assert.False(t, result.EmailNotification.Success)
	assert.Equal(t, "assignee not found", result.EmailNotification.Warning)
	assert.Empty(t, mail.sent)
}

func TestTaskCreateAssigneeWithoutEmailWarnsInReceipt(t *testing.T) {
	svc, _, users, mail := newTaskFixture()
	users.users["user-1"].Email = ""

	result, err := svc.Create(context.Background(), CreateTaskRequest{
		Title:      "Book interview room",
		AssignedTo: strptr("user-1"),
		Priority:   models.TaskPriorityMedium,
	}, adminClaims())
	require.NoError(t, err)
	require.NotNil(t, result.EmailNotification)
	assert.False(t, result.EmailNotification.Success)
	assert.Equal(t, "assignee has no email address", result.EmailNotification.Warning)
	assert.Empty(t, mail.sent)
}

func TestTaskUpdateAccessControl(t *testing.T) {
	svc, repo, _, _ := newTaskFixture()
	repo.items["task-1"] = &models.Task{
		ID:         "task-1",
		Title:      "Review resumes",
		AssignedTo: strptr("user-1"),
		CreatedBy:  "creator-1",
		Priority:   models.TaskPriorityMedium,
		Status:     models.TaskStatusPending,
	}

	req := UpdateTaskRequest{
		Title:    "Review resumes",
		Priority: models.TaskPriorityMedium,
		Status:   models.TaskStatusCompleted,
	}

	stranger := &models.JWTClaims{UserID: "stranger-1", Role: models.RoleRecruiter}
	_, err := svc.Update(context.Background(), "task-1", req, stranger)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	assignee := &models.JWTClaims{UserID: "user-1", Role: models.RoleRecruiter}
	task, err := svc.Update(context.Background(), "task-1", req, assignee)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestTaskDeleteByCreator(t *testing.T) {
	svc, repo, _, _ := newTaskFixture()
	repo.items["task-1"] = &models.Task{
		ID:        "task-1",
		Title:     "Send rejection emails",
		CreatedBy: "creator-1",
		Priority:  models.TaskPriorityLow,
		Status:    models.TaskStatusPending,
	}

	creator := &models.JWTClaims{UserID: "creator-1", Role: models.RoleRecruiter}
	require.NoError(t, svc.Delete(context.Background(), "task-1", creator))
	assert.Equal(t, []string{"task-1"}, repo.deleted)
}

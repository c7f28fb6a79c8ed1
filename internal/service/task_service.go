package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/mailer"
)

type taskRepository interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type taskUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description"`
	AssignedTo  *string             `json:"assigned_to"`
	Priority    models.TaskPriority `json:"priority" validate:"required,oneof=High Medium Low"`
	DueDate     *time.Time          `json:"due_date"`
}

// UpdateTaskRequest updates a task.
type UpdateTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description"`
	AssignedTo  *string             `json:"assigned_to"`
	Priority    models.TaskPriority `json:"priority" validate:"required,oneof=High Medium Low"`
	Status      models.TaskStatus   `json:"status" validate:"required,oneof=Pending 'In Progress' Completed"`
	DueDate     *time.Time          `json:"due_date"`
}

// TaskService manages internal tasks and assignee notifications.
type TaskService struct {
	repo      taskRepository
	users     taskUserRepository
	mail      mailer.Mailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskRepository, users taskUserRepository, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if mail == nil {
		mail = mailer.Nop{}
	}
	return &TaskService{repo: repo, users: users, mail: mail, validator: validate, logger: logger}
}

// List returns paginated tasks.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return tasks, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create stores a new task. When an Admin or HR Manager assigns it to someone,
// the assignee gets a best-effort email; the outcome rides along in the result
// and a delivery failure never fails the creation.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest, actor *models.JWTClaims) (*models.TaskCreateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
		Status:      models.TaskStatusPending,
		DueDate:     req.DueDate,
		CreatedBy:   actorUserID(actor),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	result := &models.TaskCreateResult{Task: task}
	if actor != nil && actor.IsManager() && req.AssignedTo != nil && *req.AssignedTo != "" {
		receipt := s.notifyAssignee(ctx, task, *req.AssignedTo)
		result.EmailNotification = &receipt
	}

	return result, nil
}

// Update modifies a task. Only the assignee, Admin, or HR Manager may.
func (s *TaskService) Update(ctx context.Context, id string, req UpdateTaskRequest, actor *models.JWTClaims) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireTaskAccess(actor, task); err != nil {
		return nil, err
	}

	task.Title = req.Title
	task.Description = req.Description
	task.AssignedTo = req.AssignedTo
	task.Priority = req.Priority
	task.Status = req.Status
	task.DueDate = req.DueDate

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task. Only the assignee, Admin, or HR Manager may.
func (s *TaskService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := requireTaskAccess(actor, task); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

func (s *TaskService) notifyAssignee(ctx context.Context, task *models.Task, assigneeID string) mailer.Receipt {
	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mailer.Receipt{Success: false, Warning: "assignee not found"}
		}
		return mailer.Receipt{Success: false, Warning: fmt.Sprintf("could not resolve assignee: %v", err)}
	}
	if assignee.Email == "" {
		return mailer.Receipt{Success: false, Warning: "assignee has no email address"}
	}

	due := "no due date"
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02")
	}
	return s.mail.SendTemplate(assignee.Email,
		"New task: {{title}}",
		"<p>Hi {{name}},</p><p>You have been assigned a new task: <b>{{title}}</b> (priority {{priority}}, due {{due}}).</p><p>{{description}}</p>",
		map[string]string{
			"name":        assignee.FullName,
			"title":       task.Title,
			"priority":    string(task.Priority),
			"due":         due,
			"description": task.Description,
		})
}

func requireTaskAccess(actor *models.JWTClaims, task *models.Task) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if actor.IsManager() {
		return nil
	}
	if task.AssignedTo != nil && *task.AssignedTo == actor.UserID {
		return nil
	}
	if task.CreatedBy == actor.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the assignee, creator, Admin, or HR Manager may modify this task")
}

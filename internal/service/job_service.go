package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type jobRepository interface {
	FindByID(ctx context.Context, id string) (*models.JobPosting, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error)
	Create(ctx context.Context, job *models.JobPosting) error
	Update(ctx context.Context, job *models.JobPosting) error
	Delete(ctx context.Context, id string) error
}

// JobRequest creates or updates a job posting.
type JobRequest struct {
	Title           string             `json:"title" validate:"required"`
	Department      string             `json:"department" validate:"required"`
	Location        string             `json:"location"`
	JobType         string             `json:"job_type"`
	Status          models.JobStatus   `json:"status" validate:"required,oneof=Active Paused Closed"`
	Deadline        *time.Time         `json:"deadline"`
	Requirements    []string           `json:"requirements"`
	Portals         []models.JobPortal `json:"portals"`
	AssignedUserIDs []string           `json:"assigned_user_ids"`
}

// JobService manages job postings.
type JobService struct {
	repo      jobRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewJobService constructs a JobService.
func NewJobService(repo jobRepository, validate *validator.Validate, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JobService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated job postings.
func (s *JobService) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, *models.Pagination, error) {
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return jobs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a job posting by ID.
func (s *JobService) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

// Create stores a new job posting.
func (s *JobService) Create(ctx context.Context, req JobRequest, actorID string) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}

	job := &models.JobPosting{
		Title:           req.Title,
		Department:      req.Department,
		Location:        req.Location,
		JobType:         req.JobType,
		Status:          req.Status,
		PostedDate:      time.Now().UTC(),
		Deadline:        req.Deadline,
		Requirements:    req.Requirements,
		Portals:         req.Portals,
		AssignedUserIDs: req.AssignedUserIDs,
		CreatedBy:       actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job")
	}
	return job, nil
}

// Update modifies a job posting.
func (s *JobService) Update(ctx context.Context, id string, req JobRequest) (*models.JobPosting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	job.Title = req.Title
	job.Department = req.Department
	job.Location = req.Location
	job.JobType = req.JobType
	job.Status = req.Status
	job.Deadline = req.Deadline
	job.Requirements = req.Requirements
	job.Portals = req.Portals
	job.AssignedUserIDs = req.AssignedUserIDs

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update job")
	}
	return job, nil
}

// Delete removes a job posting.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete job")
	}
	return nil
}

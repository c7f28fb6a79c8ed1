package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type communicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Communication, error)
	List(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, int, error)
	Create(ctx context.Context, comm *models.Communication) error
	Update(ctx context.Context, comm *models.Communication) error
	Delete(ctx context.Context, id string) error
}

// CommunicationRequest creates or updates a candidate touchpoint log entry.
type CommunicationRequest struct {
	CandidateID string                     `json:"candidate_id" validate:"required"`
	Type        models.CommunicationType   `json:"type" validate:"required,oneof=Email Phone WhatsApp LinkedIn"`
	Subject     string                     `json:"subject" validate:"required"`
	Content     string                     `json:"content"`
	Status      models.CommunicationStatus `json:"status" validate:"required,oneof=Sent Received Pending Delivered Read Replied Failed"`
}

// CommunicationService manages the candidate touchpoint log.
type CommunicationService struct {
	repo      communicationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommunicationService constructs a CommunicationService.
func NewCommunicationService(repo communicationRepository, validate *validator.Validate, logger *zap.Logger) *CommunicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommunicationService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated communications.
func (s *CommunicationService) List(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, *models.Pagination, error) {
	comms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list communications")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return comms, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a communication by ID.
func (s *CommunicationService) Get(ctx context.Context, id string) (*models.Communication, error) {
	comm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "communication not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load communication")
	}
	return comm, nil
}

// Create logs a new touchpoint authored by the caller.
func (s *CommunicationService) Create(ctx context.Context, req CommunicationRequest, actor *models.JWTClaims) (*models.Communication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid communication payload")
	}

	comm := &models.Communication{
		CandidateID: req.CandidateID,
		Type:        req.Type,
		Subject:     req.Subject,
		Content:     req.Content,
		Status:      req.Status,
		CreatedBy:   actorUserID(actor),
	}
	if err := s.repo.Create(ctx, comm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create communication")
	}
	return comm, nil
}

// Update edits a touchpoint. Only the author, Admin, or HR Manager may.
func (s *CommunicationService) Update(ctx context.Context, id string, req CommunicationRequest, actor *models.JWTClaims) (*models.Communication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid communication payload")
	}

	comm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || (!actor.IsManager() && actor.UserID != comm.CreatedBy) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author, Admin, or HR Manager may edit this communication")
	}

	comm.Type = req.Type
	comm.Subject = req.Subject
	comm.Content = req.Content
	comm.Status = req.Status

	if err := s.repo.Update(ctx, comm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update communication")
	}
	return comm, nil
}

// Delete removes a touchpoint. Only the author or an Admin may.
func (s *CommunicationService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	comm, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil || (!actor.IsAdmin() && actor.UserID != comm.CreatedBy) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author or Admin may delete this communication")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete communication")
	}
	return nil
}

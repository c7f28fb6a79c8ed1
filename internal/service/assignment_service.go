package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/mailer"
)

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	UpdateStatus(ctx context.Context, assignmentID, candidateID string, status models.AssignmentStatus, sentAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type assignmentCandidateRepository interface {
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
}

type assignmentCommunicationRepository interface {
	Create(ctx context.Context, comm *models.Communication) error
}

type assignmentAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAssignmentRequest is the payload for creating an assignment. New
// assignments always start in Draft.
type CreateAssignmentRequest struct {
	CandidateID     string                        `json:"candidate_id" validate:"required"`
	JobID           *string                       `json:"job_id"`
	Title           string                        `json:"title" validate:"required"`
	DescriptionHTML string                        `json:"description_html"`
	DueDate         *time.Time                    `json:"due_date"`
	Attachments     []models.AssignmentAttachment `json:"attachments"`
}

// UpdateAssignmentRequest updates content fields only. Status moves through
// UpdateStatus or Send.
type UpdateAssignmentRequest struct {
	Title           string                        `json:"title" validate:"required"`
	DescriptionHTML string                        `json:"description_html"`
	DueDate         *time.Time                    `json:"due_date"`
	JobID           *string                       `json:"job_id"`
	Attachments     []models.AssignmentAttachment `json:"attachments"`
}

// UpdateAssignmentStatusRequest moves the assignment through its workflow.
type UpdateAssignmentStatusRequest struct {
	Status models.AssignmentStatus `json:"status" validate:"required"`
}

// AssignmentSendResult pairs the sent assignment with the outcome of the
// candidate notification.
type AssignmentSendResult struct {
	Assignment        *models.Assignment `json:"assignment"`
	EmailNotification *mailer.Receipt    `json:"emailNotification"`
}

// AssignmentService coordinates the assignment workflow and its candidate
// status mirror.
type AssignmentService struct {
	repo       assignmentRepository
	candidates assignmentCandidateRepository
	comms      assignmentCommunicationRepository
	audit      assignmentAuditRepository
	mail       mailer.Mailer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, candidates assignmentCandidateRepository, comms assignmentCommunicationRepository, audit assignmentAuditRepository, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if mail == nil {
		mail = mailer.Nop{}
	}
	return &AssignmentService{repo: repo, candidates: candidates, comms: comms, audit: audit, mail: mail, validator: validate, logger: logger}
}

// List returns paginated assignments.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return assignments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns an assignment by ID.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create stores a new assignment in Draft.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest, actorID string) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.candidates.FindByID(ctx, req.CandidateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}

	assignment := &models.Assignment{
		CandidateID:     req.CandidateID,
		JobID:           req.JobID,
		AssignedBy:      actorID,
		Title:           req.Title,
		DescriptionHTML: req.DescriptionHTML,
		DueDate:         req.DueDate,
		Status:          models.AssignmentStatusDraft,
		Attachments:     req.Attachments,
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Update modifies content fields of an assignment.
func (s *AssignmentService) Update(ctx context.Context, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignment.Title = req.Title
	assignment.DescriptionHTML = req.DescriptionHTML
	assignment.DueDate = req.DueDate
	assignment.JobID = req.JobID
	assignment.Attachments = req.Attachments

	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// UpdateStatus applies a workflow transition. Once an assignment has left
// Draft it can never return, no matter who asks. Every accepted non-Draft
// transition also writes the candidate's in_house_assignment_status mirror in
// the same transaction.
func (s *AssignmentService) UpdateStatus(ctx context.Context, id string, req UpdateAssignmentStatusRequest, actor *models.JWTClaims) (*models.Assignment, error) {
	if !models.ValidAssignmentStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assignment status %q", req.Status))
	}

	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status == models.AssignmentStatusDraft && assignment.Status != models.AssignmentStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment cannot return to Draft")
	}

	if err := s.repo.UpdateStatus(ctx, assignment.ID, assignment.CandidateID, req.Status, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment status")
	}

	oldStatus := assignment.Status
	assignment.Status = req.Status
	s.recordStatusAudit(ctx, actor, assignment, oldStatus, models.AuditActionAssignmentStatus)

	return assignment, nil
}

// Send delivers the assignment to the candidate by email. The candidate must
// have an email address and the assignment must carry content. A Draft
// assignment transitions to Assigned; delivery failure is reported in the
// receipt and never rolls anything back.
func (s *AssignmentService) Send(ctx context.Context, id string, actor *models.JWTClaims) (*AssignmentSendResult, error) {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate, err := s.candidates.FindByID(ctx, assignment.CandidateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}

	if candidate.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "candidate has no email address")
	}
	if !assignment.Sendable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment needs a description or at least one attachment")
	}

	receipt := s.mail.Send(mailer.Message{
		To:      candidate.Email,
		Subject: fmt.Sprintf("Assignment: %s", assignment.Title),
		HTML:    assignment.DescriptionHTML,
	})

	now := time.Now().UTC()
	if assignment.Status == models.AssignmentStatusDraft {
		if err := s.repo.UpdateStatus(ctx, assignment.ID, assignment.CandidateID, models.AssignmentStatusAssigned, &now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark assignment as assigned")
		}
		oldStatus := assignment.Status
		assignment.Status = models.AssignmentStatusAssigned
		assignment.SentAt = &now
		s.recordStatusAudit(ctx, actor, assignment, oldStatus, models.AuditActionAssignmentSend)
	}

	if receipt.Success && s.comms != nil {
		comm := &models.Communication{
			CandidateID: assignment.CandidateID,
			Type:        models.CommunicationEmail,
			Subject:     fmt.Sprintf("Assignment: %s", assignment.Title),
			Content:     assignment.DescriptionHTML,
			Status:      models.CommunicationStatusSent,
			CreatedBy:   actorUserID(actor),
		}
		if err := s.comms.Create(ctx, comm); err != nil {
			s.logger.Warn("failed to log assignment communication", zap.String("assignment_id", assignment.ID), zap.Error(err))
		}
	}

	return &AssignmentSendResult{Assignment: assignment, EmailNotification: &receipt}, nil
}

// AddAttachment appends an already-stored file to the assignment.
func (s *AssignmentService) AddAttachment(ctx context.Context, id string, attachment models.AssignmentAttachment) (*models.Assignment, error) {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignment.Attachments = append(assignment.Attachments, attachment)
	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach file")
	}
	return assignment, nil
}

// Delete removes an assignment, allowed only while still in Draft.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	assignment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if assignment.Status != models.AssignmentStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only Draft assignments can be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) recordStatusAudit(ctx context.Context, actor *models.JWTClaims, assignment *models.Assignment, oldStatus models.AssignmentStatus, action string) {
	if s.audit == nil {
		return
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"status": oldStatus})
	newPayload, _ := json.Marshal(map[string]interface{}{"status": assignment.Status})
	var userID *string
	if actor != nil {
		userID = &actor.UserID
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   "assignments",
		ResourceID: &assignment.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}); err != nil {
		s.logger.Warn("failed to record assignment audit log", zap.Error(err))
	}
}

func actorUserID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}

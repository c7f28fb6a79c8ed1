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

type interviewRepository interface {
	FindByID(ctx context.Context, id string) (*models.Interview, error)
	CountOverlapping(ctx context.Context, interviewerID string, start, end time.Time, excludeID string) (int, error)
	List(ctx context.Context, filter models.InterviewFilter) ([]models.Interview, int, error)
	Create(ctx context.Context, interview *models.Interview) error
	Update(ctx context.Context, interview *models.Interview) error
	Delete(ctx context.Context, id string) error
	FindFeedback(ctx context.Context, interviewID string) (*models.InterviewFeedback, error)
	CreateFeedback(ctx context.Context, feedback *models.InterviewFeedback) error
}

// ScheduleInterviewRequest books an interview slot.
type ScheduleInterviewRequest struct {
	CandidateID   string               `json:"candidate_id" validate:"required"`
	InterviewerID string               `json:"interviewer_id" validate:"required"`
	ScheduledDate time.Time            `json:"scheduled_date" validate:"required"`
	DurationMins  int                  `json:"duration_mins" validate:"required,min=1"`
	Type          models.InterviewType `json:"type" validate:"required,oneof=Technical HR Managerial Final"`
	Round         int                  `json:"round" validate:"min=0"`
	Location      string               `json:"location"`
}

// UpdateInterviewRequest reschedules or edits an interview.
type UpdateInterviewRequest struct {
	InterviewerID string               `json:"interviewer_id" validate:"required"`
	ScheduledDate time.Time            `json:"scheduled_date" validate:"required"`
	DurationMins  int                  `json:"duration_mins" validate:"required,min=1"`
	Type          models.InterviewType `json:"type" validate:"required,oneof=Technical HR Managerial Final"`
	Round         int                  `json:"round" validate:"min=0"`
	Location      string               `json:"location"`
}

// UpdateInterviewStatusRequest changes the interview status.
type UpdateInterviewStatusRequest struct {
	Status models.InterviewStatus `json:"status" validate:"required"`
}

// CreateFeedbackRequest submits the one-time review of a Completed interview.
type CreateFeedbackRequest struct {
	Rating         float64 `json:"rating" validate:"min=0,max=5"`
	Strengths      string  `json:"strengths"`
	Weaknesses     string  `json:"weaknesses"`
	Recommendation string  `json:"recommendation"`
	Comments       string  `json:"comments"`
}

// InterviewService schedules interviews and gates feedback submission.
type InterviewService struct {
	repo      interviewRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInterviewService constructs an InterviewService.
func NewInterviewService(repo interviewRepository, validate *validator.Validate, logger *zap.Logger) *InterviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InterviewService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated interviews.
func (s *InterviewService) List(ctx context.Context, filter models.InterviewFilter) ([]models.Interview, *models.Pagination, error) {
	interviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interviews")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return interviews, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns an interview by ID.
func (s *InterviewService) Get(ctx context.Context, id string) (*models.Interview, error) {
	interview, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "interview not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interview")
	}
	return interview, nil
}

// Schedule books an interview after checking the interviewer's calendar. Two
// Scheduled interviews for the same interviewer may never overlap.
func (s *InterviewService) Schedule(ctx context.Context, req ScheduleInterviewRequest, actorID string) (*models.Interview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interview payload")
	}

	if err := s.ensureSlotFree(ctx, req.InterviewerID, req.ScheduledDate, req.DurationMins, ""); err != nil {
		return nil, err
	}

	interview := &models.Interview{
		CandidateID:   req.CandidateID,
		InterviewerID: req.InterviewerID,
		ScheduledDate: req.ScheduledDate,
		DurationMins:  req.DurationMins,
		Type:          req.Type,
		Status:        models.InterviewStatusScheduled,
		Round:         req.Round,
		Location:      req.Location,
		CreatedBy:     actorID,
	}

	if err := s.repo.Create(ctx, interview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create interview")
	}
	return interview, nil
}

// Update reschedules or edits an interview, re-running the overlap check when
// the interview is (or stays) Scheduled.
func (s *InterviewService) Update(ctx context.Context, id string, req UpdateInterviewRequest) (*models.Interview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interview payload")
	}

	interview, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if interview.Status == models.InterviewStatusScheduled {
		if err := s.ensureSlotFree(ctx, req.InterviewerID, req.ScheduledDate, req.DurationMins, interview.ID); err != nil {
			return nil, err
		}
	}

	interview.InterviewerID = req.InterviewerID
	interview.ScheduledDate = req.ScheduledDate
	interview.DurationMins = req.DurationMins
	interview.Type = req.Type
	interview.Round = req.Round
	interview.Location = req.Location

	if err := s.repo.Update(ctx, interview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update interview")
	}
	return interview, nil
}

// UpdateStatus changes the interview status. Only the assigned interviewer,
// an Admin, or an HR Manager may do so. The candidate's funnel stage is never
// touched here; stage moves are always explicit.
func (s *InterviewService) UpdateStatus(ctx context.Context, id string, req UpdateInterviewStatusRequest, actor *models.JWTClaims) (*models.Interview, error) {
	if !models.ValidInterviewStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown interview status")
	}

	interview, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor == nil || (!actor.IsManager() && actor.UserID != interview.InterviewerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned interviewer, Admin, or HR Manager may change interview status")
	}

	if req.Status == models.InterviewStatusScheduled && interview.Status != models.InterviewStatusScheduled {
		if err := s.ensureSlotFree(ctx, interview.InterviewerID, interview.ScheduledDate, interview.DurationMins, interview.ID); err != nil {
			return nil, err
		}
	}

	interview.Status = req.Status
	if err := s.repo.Update(ctx, interview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update interview status")
	}
	return interview, nil
}

// Delete removes an interview.
func (s *InterviewService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete interview")
	}
	return nil
}

// GetFeedback returns the feedback for an interview.
func (s *InterviewService) GetFeedback(ctx context.Context, interviewID string) (*models.InterviewFeedback, error) {
	feedback, err := s.repo.FindFeedback(ctx, interviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	return feedback, nil
}

// CreateFeedback stores the single immutable feedback record for a Completed
// interview. Only the assigned interviewer or an Admin may submit it.
func (s *InterviewService) CreateFeedback(ctx context.Context, interviewID string, req CreateFeedbackRequest, actor *models.JWTClaims) (*models.InterviewFeedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	interview, err := s.Get(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	if interview.Status != models.InterviewStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback requires a Completed interview")
	}

	if actor == nil || (!actor.IsAdmin() && actor.UserID != interview.InterviewerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned interviewer or Admin may submit feedback")
	}

	if _, err := s.repo.FindFeedback(ctx, interviewID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback already exists for this interview")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing feedback")
	}

	feedback := &models.InterviewFeedback{
		InterviewID:    interviewID,
		InterviewerID:  interview.InterviewerID,
		Rating:         req.Rating,
		Strengths:      req.Strengths,
		Weaknesses:     req.Weaknesses,
		Recommendation: req.Recommendation,
		Comments:       req.Comments,
	}

	if err := s.repo.CreateFeedback(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	return feedback, nil
}

func (s *InterviewService) ensureSlotFree(ctx context.Context, interviewerID string, start time.Time, durationMins int, excludeID string) error {
	end := start.Add(time.Duration(durationMins) * time.Minute)
	count, err := s.repo.CountOverlapping(ctx, interviewerID, start, end, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check interviewer calendar")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrSchedulingConflict, "scheduling conflict: interviewer already booked in this window")
	}
	return nil
}

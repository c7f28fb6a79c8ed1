package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type candidateRepository interface {
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error)
	Create(ctx context.Context, candidate *models.Candidate) error
	Update(ctx context.Context, candidate *models.Candidate) error
	UpdateStage(ctx context.Context, id string, stage models.CandidateStage) error
	Delete(ctx context.Context, id string) error
	ListNotes(ctx context.Context, candidateID string) ([]models.CandidateNote, error)
	FindNote(ctx context.Context, id string) (*models.CandidateNote, error)
	CreateNote(ctx context.Context, note *models.CandidateNote) error
	UpdateNote(ctx context.Context, note *models.CandidateNote) error
	DeleteNote(ctx context.Context, id string) error
	ListRatings(ctx context.Context, candidateID string) ([]models.CandidateRating, error)
	FindRating(ctx context.Context, id string) (*models.CandidateRating, error)
	CountRatings(ctx context.Context, candidateID, authorID, ratingType string) (int, error)
	CreateRating(ctx context.Context, rating *models.CandidateRating) error
	UpdateRating(ctx context.Context, rating *models.CandidateRating) error
	DeleteRating(ctx context.Context, id string) error
}

type candidateAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateCandidateRequest is the payload for adding a candidate.
type CreateCandidateRequest struct {
	Name             string     `json:"name" validate:"required"`
	Email            string     `json:"email" validate:"required,email"`
	Phone            string     `json:"phone"`
	JobID            *string    `json:"job_id"`
	Position         string     `json:"position"`
	Source           string     `json:"source"`
	AppliedDate      *time.Time `json:"applied_date"`
	AssignedTo       *string    `json:"assigned_to"`
	Skills           []string   `json:"skills"`
	ExpectedSalary   *int64     `json:"expected_salary"`
	NoticePeriodDays *int       `json:"notice_period_days"`
	WorkPreference   string     `json:"work_preference"`
}

// UpdateCandidateRequest updates candidate profile fields. Stage moves go
// through UpdateStage.
type UpdateCandidateRequest struct {
	Name             string     `json:"name" validate:"required"`
	Email            string     `json:"email" validate:"required,email"`
	Phone            string     `json:"phone"`
	JobID            *string    `json:"job_id"`
	Position         string     `json:"position"`
	Source           string     `json:"source"`
	Score            float64    `json:"score"`
	AssignedTo       *string    `json:"assigned_to"`
	Skills           []string   `json:"skills"`
	ExpectedSalary   *int64     `json:"expected_salary"`
	NoticePeriodDays *int       `json:"notice_period_days"`
	WorkPreference   string     `json:"work_preference"`
	InterviewerID    *string    `json:"interviewer_id"`
	InterviewDate    *time.Time `json:"interview_date"`
}

// UpdateStageRequest moves a candidate to another funnel stage.
type UpdateStageRequest struct {
	Stage models.CandidateStage `json:"stage" validate:"required"`
}

// NoteRequest creates or updates a candidate note.
type NoteRequest struct {
	Content string `json:"content" validate:"required"`
	Private bool   `json:"private"`
}

// RatingRequest creates or updates a candidate rating.
type RatingRequest struct {
	RatingType string  `json:"rating_type" validate:"required"`
	Score      float64 `json:"score" validate:"min=0,max=5"`
	Comment    string  `json:"comment"`
}

// CandidateService manages candidates, their funnel stage, notes and ratings.
type CandidateService struct {
	repo      candidateRepository
	audit     candidateAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCandidateService constructs a CandidateService.
func NewCandidateService(repo candidateRepository, audit candidateAuditRepository, validate *validator.Validate, logger *zap.Logger) *CandidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CandidateService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated candidates.
func (s *CandidateService) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, *models.Pagination, error) {
	candidates, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidates")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return candidates, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a candidate by ID.
func (s *CandidateService) Get(ctx context.Context, id string) (*models.Candidate, error) {
	candidate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	return candidate, nil
}

// Create adds a new candidate starting in the Applied stage.
func (s *CandidateService) Create(ctx context.Context, req CreateCandidateRequest) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}

	candidate := &models.Candidate{
		Name:             req.Name,
		Email:            strings.ToLower(req.Email),
		Phone:            req.Phone,
		JobID:            req.JobID,
		Position:         req.Position,
		Stage:            models.StageApplied,
		Source:           req.Source,
		AssignedTo:       req.AssignedTo,
		Skills:           req.Skills,
		ExpectedSalary:   req.ExpectedSalary,
		NoticePeriodDays: req.NoticePeriodDays,
		WorkPreference:   req.WorkPreference,
	}
	if req.AppliedDate != nil {
		candidate.AppliedDate = *req.AppliedDate
	}

	if err := s.repo.Create(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create candidate")
	}
	return candidate, nil
}

// Update modifies candidate profile fields.
func (s *CandidateService) Update(ctx context.Context, id string, req UpdateCandidateRequest) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}

	candidate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate.Name = req.Name
	candidate.Email = strings.ToLower(req.Email)
	candidate.Phone = req.Phone
	candidate.JobID = req.JobID
	candidate.Position = req.Position
	candidate.Source = req.Source
	candidate.Score = req.Score
	candidate.AssignedTo = req.AssignedTo
	candidate.Skills = req.Skills
	candidate.ExpectedSalary = req.ExpectedSalary
	candidate.NoticePeriodDays = req.NoticePeriodDays
	candidate.WorkPreference = req.WorkPreference
	candidate.InterviewerID = req.InterviewerID
	candidate.InterviewDate = req.InterviewDate

	if err := s.repo.Update(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update candidate")
	}
	return candidate, nil
}

// UpdateStage moves the candidate to another stage. The stage set is free-form
// within the known values: any permitted caller may move any-to-any.
func (s *CandidateService) UpdateStage(ctx context.Context, id string, req UpdateStageRequest, actor *models.JWTClaims) (*models.Candidate, error) {
	if !models.ValidStage(req.Stage) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown candidate stage")
	}

	candidate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStage := candidate.Stage
	if err := s.repo.UpdateStage(ctx, id, req.Stage); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update candidate stage")
	}
	candidate.Stage = req.Stage

	if s.audit != nil && actor != nil {
		oldPayload, _ := json.Marshal(map[string]interface{}{"stage": oldStage})
		newPayload, _ := json.Marshal(map[string]interface{}{"stage": req.Stage})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionStageChange,
			Resource:   "candidates",
			ResourceID: &candidate.ID,
			OldValues:  oldPayload,
			NewValues:  newPayload,
		}); err != nil {
			s.logger.Warn("failed to record stage change audit log", zap.Error(err))
		}
	}

	return candidate, nil
}

// AttachResume records the stored resume filename on the candidate.
func (s *CandidateService) AttachResume(ctx context.Context, id, filename string) (*models.Candidate, error) {
	candidate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate.ResumeFilename = &filename
	if err := s.repo.Update(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach resume")
	}
	return candidate, nil
}

// Delete removes a candidate.
func (s *CandidateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete candidate")
	}
	return nil
}

// ListNotes returns the candidate's notes, hiding private notes from everyone
// but their author, Admin, or HR Manager.
func (s *CandidateService) ListNotes(ctx context.Context, candidateID string, actor *models.JWTClaims) ([]models.CandidateNote, error) {
	notes, err := s.repo.ListNotes(ctx, candidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}

	visible := make([]models.CandidateNote, 0, len(notes))
	for _, note := range notes {
		if note.Private && actor != nil && !actor.IsManager() && actor.UserID != note.AuthorID {
			continue
		}
		visible = append(visible, note)
	}
	return visible, nil
}

// CreateNote adds a note authored by the caller.
func (s *CandidateService) CreateNote(ctx context.Context, candidateID string, req NoteRequest, actor *models.JWTClaims) (*models.CandidateNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	if _, err := s.Get(ctx, candidateID); err != nil {
		return nil, err
	}

	note := &models.CandidateNote{
		CandidateID: candidateID,
		AuthorID:    actorUserID(actor),
		Content:     req.Content,
		Private:     req.Private,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return note, nil
}

// UpdateNote edits a note. Only the author, Admin, or HR Manager may.
func (s *CandidateService) UpdateNote(ctx context.Context, noteID string, req NoteRequest, actor *models.JWTClaims) (*models.CandidateNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}

	note, err := s.findNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnership(actor, note.AuthorID, "note"); err != nil {
		return nil, err
	}

	note.Content = req.Content
	note.Private = req.Private
	if err := s.repo.UpdateNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update note")
	}
	return note, nil
}

// DeleteNote removes a note. Only the author, Admin, or HR Manager may.
func (s *CandidateService) DeleteNote(ctx context.Context, noteID string, actor *models.JWTClaims) error {
	note, err := s.findNote(ctx, noteID)
	if err != nil {
		return err
	}
	if err := requireOwnership(actor, note.AuthorID, "note"); err != nil {
		return err
	}
	if err := s.repo.DeleteNote(ctx, noteID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	return nil
}

// ListRatings returns every rating on the candidate.
func (s *CandidateService) ListRatings(ctx context.Context, candidateID string) ([]models.CandidateRating, error) {
	ratings, err := s.repo.ListRatings(ctx, candidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ratings")
	}
	if ratings == nil {
		ratings = []models.CandidateRating{}
	}
	return ratings, nil
}

// CreateRating records a score. One rating per (candidate, author, type).
func (s *CandidateService) CreateRating(ctx context.Context, candidateID string, req RatingRequest, actor *models.JWTClaims) (*models.CandidateRating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}
	if _, err := s.Get(ctx, candidateID); err != nil {
		return nil, err
	}

	authorID := actorUserID(actor)
	count, err := s.repo.CountRatings(ctx, candidateID, authorID, req.RatingType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing ratings")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating of this type already exists for this candidate")
	}

	rating := &models.CandidateRating{
		CandidateID: candidateID,
		AuthorID:    authorID,
		RatingType:  req.RatingType,
		Score:       req.Score,
		Comment:     req.Comment,
	}
	if err := s.repo.CreateRating(ctx, rating); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rating")
	}
	return rating, nil
}

// UpdateRating edits a rating. Only the author, Admin, or HR Manager may.
func (s *CandidateService) UpdateRating(ctx context.Context, ratingID string, req RatingRequest, actor *models.JWTClaims) (*models.CandidateRating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rating payload")
	}

	rating, err := s.findRating(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnership(actor, rating.AuthorID, "rating"); err != nil {
		return nil, err
	}

	rating.Score = req.Score
	rating.Comment = req.Comment
	if err := s.repo.UpdateRating(ctx, rating); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rating")
	}
	return rating, nil
}

// DeleteRating removes a rating. Only the author, Admin, or HR Manager may.
func (s *CandidateService) DeleteRating(ctx context.Context, ratingID string, actor *models.JWTClaims) error {
	rating, err := s.findRating(ctx, ratingID)
	if err != nil {
		return err
	}
	if err := requireOwnership(actor, rating.AuthorID, "rating"); err != nil {
		return err
	}
	if err := s.repo.DeleteRating(ctx, ratingID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rating")
	}
	return nil
}

func (s *CandidateService) findNote(ctx context.Context, id string) (*models.CandidateNote, error) {
	note, err := s.repo.FindNote(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

func (s *CandidateService) findRating(ctx context.Context, id string) (*models.CandidateRating, error) {
	rating, err := s.repo.FindRating(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rating not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rating")
	}
	return rating, nil
}

func requireOwnership(actor *models.JWTClaims, ownerID, what string) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if actor.IsManager() || actor.UserID == ownerID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the author, Admin, or HR Manager may modify this "+what)
}

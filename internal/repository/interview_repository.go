package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hirestack/ats-api/internal/models"
)

// InterviewRepository provides database access for interviews and feedback.
type InterviewRepository struct {
	db *sqlx.DB
}

// NewInterviewRepository creates a new instance of InterviewRepository.
func NewInterviewRepository(db *sqlx.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

const interviewColumns = `id, candidate_id, interviewer_id, scheduled_date, duration_mins, type, status, round, location, created_by, created_at, updated_at`

// FindByID returns an interview by identifier.
func (r *InterviewRepository) FindByID(ctx context.Context, id string) (*models.Interview, error) {
	query := fmt.Sprintf(`SELECT %s FROM interviews WHERE id = $1 LIMIT 1`, interviewColumns)
	var interview models.Interview
	if err := r.db.GetContext(ctx, &interview, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find interview by id: %w", err)
	}
	return &interview, nil
}

// CountOverlapping counts Scheduled interviews for the interviewer whose
// occupied window intersects [start, end). An interview id may be excluded so
// reschedules do not collide with themselves.
func (r *InterviewRepository) CountOverlapping(ctx context.Context, interviewerID string, start, end time.Time, excludeID string) (int, error) {
	query := `SELECT COUNT(*) FROM interviews
		WHERE interviewer_id = $1 AND status = $2
		AND scheduled_date < $4
		AND scheduled_date + (duration_mins * INTERVAL '1 minute') > $3`
	args := []interface{}{interviewerID, models.InterviewStatusScheduled, start, end}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count overlapping interviews: %w", err)
	}
	return count, nil
}

// List returns interviews based on filters with total count.
func (r *InterviewRepository) List(ctx context.Context, filter models.InterviewFilter) ([]models.Interview, int, error) {
	baseQuery := `FROM interviews WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CandidateID != "" {
		conditions = append(conditions, fmt.Sprintf("candidate_id = $%d", len(args)+1))
		args = append(args, filter.CandidateID)
	}
	if filter.InterviewerID != "" {
		conditions = append(conditions, fmt.Sprintf("interviewer_id = $%d", len(args)+1))
		args = append(args, filter.InterviewerID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY scheduled_date ASC LIMIT %d OFFSET %d", interviewColumns, baseQuery, pageSize, offset)

	var interviews []models.Interview
	if err := r.db.SelectContext(ctx, &interviews, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list interviews: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interviews: %w", err)
	}

	return interviews, total, nil
}

// Create inserts a new interview.
func (r *InterviewRepository) Create(ctx context.Context, interview *models.Interview) error {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if interview.CreatedAt.IsZero() {
		interview.CreatedAt = now
	}
	interview.UpdatedAt = now

	const query = `INSERT INTO interviews (id, candidate_id, interviewer_id, scheduled_date, duration_mins, type, status, round, location, created_by, created_at, updated_at)
		VALUES (:id, :candidate_id, :interviewer_id, :scheduled_date, :duration_mins, :type, :status, :round, :location, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, interview); err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

// Update updates mutable fields of an interview.
func (r *InterviewRepository) Update(ctx context.Context, interview *models.Interview) error {
	interview.UpdatedAt = time.Now().UTC()
	const query = `UPDATE interviews SET scheduled_date = :scheduled_date, duration_mins = :duration_mins, type = :type, status = :status, round = :round, location = :location, interviewer_id = :interviewer_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, interview); err != nil {
		return fmt.Errorf("update interview: %w", err)
	}
	return nil
}

// Delete removes an interview.
func (r *InterviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM interviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete interview: %w", err)
	}
	return nil
}

// FindFeedback returns the feedback for an interview, if any.
func (r *InterviewRepository) FindFeedback(ctx context.Context, interviewID string) (*models.InterviewFeedback, error) {
	const query = `SELECT id, interview_id, interviewer_id, rating, strengths, weaknesses, recommendation, comments, created_at FROM interview_feedback WHERE interview_id = $1 LIMIT 1`
	var feedback models.InterviewFeedback
	if err := r.db.GetContext(ctx, &feedback, query, interviewID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find interview feedback: %w", err)
	}
	return &feedback, nil
}

// CreateFeedback inserts the feedback record. Feedback is immutable; there is
// no update statement.
func (r *InterviewRepository) CreateFeedback(ctx context.Context, feedback *models.InterviewFeedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO interview_feedback (id, interview_id, interviewer_id, rating, strengths, weaknesses, recommendation, comments, created_at)
		VALUES (:id, :interview_id, :interviewer_id, :rating, :strengths, :weaknesses, :recommendation, :comments, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create interview feedback: %w", err)
	}
	return nil
}

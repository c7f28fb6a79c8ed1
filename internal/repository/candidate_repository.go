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

// CandidateRepository provides database access for candidates and their
// notes and ratings.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository creates a new instance of CandidateRepository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const candidateColumns = `id, name, email, phone, job_id, position, stage, source, applied_date, score, assigned_to, skills, expected_salary, notice_period_days, work_preference, resume_filename, in_house_assignment_status, interviewer_id, interview_date, created_at, updated_at`

// FindByID returns a candidate by identifier.
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidates WHERE id = $1 LIMIT 1`, candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find candidate by id: %w", err)
	}
	return &candidate, nil
}

// List returns candidates based on filters with total count.
func (r *CandidateRepository) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error) {
	baseQuery := `FROM candidates WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Stage != nil {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", len(args)+1))
		args = append(args, *filter.Stage)
	}
	if filter.JobID != "" {
		conditions = append(conditions, fmt.Sprintf("job_id = $%d", len(args)+1))
		args = append(args, filter.JobID)
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)+1))
		args = append(args, filter.Source)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(position) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "applied_date": true, "score": true, "stage": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "applied_date"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", candidateColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	return candidates, total, nil
}

// Create inserts a new candidate.
func (r *CandidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}
	if candidate.AppliedDate.IsZero() {
		candidate.AppliedDate = now
	}
	candidate.UpdatedAt = now

	const query = `INSERT INTO candidates (id, name, email, phone, job_id, position, stage, source, applied_date, score, assigned_to, skills, expected_salary, notice_period_days, work_preference, resume_filename, in_house_assignment_status, interviewer_id, interview_date, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :job_id, :position, :stage, :source, :applied_date, :score, :assigned_to, :skills, :expected_salary, :notice_period_days, :work_preference, :resume_filename, :in_house_assignment_status, :interviewer_id, :interview_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// Update updates mutable fields of a candidate.
func (r *CandidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	candidate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidates SET name = :name, email = :email, phone = :phone, job_id = :job_id, position = :position, source = :source, score = :score, assigned_to = :assigned_to, skills = :skills, expected_salary = :expected_salary, notice_period_days = :notice_period_days, work_preference = :work_preference, resume_filename = :resume_filename, interviewer_id = :interviewer_id, interview_date = :interview_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return nil
}

// UpdateStage sets the candidate's funnel stage.
func (r *CandidateRepository) UpdateStage(ctx context.Context, id string, stage models.CandidateStage) error {
	const query = `UPDATE candidates SET stage = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, stage, time.Now().UTC()); err != nil {
		return fmt.Errorf("update candidate stage: %w", err)
	}
	return nil
}

// Delete removes a candidate.
func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	return nil
}

// ListNotes returns every note on the candidate.
func (r *CandidateRepository) ListNotes(ctx context.Context, candidateID string) ([]models.CandidateNote, error) {
	const query = `SELECT id, candidate_id, author_id, content, private, created_at, updated_at FROM candidate_notes WHERE candidate_id = $1 ORDER BY created_at DESC`
	var notes []models.CandidateNote
	if err := r.db.SelectContext(ctx, &notes, query, candidateID); err != nil {
		return nil, fmt.Errorf("list candidate notes: %w", err)
	}
	return notes, nil
}

// FindNote returns a note by identifier.
func (r *CandidateRepository) FindNote(ctx context.Context, id string) (*models.CandidateNote, error) {
	const query = `SELECT id, candidate_id, author_id, content, private, created_at, updated_at FROM candidate_notes WHERE id = $1 LIMIT 1`
	var note models.CandidateNote
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find candidate note: %w", err)
	}
	return &note, nil
}

// CreateNote inserts a note.
func (r *CandidateRepository) CreateNote(ctx context.Context, note *models.CandidateNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	const query = `INSERT INTO candidate_notes (id, candidate_id, author_id, content, private, created_at, updated_at) VALUES (:id, :candidate_id, :author_id, :content, :private, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create candidate note: %w", err)
	}
	return nil
}

// UpdateNote updates a note's content and privacy flag.
func (r *CandidateRepository) UpdateNote(ctx context.Context, note *models.CandidateNote) error {
	note.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidate_notes SET content = :content, private = :private, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("update candidate note: %w", err)
	}
	return nil
}

// DeleteNote removes a note.
func (r *CandidateRepository) DeleteNote(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM candidate_notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete candidate note: %w", err)
	}
	return nil
}

// ListRatings returns every rating on the candidate.
func (r *CandidateRepository) ListRatings(ctx context.Context, candidateID string) ([]models.CandidateRating, error) {
	const query = `SELECT id, candidate_id, author_id, rating_type, score, comment, created_at, updated_at FROM candidate_ratings WHERE candidate_id = $1 ORDER BY created_at DESC`
	var ratings []models.CandidateRating
	if err := r.db.SelectContext(ctx, &ratings, query, candidateID); err != nil {
		return nil, fmt.Errorf("list candidate ratings: %w", err)
	}
	return ratings, nil
}

// FindRating returns a rating by identifier.
func (r *CandidateRepository) FindRating(ctx context.Context, id string) (*models.CandidateRating, error) {
	const query = `SELECT id, candidate_id, author_id, rating_type, score, comment, created_at, updated_at FROM candidate_ratings WHERE id = $1 LIMIT 1`
	var rating models.CandidateRating
	if err := r.db.GetContext(ctx, &rating, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find candidate rating: %w", err)
	}
	return &rating, nil
}

// CountRatings returns how many ratings the author has already recorded of
// this type for the candidate.
func (r *CandidateRepository) CountRatings(ctx context.Context, candidateID, authorID, ratingType string) (int, error) {
	const query = `SELECT COUNT(*) FROM candidate_ratings WHERE candidate_id = $1 AND author_id = $2 AND rating_type = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, candidateID, authorID, ratingType); err != nil {
		return 0, fmt.Errorf("count candidate ratings: %w", err)
	}
	return count, nil
}

// CreateRating inserts a rating.
func (r *CandidateRepository) CreateRating(ctx context.Context, rating *models.CandidateRating) error {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rating.CreatedAt = now
	rating.UpdatedAt = now
	const query = `INSERT INTO candidate_ratings (id, candidate_id, author_id, rating_type, score, comment, created_at, updated_at) VALUES (:id, :candidate_id, :author_id, :rating_type, :score, :comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("create candidate rating: %w", err)
	}
	return nil
}

// UpdateRating updates a rating's score and comment.
func (r *CandidateRepository) UpdateRating(ctx context.Context, rating *models.CandidateRating) error {
	rating.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidate_ratings SET score = :score, comment = :comment, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("update candidate rating: %w", err)
	}
	return nil
}

// DeleteRating removes a rating.
func (r *CandidateRepository) DeleteRating(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM candidate_ratings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete candidate rating: %w", err)
	}
	return nil
}

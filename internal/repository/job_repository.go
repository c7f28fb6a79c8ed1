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

// JobRepository provides database access for job postings.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new instance of JobRepository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, title, department, location, job_type, status, posted_date, deadline, requirements, portals, assigned_user_ids, created_by, created_at, updated_at`

// FindByID returns a job posting by identifier.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM job_postings WHERE id = $1 LIMIT 1`, jobColumns)
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	return &job, nil
}

// List returns job postings based on filters with total count.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error) {
	baseQuery := `FROM job_postings WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(location) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"title": true, "posted_date": true, "deadline": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "posted_date"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", jobColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	return jobs, total, nil
}

// Create inserts a new job posting.
func (r *JobRepository) Create(ctx context.Context, job *models.JobPosting) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.PostedDate.IsZero() {
		job.PostedDate = now
	}
	job.UpdatedAt = now

	const query = `INSERT INTO job_postings (id, title, department, location, job_type, status, posted_date, deadline, requirements, portals, assigned_user_ids, created_by, created_at, updated_at)
		VALUES (:id, :title, :department, :location, :job_type, :status, :posted_date, :deadline, :requirements, :portals, :assigned_user_ids, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Update updates mutable fields of a job posting.
func (r *JobRepository) Update(ctx context.Context, job *models.JobPosting) error {
	job.UpdatedAt = time.Now().UTC()
	const query = `UPDATE job_postings SET title = :title, department = :department, location = :location, job_type = :job_type, status = :status, deadline = :deadline, requirements = :requirements, portals = :portals, assigned_user_ids = :assigned_user_ids, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// Delete removes a job posting.
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM job_postings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

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

// AssignmentRepository provides database access for in-house assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, candidate_id, job_id, assigned_by, title, description_html, due_date, status, attachments, sent_at, created_at, updated_at`

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1 LIMIT 1`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &assignment, nil
}

// List returns assignments based on filters with total count.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	baseQuery := `FROM assignments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CandidateID != "" {
		conditions = append(conditions, fmt.Sprintf("candidate_id = $%d", len(args)+1))
		args = append(args, filter.CandidateID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.AssignedBy != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_by = $%d", len(args)+1))
		args = append(args, filter.AssignedBy)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", assignmentColumns, baseQuery, pageSize, offset)

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	return assignments, total, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, candidate_id, job_id, assigned_by, title, description_html, due_date, status, attachments, sent_at, created_at, updated_at)
		VALUES (:id, :candidate_id, :job_id, :assigned_by, :title, :description_html, :due_date, :status, :attachments, :sent_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update updates mutable content fields of an assignment. Status changes go
// through UpdateStatus so the candidate mirror is never skipped.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description_html = :description_html, due_date = :due_date, attachments = :attachments, job_id = :job_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// UpdateStatus writes the assignment status and, for non-Draft statuses, the
// owning candidate's in_house_assignment_status mirror in one transaction so a
// failure between the two statements cannot leave the mirror stale. The mirror
// is last-write-wins: with several assignments per candidate it reflects
// whichever was mutated most recently.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, assignmentID, candidateID string, status models.AssignmentStatus, sentAt *time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if sentAt != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE assignments SET status = $2, sent_at = $3, updated_at = $4 WHERE id = $1`, assignmentID, status, sentAt, now); err != nil {
			return fmt.Errorf("update assignment status: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1`, assignmentID, status, now); err != nil {
			return fmt.Errorf("update assignment status: %w", err)
		}
	}

	if status != models.AssignmentStatusDraft {
		if _, err := tx.ExecContext(ctx, `UPDATE candidates SET in_house_assignment_status = $2, updated_at = $3 WHERE id = $1`, candidateID, status, now); err != nil {
			return fmt.Errorf("propagate assignment status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// Delete removes an assignment. Callers enforce the Draft-only rule.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

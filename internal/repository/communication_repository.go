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

// CommunicationRepository provides database access for candidate touchpoints.
type CommunicationRepository struct {
	db *sqlx.DB
}

// NewCommunicationRepository creates a new instance of CommunicationRepository.
func NewCommunicationRepository(db *sqlx.DB) *CommunicationRepository {
	return &CommunicationRepository{db: db}
}

const communicationColumns = `id, candidate_id, type, subject, content, status, created_by, created_at, updated_at`

// FindByID returns a communication by identifier.
func (r *CommunicationRepository) FindByID(ctx context.Context, id string) (*models.Communication, error) {
	query := fmt.Sprintf(`SELECT %s FROM communications WHERE id = $1 LIMIT 1`, communicationColumns)
	var comm models.Communication
	if err := r.db.GetContext(ctx, &comm, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find communication by id: %w", err)
	}
	return &comm, nil
}

// List returns communications based on filters with total count.
func (r *CommunicationRepository) List(ctx context.Context, filter models.CommunicationFilter) ([]models.Communication, int, error) {
	baseQuery := `FROM communications WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CandidateID != "" {
		conditions = append(conditions, fmt.Sprintf("candidate_id = $%d", len(args)+1))
		args = append(args, filter.CandidateID)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", communicationColumns, baseQuery, pageSize, offset)

	var comms []models.Communication
	if err := r.db.SelectContext(ctx, &comms, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list communications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count communications: %w", err)
	}

	return comms, total, nil
}

// Create inserts a new communication.
func (r *CommunicationRepository) Create(ctx context.Context, comm *models.Communication) error {
	if comm.ID == "" {
		comm.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if comm.CreatedAt.IsZero() {
		comm.CreatedAt = now
	}
	comm.UpdatedAt = now

	const query = `INSERT INTO communications (id, candidate_id, type, subject, content, status, created_by, created_at, updated_at)
		VALUES (:id, :candidate_id, :type, :subject, :content, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comm); err != nil {
		return fmt.Errorf("create communication: %w", err)
	}
	return nil
}

// Update updates mutable fields of a communication.
func (r *CommunicationRepository) Update(ctx context.Context, comm *models.Communication) error {
	comm.UpdatedAt = time.Now().UTC()
	const query = `UPDATE communications SET type = :type, subject = :subject, content = :content, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, comm); err != nil {
		return fmt.Errorf("update communication: %w", err)
	}
	return nil
}

// Delete removes a communication.
func (r *CommunicationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM communications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete communication: %w", err)
	}
	return nil
}

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

// TemplateRepository provides database access for email templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new instance of TemplateRepository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, name, subject, body, category, variables, created_by, created_at, updated_at`

// FindByID returns a template by identifier.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_templates WHERE id = $1 LIMIT 1`, templateColumns)
	var tpl models.EmailTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return &tpl, nil
}

// List returns templates based on filters with total count.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.EmailTemplate, int, error) {
	baseQuery := `FROM email_templates WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(subject) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", templateColumns, baseQuery, pageSize, offset)

	var templates []models.EmailTemplate
	if err := r.db.SelectContext(ctx, &templates, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}

	return templates, total, nil
}

// Create inserts a new template.
func (r *TemplateRepository) Create(ctx context.Context, tpl *models.EmailTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	const query = `INSERT INTO email_templates (id, name, subject, body, category, variables, created_by, created_at, updated_at)
		VALUES (:id, :name, :subject, :body, :category, :variables, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update updates mutable fields of a template.
func (r *TemplateRepository) Update(ctx context.Context, tpl *models.EmailTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	const query = `UPDATE email_templates SET name = :name, subject = :subject, body = :body, category = :category, variables = :variables, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

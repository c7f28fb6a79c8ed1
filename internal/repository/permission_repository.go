package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hirestack/ats-api/internal/models"
)

// PermissionRepository stores per-user module grants.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository creates a new instance of PermissionRepository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// ListByUser returns every permission row for the user.
func (r *PermissionRepository) ListByUser(ctx context.Context, userID string) ([]models.Permission, error) {
	const query = `SELECT id, user_id, module, actions, created_at, updated_at FROM permissions WHERE user_id = $1 ORDER BY module`
	var perms []models.Permission
	if err := r.db.SelectContext(ctx, &perms, query, userID); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// Replace swaps the user's grant set atomically: existing rows are removed and
// the provided grants inserted in one transaction.
func (r *PermissionRepository) Replace(ctx context.Context, userID string, grants []models.Permission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin permission replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM permissions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear permissions: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO permissions (id, user_id, module, actions, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, grant := range grants {
		id := grant.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insert, id, userID, grant.Module, pq.Array(grant.Actions), now, now); err != nil {
			return fmt.Errorf("insert permission %s: %w", grant.Module, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit permission replace: %w", err)
	}
	return nil
}

// Upsert creates or updates the grant for one module.
func (r *PermissionRepository) Upsert(ctx context.Context, userID, module string, actions []string) error {
	now := time.Now().UTC()
	const query = `INSERT INTO permissions (id, user_id, module, actions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, module) DO UPDATE SET actions = EXCLUDED.actions, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, module, pq.Array(actions), now); err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}
	return nil
}

// DeleteByUser removes every grant for the user.
func (r *PermissionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete permissions: %w", err)
	}
	return nil
}

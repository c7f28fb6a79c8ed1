package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, mock, func() { sqlxDB.Close() }
}

func TestAssignmentUpdateStatusMirrorsCandidate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assignments SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("assignment-1", models.AssignmentStatusSubmitted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE candidates SET in_house_assignment_status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("candidate-1", models.AssignmentStatusSubmitted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "assignment-1", "candidate-1", models.AssignmentStatusSubmitted, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateStatusDraftSkipsMirror(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assignments SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("assignment-1", models.AssignmentStatusDraft, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "assignment-1", "candidate-1", models.AssignmentStatusDraft, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateStatusRecordsSentAt(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	sentAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assignments SET status = \$2, sent_at = \$3, updated_at = \$4 WHERE id = \$1`).
		WithArgs("assignment-1", models.AssignmentStatusAssigned, &sentAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE candidates SET in_house_assignment_status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("candidate-1", models.AssignmentStatusAssigned, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "assignment-1", "candidate-1", models.AssignmentStatusAssigned, &sentAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "candidate_id", "assigned_by", "title", "status"}).
		AddRow("assignment-1", "candidate-1", "admin-1", "Take-home", "Draft")
	mock.ExpectQuery(`SELECT .+ FROM assignments WHERE id = \$1 LIMIT 1`).
		WithArgs("assignment-1").
		WillReturnRows(rows)

	assignment, err := repo.FindByID(context.Background(), "assignment-1")
	require.NoError(t, err)
	assert.Equal(t, "Take-home", assignment.Title)
	assert.Equal(t, models.AssignmentStatusDraft, assignment.Status)
}

func TestAssignmentListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	status := models.AssignmentStatusAssigned
	rows := sqlmock.NewRows([]string{"id", "candidate_id", "title", "status"}).
		AddRow("assignment-1", "candidate-1", "Take-home", "Assigned")
	mock.ExpectQuery(`SELECT .+ FROM assignments WHERE 1=1 AND status = \$1 ORDER BY created_at DESC`).
		WithArgs(status).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assignments WHERE 1=1 AND status = \$1`).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AssignmentStatusAssigned, assignments[0].Status)
}

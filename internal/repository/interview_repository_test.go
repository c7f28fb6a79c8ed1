package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
)

func TestCountOverlappingOnlyScheduled(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM interviews`).
		WithArgs("interviewer-1", models.InterviewStatusScheduled, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountOverlapping(context.Background(), "interviewer-1", start, end, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountOverlappingExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) FROM interviews.+AND id <> \$5`).
		WithArgs("interviewer-1", models.InterviewStatusScheduled, start, end, "interview-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := repo.CountOverlapping(context.Background(), "interviewer-1", start, end, "interview-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInterviewFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "candidate_id", "interviewer_id", "status", "duration_mins"}).
		AddRow("interview-1", "candidate-1", "interviewer-1", "Scheduled", 60)
	mock.ExpectQuery(`SELECT .+ FROM interviews WHERE id = \$1 LIMIT 1`).
		WithArgs("interview-1").
		WillReturnRows(rows)

	interview, err := repo.FindByID(context.Background(), "interview-1")
	require.NoError(t, err)
	assert.Equal(t, models.InterviewStatusScheduled, interview.Status)
	assert.Equal(t, 60, interview.DurationMins)
}

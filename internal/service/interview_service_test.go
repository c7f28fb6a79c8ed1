package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type interviewRepoStub struct {
	items           map[string]*models.Interview
	feedback        map[string]*models.InterviewFeedback
	overlapCount    int
	overlapExcludes []string
	created         []*models.Interview
	updated         []*models.Interview
}

func (s *interviewRepoStub) FindByID(ctx context.Context, id string) (*models.Interview, error) {
	if iv, ok := s.items[id]; ok {
		cp := *iv
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *interviewRepoStub) CountOverlapping(ctx context.Context, interviewerID string, start, end time.Time, excludeID string) (int, error) {
	s.overlapExcludes = append(s.overlapExcludes, excludeID)
	return s.overlapCount, nil
}

func (s *interviewRepoStub) List(ctx context.Context, filter models.InterviewFilter) ([]models.Interview, int, error) {
	return nil, 0, nil
}

func (s *interviewRepoStub) Create(ctx context.Context, interview *models.Interview) error {
	interview.ID = "interview-new"
	s.created = append(s.created, interview)
	return nil
}

func (s *interviewRepoStub) Update(ctx context.Context, interview *models.Interview) error {
	s.updated = append(s.updated, interview)
	return nil
}

func (s *interviewRepoStub) Delete(ctx context.Context, id string) error { return nil }

func (s *interviewRepoStub) FindFeedback(ctx context.Context, interviewID string) (*models.InterviewFeedback, error) {
	if fb, ok := s.feedback[interviewID]; ok {
		return fb, nil
	}
	return nil, sql.ErrNoRows
}

func (s *interviewRepoStub) CreateFeedback(ctx context.Context, feedback *models.InterviewFeedback) error {
	feedback.ID = "feedback-new"
	s.feedback[feedback.InterviewID] = feedback
	return nil
}

func newInterviewFixture(status models.InterviewStatus) (*InterviewService, *interviewRepoStub) {
	repo := &interviewRepoStub{
		items: map[string]*models.Interview{
			"interview-1": {
				ID:            "interview-1",
				CandidateID:   "candidate-1",
				InterviewerID: "interviewer-1",
				ScheduledDate: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
				DurationMins:  60,
				Type:          models.InterviewTypeTechnical,
				Status:        status,
			},
		},
		feedback: map[string]*models.InterviewFeedback{},
	}
	return NewInterviewService(repo, nil, nil), repo
}

func scheduleRequest() ScheduleInterviewRequest {
	return ScheduleInterviewRequest{
		CandidateID:   "candidate-1",
		InterviewerID: "interviewer-1",
		ScheduledDate: time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		DurationMins:  45,
		Type:          models.InterviewTypeTechnical,
		Round:         1,
	}
}

func TestScheduleBooksFreeSlot(t *testing.T) {
	svc, repo := newInterviewFixture(models.InterviewStatusScheduled)

	interview, err := svc.Schedule(context.Background(), scheduleRequest(), "hr-1")
	require.NoError(t, err)
	assert.Equal(t, models.InterviewStatusScheduled, interview.Status)
	assert.Equal(t, "hr-1", interview.CreatedBy)
	require.Len(t, repo.created, 1)
}

func TestScheduleRejectsOverlap(t *testing.T) {
	svc, repo := newInterviewFixture(models.InterviewStatusScheduled)
	repo.overlapCount = 1

	_, err := svc.Schedule(context.Background(), scheduleRequest(), "hr-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSchedulingConflict.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestUpdateExcludesSelfFromOverlapCheck(t *testing.T) {
	svc, repo := newInterviewFixture(models.InterviewStatusScheduled)

	_, err := svc.Update(context.Background(), "interview-1", UpdateInterviewRequest{
		InterviewerID: "interviewer-1",
		ScheduledDate: time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		DurationMins:  30,
		Type:          models.InterviewTypeTechnical,
	})
	require.NoError(t, err)
	require.Len(t, repo.overlapExcludes, 1)
	assert.Equal(t, "interview-1", repo.overlapExcludes[0])
}

func TestUpdateStatusRequiresInterviewerOrManager(t *testing.T) {
	svc, _ := newInterviewFixture(models.InterviewStatusScheduled)

	stranger := &models.JWTClaims{UserID: "someone-else", Role: models.RoleRecruiter}
	_, err := svc.UpdateStatus(context.Background(), "interview-1",
		UpdateInterviewStatusRequest{Status: models.InterviewStatusCompleted}, stranger)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	interviewer := &models.JWTClaims{UserID: "interviewer-1", Role: models.RoleInterviewer}
	interview, err := svc.UpdateStatus(context.Background(), "interview-1",
		UpdateInterviewStatusRequest{Status: models.InterviewStatusCompleted}, interviewer)
	require.NoError(t, err)
	assert.Equal(t, models.InterviewStatusCompleted, interview.Status)
}

func TestUpdateStatusManagerOverrides(t *testing.T) {
	svc, _ := newInterviewFixture(models.InterviewStatusScheduled)

	manager := &models.JWTClaims{UserID: "hr-1", Role: models.RoleHRManager}
	interview, err := svc.UpdateStatus(context.Background(), "interview-1",
		UpdateInterviewStatusRequest{Status: models.InterviewStatusCancelled}, manager)
	require.NoError(t, err)
	assert.Equal(t, models.InterviewStatusCancelled, interview.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newInterviewFixture(models.InterviewStatusScheduled)

	_, err := svc.UpdateStatus(context.Background(), "interview-1",
		UpdateInterviewStatusRequest{Status: "Paused"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusReenteringScheduledChecksSlot(t *testing.T) {
	svc, repo := newInterviewFixture(models.InterviewStatusCancelled)
	repo.overlapCount = 1

	_, err := svc.UpdateStatus(context.Background(), "interview-1",
		UpdateInterviewStatusRequest{Status: models.InterviewStatusScheduled}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchedulingConflict.Code, appErrors.FromError(err).Code)
}

func TestFeedbackRequiresCompletedInterview(t *testing.T) {
	svc, _ := newInterviewFixture(models.InterviewStatusScheduled)

	interviewer := &models.JWTClaims{UserID: "interviewer-1", Role: models.RoleInterviewer}
	_, err := svc.CreateFeedback(context.Background(), "interview-1", CreateFeedbackRequest{Rating: 4}, interviewer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeedbackOnlyInterviewerOrAdmin(t *testing.T) {
	svc, _ := newInterviewFixture(models.InterviewStatusCompleted)

	// HR Manager is not enough for feedback, unlike status changes.
	manager := &models.JWTClaims{UserID: "hr-1", Role: models.RoleHRManager}
	_, err := svc.CreateFeedback(context.Background(), "interview-1", CreateFeedbackRequest{Rating: 4}, manager)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	interviewer := &models.JWTClaims{UserID: "interviewer-1", Role: models.RoleInterviewer}
	feedback, err := svc.CreateFeedback(context.Background(), "interview-1", CreateFeedbackRequest{
		Rating:         4.5,
		Recommendation: "Hire",
	}, interviewer)
	require.NoError(t, err)
	assert.Equal(t, "interviewer-1", feedback.InterviewerID)
}

func TestFeedbackIsWriteOnce(t *testing.T) {
	svc, repo := newInterviewFixture(models.InterviewStatusCompleted)
	repo.feedback["interview-1"] = &models.InterviewFeedback{ID: "feedback-1", InterviewID: "interview-1"}

	_, err := svc.CreateFeedback(context.Background(), "interview-1", CreateFeedbackRequest{Rating: 3}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetFeedbackNotFound(t *testing.T) {
	svc, _ := newInterviewFixture(models.InterviewStatusCompleted)

	_, err := svc.GetFeedback(context.Background(), "interview-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

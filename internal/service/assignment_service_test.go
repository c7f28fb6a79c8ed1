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
	"github.com/hirestack/ats-api/pkg/mailer"
)

type assignmentRepoStub struct {
	items         map[string]*models.Assignment
	statusCalls   []models.AssignmentStatus
	lastSentAt    *time.Time
	deleted       []string
	updatedFields *models.Assignment
}

func (s *assignmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := s.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	return nil, 0, nil
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = "assignment-new"
	return nil
}

func (s *assignmentRepoStub) Update(ctx context.Context, assignment *models.Assignment) error {
	s.updatedFields = assignment
	return nil
}

func (s *assignmentRepoStub) UpdateStatus(ctx context.Context, assignmentID, candidateID string, status models.AssignmentStatus, sentAt *time.Time) error {
	s.statusCalls = append(s.statusCalls, status)
	s.lastSentAt = sentAt
	if a, ok := s.items[assignmentID]; ok {
		a.Status = status
	}
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type candidateLookupStub struct {
	items map[string]*models.Candidate
}

func (s *candidateLookupStub) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	if c, ok := s.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type commRepoStub struct {
	created []*models.Communication
}

func (s *commRepoStub) Create(ctx context.Context, comm *models.Communication) error {
	s.created = append(s.created, comm)
	return nil
}

type auditRepoStub struct {
	logs []*models.AuditLog
}

func (s *auditRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type recordingMailer struct {
	sent    []mailer.Message
	receipt mailer.Receipt
}

func (m *recordingMailer) Send(msg mailer.Message) mailer.Receipt {
	m.sent = append(m.sent, msg)
	return m.receipt
}

func (m *recordingMailer) SendTemplate(to, subject, body string, vars map[string]string) mailer.Receipt {
	return m.Send(mailer.Message{
		To:      to,
		Subject: mailer.RenderTemplate(subject, vars),
		HTML:    mailer.RenderTemplate(body, vars),
	})
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func newAssignmentFixture(status models.AssignmentStatus) (*AssignmentService, *assignmentRepoStub, *commRepoStub, *recordingMailer) {
	repo := &assignmentRepoStub{items: map[string]*models.Assignment{
		"assignment-1": {
			ID:              "assignment-1",
			CandidateID:     "candidate-1",
			Title:           "Backend exercise",
			DescriptionHTML: "<p>Build a worker pool</p>",
			Status:          status,
		},
	}}
	candidates := &candidateLookupStub{items: map[string]*models.Candidate{
		"candidate-1": {ID: "candidate-1", Name: "Dana", Email: "dana@example.com"},
	}}
	comms := &commRepoStub{}
	mail := &recordingMailer{receipt: mailer.Receipt{Success: true, MessageID: "msg-1"}}
	svc := NewAssignmentService(repo, candidates, comms, &auditRepoStub{}, mail, nil, nil)
	return svc, repo, comms, mail
}

func TestAssignmentStatusNeverReturnsToDraft(t *testing.T) {
	svc, repo, _, _ := newAssignmentFixture(models.AssignmentStatusAssigned)

	_, err := svc.UpdateStatus(context.Background(), "assignment-1",
		UpdateAssignmentStatusRequest{Status: models.AssignmentStatusDraft}, adminClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.statusCalls)
}

func TestAssignmentStatusForwardTransition(t *testing.T) {
	svc, repo, _, _ := newAssignmentFixture(models.AssignmentStatusAssigned)

	updated, err := svc.UpdateStatus(context.Background(), "assignment-1",
		UpdateAssignmentStatusRequest{Status: models.AssignmentStatusSubmitted}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusSubmitted, updated.Status)
	require.Len(t, repo.statusCalls, 1)
	assert.Equal(t, models.AssignmentStatusSubmitted, repo.statusCalls[0])
}

func TestAssignmentStatusRejectsUnknownValue(t *testing.T) {
	svc, _, _, _ := newAssignmentFixture(models.AssignmentStatusDraft)

	_, err := svc.UpdateStatus(context.Background(), "assignment-1",
		UpdateAssignmentStatusRequest{Status: "Archived"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentSendTransitionsDraftToAssigned(t *testing.T) {
	svc, repo, comms, mail := newAssignmentFixture(models.AssignmentStatusDraft)

	result, err := svc.Send(context.Background(), "assignment-1", adminClaims())
	require.NoError(t, err)
	require.NotNil(t, result.EmailNotification)
	assert.True(t, result.EmailNotification.Success)
	assert.Equal(t, models.AssignmentStatusAssigned, result.Assignment.Status)
	assert.NotNil(t, result.Assignment.SentAt)
	require.Len(t, repo.statusCalls, 1)
	assert.Equal(t, models.AssignmentStatusAssigned, repo.statusCalls[0])
	assert.NotNil(t, repo.lastSentAt)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "dana@example.com", mail.sent[0].To)

	require.Len(t, comms.created, 1)
	assert.Equal(t, models.CommunicationEmail, comms.created[0].Type)
	assert.Equal(t, models.CommunicationStatusSent, comms.created[0].Status)
}

func TestAssignmentSendFailureReportedInReceipt(t *testing.T) {
	svc, repo, comms, mail := newAssignmentFixture(models.AssignmentStatusDraft)
	mail.receipt = mailer.Receipt{Success: false, Warning: "email delivery failed: relay down"}

	result, err := svc.Send(context.Background(), "assignment-1", adminClaims())
	require.NoError(t, err)
	require.NotNil(t, result.EmailNotification)
	assert.False(t, result.EmailNotification.Success)
	assert.Contains(t, result.EmailNotification.Warning, "relay down")

	// The status transition still happens; only the communication row is skipped.
	assert.Equal(t, models.AssignmentStatusAssigned, result.Assignment.Status)
	require.Len(t, repo.statusCalls, 1)
	assert.Empty(t, comms.created)
}

func TestAssignmentSendRequiresCandidateEmail(t *testing.T) {
	svc, repo, _, _ := newAssignmentFixture(models.AssignmentStatusDraft)
	candidates := &candidateLookupStub{items: map[string]*models.Candidate{
		"candidate-1": {ID: "candidate-1", Name: "Dana"},
	}}
	svc.candidates = candidates

	_, err := svc.Send(context.Background(), "assignment-1", adminClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.statusCalls)
}

func TestAssignmentSendRequiresContent(t *testing.T) {
	svc, repo, _, _ := newAssignmentFixture(models.AssignmentStatusDraft)
	repo.items["assignment-1"].DescriptionHTML = ""
	repo.items["assignment-1"].Attachments = nil

	_, err := svc.Send(context.Background(), "assignment-1", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentSendAlreadyAssignedDoesNotTransitionAgain(t *testing.T) {
	svc, repo, _, _ := newAssignmentFixture(models.AssignmentStatusAssigned)

	result, err := svc.Send(context.Background(), "assignment-1", adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusAssigned, result.Assignment.Status)
	assert.Empty(t, repo.statusCalls)
}

func TestAssignmentDeleteOnlyDraft(t *testing.T) {
	svc, repo, _, _ := newAssignmentFixture(models.AssignmentStatusAssigned)

	err := svc.Delete(context.Background(), "assignment-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	repo.items["assignment-1"].Status = models.AssignmentStatusDraft
	require.NoError(t, svc.Delete(context.Background(), "assignment-1"))
	assert.Equal(t, []string{"assignment-1"}, repo.deleted)
}

func TestAssignmentCreateStartsInDraft(t *testing.T) {
	svc, _, _, _ := newAssignmentFixture(models.AssignmentStatusDraft)

	assignment, err := svc.Create(context.Background(), CreateAssignmentRequest{
		CandidateID: "candidate-1",
		Title:       "Take-home",
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusDraft, assignment.Status)
	assert.Equal(t, "admin-1", assignment.AssignedBy)
}

func TestAssignmentCreateUnknownCandidate(t *testing.T) {
	svc, _, _, _ := newAssignmentFixture(models.AssignmentStatusDraft)

	_, err := svc.Create(context.Background(), CreateAssignmentRequest{
		CandidateID: "nobody",
		Title:       "Take-home",
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
)

type candidateRepoStub struct {
	items       map[string]*models.Candidate
	notes       map[string]*models.CandidateNote
	ratings     map[string]*models.CandidateRating
	ratingCount int
	stageCalls  []models.CandidateStage
	deleted     []string
}

func newCandidateRepoStub() *candidateRepoStub {
	return &candidateRepoStub{
		items: map[string]*models.Candidate{
			"candidate-1": {ID: "candidate-1", Name: "Dana", Email: "dana@example.com", Stage: models.StageApplied},
		},
		notes:   map[string]*models.CandidateNote{},
		ratings: map[string]*models.CandidateRating{},
	}
}

func (s *candidateRepoStub) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	if c, ok := s.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *candidateRepoStub) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error) {
	return nil, 0, nil
}

func (s *candidateRepoStub) Create(ctx context.Context, candidate *models.Candidate) error {
	candidate.ID = "candidate-new"
	return nil
}

func (s *candidateRepoStub) Update(ctx context.Context, candidate *models.Candidate) error {
	s.items[candidate.ID] = candidate
	return nil
}

func (s *candidateRepoStub) UpdateStage(ctx context.Context, id string, stage models.CandidateStage) error {
	s.stageCalls = append(s.stageCalls, stage)
	return nil
}

func (s *candidateRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *candidateRepoStub) ListNotes(ctx context.Context, candidateID string) ([]models.CandidateNote, error) {
	var notes []models.CandidateNote
	for _, n := range s.notes {
		notes = append(notes, *n)
	}
	return notes, nil
}

func (s *candidateRepoStub) FindNote(ctx context.Context, id string) (*models.CandidateNote, error) {
	if n, ok := s.notes[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *candidateRepoStub) CreateNote(ctx context.Context, note *models.CandidateNote) error {
	note.ID = "note-new"
	s.notes[note.ID] = note
	return nil
}

func (s *candidateRepoStub) UpdateNote(ctx context.Context, note *models.CandidateNote) error {
	s.notes[note.ID] = note
	return nil
}

func (s *candidateRepoStub) DeleteNote(ctx context.Context, id string) error {
	delete(s.notes, id)
	return nil
}

func (s *candidateRepoStub) ListRatings(ctx context.Context, candidateID string) ([]models.CandidateRating, error) {
	var ratings []models.CandidateRating
	for _, r := range s.ratings {
		ratings = append(ratings, *r)
	}
	return ratings, nil
}

func (s *candidateRepoStub) FindRating(ctx context.Context, id string) (*models.CandidateRating, error) {
	if r, ok := s.ratings[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *candidateRepoStub) CountRatings(ctx context.Context, candidateID, authorID, ratingType string) (int, error) {
	return s.ratingCount, nil
}

func (s *candidateRepoStub) CreateRating(ctx context.Context, rating *models.CandidateRating) error {
	rating.ID = "rating-new"
	s.ratings[rating.ID] = rating
	return nil
}

func (s *candidateRepoStub) UpdateRating(ctx context.Context, rating *models.CandidateRating) error {
	s.ratings[rating.ID] = rating
	return nil
}

func (s *candidateRepoStub) DeleteRating(ctx context.Context, id string) error {
	delete(s.ratings, id)
	return nil
}

func TestCandidateCreateStartsInApplied(t *testing.T) {
	repo := newCandidateRepoStub()
	svc := NewCandidateService(repo, nil, nil, nil)

	candidate, err := svc.Create(context.Background(), CreateCandidateRequest{
		Name:  "Robin",
		Email: "Robin@Example.COM",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageApplied, candidate.Stage)
	assert.Equal(t, "robin@example.com", candidate.Email)
}

func TestCandidateUpdateStageRejectsUnknownStage(t *testing.T) {
	svc := NewCandidateService(newCandidateRepoStub(), nil, nil, nil)

	_, err := svc.UpdateStage(context.Background(), "candidate-1",
		UpdateStageRequest{Stage: "Shortlisted"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCandidateUpdateStageAudits(t *testing.T) {
	repo := newCandidateRepoStub()
	audit := &auditRepoStub{}
	svc := NewCandidateService(repo, audit, nil, nil)

	candidate, err := svc.UpdateStage(context.Background(), "candidate-1",
		UpdateStageRequest{Stage: models.StageInterview}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.StageInterview, candidate.Stage)
	require.Len(t, repo.stageCalls, 1)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStageChange, audit.logs[0].Action)
	assert.Equal(t, "candidates", audit.logs[0].Resource)
}

func TestCandidateAttachResume(t *testing.T) {
	repo := newCandidateRepoStub()
	svc := NewCandidateService(repo, nil, nil, nil)

	candidate, err := svc.AttachResume(context.Background(), "candidate-1", "abc123.pdf")
	require.NoError(t, err)
	require.NotNil(t, candidate.ResumeFilename)
	assert.Equal(t, "abc123.pdf", *candidate.ResumeFilename)
}

func TestPrivateNotesHiddenFromNonAuthors(t *testing.T) {
	repo := newCandidateRepoStub()
	repo.notes["note-1"] = &models.CandidateNote{ID: "note-1", CandidateID: "candidate-1", AuthorID: "author-1", Content: "public"}
	repo.notes["note-2"] = &models.CandidateNote{ID: "note-2", CandidateID: "candidate-1", AuthorID: "author-1", Content: "secret", Private: true}
	svc := NewCandidateService(repo, nil, nil, nil)

	other := &models.JWTClaims{UserID: "other-1", Role: models.RoleRecruiter}
	notes, err := svc.ListNotes(context.Background(), "candidate-1", other)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "public", notes[0].Content)

	author := &models.JWTClaims{UserID: "author-1", Role: models.RoleRecruiter}
	notes, err = svc.ListNotes(context.Background(), "candidate-1", author)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	manager := &models.JWTClaims{UserID: "hr-1", Role: models.RoleHRManager}
	notes, err = svc.ListNotes(context.Background(), "candidate-1", manager)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestNoteUpdateRequiresAuthorOrManager(t *testing.T) {
	repo := newCandidateRepoStub()
	repo.notes["note-1"] = &models.CandidateNote{ID: "note-1", CandidateID: "candidate-1", AuthorID: "author-1", Content: "draft"}
	svc := NewCandidateService(repo, nil, nil, nil)

	other := &models.JWTClaims{UserID: "other-1", Role: models.RoleRecruiter}
	_, err := svc.UpdateNote(context.Background(), "note-1", NoteRequest{Content: "edited"}, other)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	author := &models.JWTClaims{UserID: "author-1", Role: models.RoleRecruiter}
	note, err := svc.UpdateNote(context.Background(), "note-1", NoteRequest{Content: "edited"}, author)
	require.NoError(t, err)
	assert.Equal(t, "edited", note.Content)
}

func TestNoteDeleteWithoutClaimsIsUnauthorized(t *testing.T) {
	repo := newCandidateRepoStub()
	repo.notes["note-1"] = &models.CandidateNote{ID: "note-1", AuthorID: "author-1"}
	svc := NewCandidateService(repo, nil, nil, nil)

	err := svc.DeleteNote(context.Background(), "note-1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRatingDuplicatePerAuthorAndTypeRejected(t *testing.T) {
	repo := newCandidateRepoStub()
	repo.ratingCount = 1
	svc := NewCandidateService(repo, nil, nil, nil)

	_, err := svc.CreateRating(context.Background(), "candidate-1",
		RatingRequest{RatingType: "technical", Score: 4}, adminClaims())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestRatingCreateRecordsAuthor(t *testing.T) {
	repo := newCandidateRepoStub()
	svc := NewCandidateService(repo, nil, nil, nil)

	rating, err := svc.CreateRating(context.Background(), "candidate-1",
		RatingRequest{RatingType: "technical", Score: 4.5}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, "admin-1", rating.AuthorID)
	assert.Equal(t, "technical", rating.RatingType)
}

func TestRatingDeleteRequiresAuthorOrManager(t *testing.T) {
	repo := newCandidateRepoStub()
	repo.ratings["rating-1"] = &models.CandidateRating{ID: "rating-1", AuthorID: "author-1"}
	svc := NewCandidateService(repo, nil, nil, nil)

	other := &models.JWTClaims{UserID: "other-1", Role: models.RoleInterviewer}
	err := svc.DeleteRating(context.Background(), "rating-1", other)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteRating(context.Background(), "rating-1", adminClaims()))
	assert.Empty(t, repo.ratings)
}

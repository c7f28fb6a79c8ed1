package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/middleware"
	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/internal/service"
	"github.com/hirestack/ats-api/pkg/response"
)

type jobRepoStub struct {
	items   map[string]*models.JobPosting
	created []*models.JobPosting
}

func (s *jobRepoStub) FindByID(ctx context.Context, id string) (*models.JobPosting, error) {
	if j, ok := s.items[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *jobRepoStub) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error) {
	var jobs []models.JobPosting
	for _, j := range s.items {
		jobs = append(jobs, *j)
	}
	return jobs, len(jobs), nil
}

func (s *jobRepoStub) Create(ctx context.Context, job *models.JobPosting) error {
	job.ID = "job-new"
	s.created = append(s.created, job)
	return nil
}

func (s *jobRepoStub) Update(ctx context.Context, job *models.JobPosting) error { return nil }

func (s *jobRepoStub) Delete(ctx context.Context, id string) error { return nil }

func newJobHandlerFixture() (*JobHandler, *jobRepoStub) {
	repo := &jobRepoStub{items: map[string]*models.JobPosting{
		"job-1": {ID: "job-1", Title: "Backend Engineer", Department: "Engineering", Status: models.JobStatusActive},
	}}
	return NewJobHandler(service.NewJobService(repo, nil, nil)), repo
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return c, w
}

func TestJobHandlerGet(t *testing.T) {
	h, _ := newJobHandlerFixture()
	c, w := testContext(t, http.MethodGet, "/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", data["title"])
}

func TestJobHandlerGetNotFound(t *testing.T) {
	h, _ := newJobHandlerFixture()
	c, w := testContext(t, http.MethodGet, "/jobs/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestJobHandlerCreate(t *testing.T) {
	h, repo := newJobHandlerFixture()
	payload, err := json.Marshal(service.JobRequest{
		Title:      "Data Engineer",
		Department: "Engineering",
		Status:     models.JobStatusActive,
	})
	require.NoError(t, err)
	c, w := testContext(t, http.MethodPost, "/jobs", payload)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "admin-1", repo.created[0].CreatedBy)
}

func TestJobHandlerCreateRejectsMalformedBody(t *testing.T) {
	h, _ := newJobHandlerFixture()
	c, w := testContext(t, http.MethodPost, "/jobs", []byte(`{"title":`))

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandlerList(t *testing.T) {
	h, _ := newJobHandlerFixture()
	c, w := testContext(t, http.MethodGet, "/jobs?page=1&page_size=10", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

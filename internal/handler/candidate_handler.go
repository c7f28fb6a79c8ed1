package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/internal/service"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/response"
	"github.com/hirestack/ats-api/pkg/storage"
)

// CandidateHandler wires HTTP endpoints to the candidate service.
type CandidateHandler struct {
	service *service.CandidateService
	uploads *storage.UploadStore
}

// NewCandidateHandler creates a new handler.
func NewCandidateHandler(svc *service.CandidateService, uploads *storage.UploadStore) *CandidateHandler {
	return &CandidateHandler{service: svc, uploads: uploads}
}

// List godoc
// @Summary List candidates
// @Tags Candidates
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param stage query string false "Stage filter"
// @Param job_id query string false "Job filter"
// @Param search query string false "Search"
// @Success 200 {object} response.Envelope
// @Router /candidates [get]
func (h *CandidateHandler) List(c *gin.Context) {
	filter := models.CandidateFilter{
		JobID:      c.Query("job_id"),
		AssignedTo: c.Query("assigned_to"),
		Source:     c.Query("source"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if stage := c.Query("stage"); stage != "" {
		s := models.CandidateStage(stage)
		filter.Stage = &s
	}

	candidates, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, pagination)
}

// Get godoc
// @Summary Get candidate
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /candidates/{id} [get]
func (h *CandidateHandler) Get(c *gin.Context) {
	candidate, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// Create godoc
// @Summary Create candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Param payload body service.CreateCandidateRequest true "Candidate payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /candidates [post]
func (h *CandidateHandler) Create(c *gin.Context) {
	var req service.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}

	candidate, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, candidate)
}

// Update godoc
// @Summary Update candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.UpdateCandidateRequest true "Candidate payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /candidates/{id} [put]
func (h *CandidateHandler) Update(c *gin.Context) {
	var req service.UpdateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}

	candidate, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// UpdateStage godoc
// @Summary Move candidate to another stage
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.UpdateStageRequest true "Stage payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /candidates/{id}/stage [put]
func (h *CandidateHandler) UpdateStage(c *gin.Context) {
	var req service.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid stage payload"))
		return
	}

	candidate, err := h.service.UpdateStage(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// UploadResume godoc
// @Summary Upload candidate resume
// @Tags Candidates
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Candidate ID"
// @Param file formData file true "Resume file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /candidates/{id}/resume [post]
func (h *CandidateHandler) UploadResume(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resume file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "could not read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "could not read uploaded file"))
		return
	}

	stored, err := h.uploads.Save(data, fileHeader.Filename)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}

	candidate, err := h.service.AttachResume(c.Request.Context(), c.Param("id"), stored.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// DownloadResume godoc
// @Summary Download candidate resume
// @Tags Candidates
// @Produce octet-stream
// @Param id path string true "Candidate ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /candidates/{id}/resume [get]
func (h *CandidateHandler) DownloadResume(c *gin.Context) {
	candidate, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if candidate.ResumeFilename == nil || !h.uploads.Exists(*candidate.ResumeFilename) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "resume not found"))
		return
	}

	file, err := h.uploads.Open(*candidate.ResumeFilename)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not open resume"))
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename="+*candidate.ResumeFilename)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

// Delete godoc
// @Summary Delete candidate
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /candidates/{id} [delete]
func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListNotes godoc
// @Summary List candidate notes
// @Description Private notes are visible only to their author, Admin, or HR Manager
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/notes [get]
func (h *CandidateHandler) ListNotes(c *gin.Context) {
	notes, err := h.service.ListNotes(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// CreateNote godoc
// @Summary Add candidate note
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.NoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /candidates/{id}/notes [post]
func (h *CandidateHandler) CreateNote(c *gin.Context) {
	var req service.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}

	note, err := h.service.CreateNote(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// UpdateNote godoc
// @Summary Edit candidate note
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param noteId path string true "Note ID"
// @Param payload body service.NoteRequest true "Note payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /candidates/{id}/notes/{noteId} [put]
func (h *CandidateHandler) UpdateNote(c *gin.Context) {
	var req service.NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}

	note, err := h.service.UpdateNote(c.Request.Context(), c.Param("noteId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// DeleteNote godoc
// @Summary Delete candidate note
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Param noteId path string true "Note ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /candidates/{id}/notes/{noteId} [delete]
func (h *CandidateHandler) DeleteNote(c *gin.Context) {
	if err := h.service.DeleteNote(c.Request.Context(), c.Param("noteId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRatings godoc
// @Summary List candidate ratings
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/ratings [get]
func (h *CandidateHandler) ListRatings(c *gin.Context) {
	ratings, err := h.service.ListRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, nil)
}

// CreateRating godoc
// @Summary Add candidate rating
// @Description One rating per candidate, author, and type
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body service.RatingRequest true "Rating payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /candidates/{id}/ratings [post]
func (h *CandidateHandler) CreateRating(c *gin.Context) {
	var req service.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}

	rating, err := h.service.CreateRating(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rating)
}

// UpdateRating godoc
// @Summary Edit candidate rating
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param ratingId path string true "Rating ID"
// @Param payload body service.RatingRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /candidates/{id}/ratings/{ratingId} [put]
func (h *CandidateHandler) UpdateRating(c *gin.Context) {
	var req service.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}

	rating, err := h.service.UpdateRating(c.Request.Context(), c.Param("ratingId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}

// DeleteRating godoc
// @Summary Delete candidate rating
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Param ratingId path string true "Rating ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /candidates/{id}/ratings/{ratingId} [delete]
func (h *CandidateHandler) DeleteRating(c *gin.Context) {
	if err := h.service.DeleteRating(c.Request.Context(), c.Param("ratingId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

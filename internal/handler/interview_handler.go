package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/internal/service"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/response"
)

// InterviewHandler wires HTTP endpoints to the interview service.
type InterviewHandler struct {
	service *service.InterviewService
}

// NewInterviewHandler creates a new handler.
func NewInterviewHandler(svc *service.InterviewService) *InterviewHandler {
	return &InterviewHandler{service: svc}
}

// List godoc
// @Summary List interviews
// @Tags Interviews
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param candidate_id query string false "Candidate filter"
// @Param interviewer_id query string false "Interviewer filter"
// @Param status query string false "Status filter"
// @Param date_from query string false "Scheduled from (RFC3339)"
// @Param date_to query string false "Scheduled to (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /interviews [get]
func (h *InterviewHandler) List(c *gin.Context) {
	filter := models.InterviewFilter{
		CandidateID:   c.Query("candidate_id"),
		InterviewerID: c.Query("interviewer_id"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if status := c.Query("status"); status != "" {
		s := models.InterviewStatus(status)
		filter.Status = &s
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.DateTo = &t
		}
	}

	interviews, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interviews, pagination)
}

// Get godoc
// @Summary Get interview
// @Tags Interviews
// @Produce json
// @Param id path string true "Interview ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interviews/{id} [get]
func (h *InterviewHandler) Get(c *gin.Context) {
	interview, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interview, nil)
}

// Schedule godoc
// @Summary Schedule interview
// @Description Rejects slots that overlap another interview for the same interviewer
// @Tags Interviews
// @Accept json
// @Produce json
// @Param payload body service.ScheduleInterviewRequest true "Interview payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /interviews [post]
func (h *InterviewHandler) Schedule(c *gin.Context) {
	var req service.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid interview payload"))
		return
	}

	interview, err := h.service.Schedule(c.Request.Context(), req, actorID(claimsFromContext(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, interview)
}

// Update godoc
// @Summary Update interview
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Interview ID"
// @Param payload body service.UpdateInterviewRequest true "Interview payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /interviews/{id} [put]
func (h *InterviewHandler) Update(c *gin.Context) {
	var req service.UpdateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid interview payload"))
		return
	}

	interview, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interview, nil)
}

// UpdateStatus godoc
// @Summary Update interview status
// @Description Only the assigned interviewer, Admin, or HR Manager may change status
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Interview ID"
// @Param payload body service.UpdateInterviewStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /interviews/{id}/status [put]
func (h *InterviewHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateInterviewStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	interview, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interview, nil)
}

// Delete godoc
// @Summary Delete interview
// @Tags Interviews
// @Produce json
// @Param id path string true "Interview ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interviews/{id} [delete]
func (h *InterviewHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetFeedback godoc
// @Summary Get interview feedback
// @Tags Interviews
// @Produce json
// @Param id path string true "Interview ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /interviews/{id}/feedback [get]
func (h *InterviewHandler) GetFeedback(c *gin.Context) {
	feedback, err := h.service.GetFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feedback, nil)
}

// CreateFeedback godoc
// @Summary Submit interview feedback
// @Description Requires a Completed interview; one feedback per interview, written by the interviewer or an Admin
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Interview ID"
// @Param payload body service.CreateFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /interviews/{id}/feedback [post]
func (h *InterviewHandler) CreateFeedback(c *gin.Context) {
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	feedback, err := h.service.CreateFeedback(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

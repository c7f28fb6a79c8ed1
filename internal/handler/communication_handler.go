package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/internal/service"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/response"
)

// CommunicationHandler wires HTTP endpoints to the communication service.
type CommunicationHandler struct {
	service *service.CommunicationService
}

// NewCommunicationHandler creates a new handler.
func NewCommunicationHandler(svc *service.CommunicationService) *CommunicationHandler {
	return &CommunicationHandler{service: svc}
}

// List godoc
// @Summary List communications
// @Tags Communications
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param candidate_id query string false "Candidate filter"
// @Param type query string false "Type filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /communications [get]
func (h *CommunicationHandler) List(c *gin.Context) {
	filter := models.CommunicationFilter{
		CandidateID: c.Query("candidate_id"),
		CreatedBy:   c.Query("created_by"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if typ := c.Query("type"); typ != "" {
		t := models.CommunicationType(typ)
		filter.Type = &t
	}
	if status := c.Query("status"); status != "" {
		s := models.CommunicationStatus(status)
		filter.Status = &s
	}

	comms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comms, pagination)
}

// Get godoc
// @Summary Get communication
// @Tags Communications
// @Produce json
// @Param id path string true "Communication ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /communications/{id} [get]
func (h *CommunicationHandler) Get(c *gin.Context) {
	comm, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comm, nil)
}

// Create godoc
// @Summary Log a communication
// @Tags Communications
// @Accept json
// @Produce json
// @Param payload body service.CommunicationRequest true "Communication payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /communications [post]
func (h *CommunicationHandler) Create(c *gin.Context) {
	var req service.CommunicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid communication payload"))
		return
	}

	comm, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comm)
}

// Update godoc
// @Summary Update communication
// @Description Only the author, Admin, or HR Manager may edit
// @Tags Communications
// @Accept json
// @Produce json
// @Param id path string true "Communication ID"
// @Param payload body service.CommunicationRequest true "Communication payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /communications/{id} [put]
func (h *CommunicationHandler) Update(c *gin.Context) {
	var req service.CommunicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid communication payload"))
		return
	}

	comm, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comm, nil)
}

// Delete godoc
// @Summary Delete communication
// @Description Only the author or an Admin may delete
// @Tags Communications
// @Produce json
// @Param id path string true "Communication ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /communications/{id} [delete]
func (h *CommunicationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

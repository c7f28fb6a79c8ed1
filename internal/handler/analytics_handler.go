package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hirestack/ats-api/internal/models"
	"github.com/hirestack/ats-api/internal/service"
	"github.com/hirestack/ats-api/pkg/response"
)

// AnalyticsHandler wires HTTP endpoints to the analytics service.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler creates a new handler.
func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

func analyticsFilter(c *gin.Context) models.AnalyticsFilter {
	filter := models.AnalyticsFilter{JobID: c.Query("job_id")}
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
	return filter
}

// Pipeline godoc
// @Summary Pipeline dashboard report
// @Description Funnel, conversions, time-to-hire, sources, and per-job counts in one payload
// @Tags Analytics
// @Produce json
// @Param job_id query string false "Job filter"
// @Param date_from query string false "From (RFC3339)"
// @Param date_to query string false "To (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /analytics/pipeline [get]
func (h *AnalyticsHandler) Pipeline(c *gin.Context) {
	report, err := h.service.PipelineReport(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Funnel godoc
// @Summary Stage funnel counts
// @Tags Analytics
// @Produce json
// @Param job_id query string false "Job filter"
// @Success 200 {object} response.Envelope
// @Router /analytics/funnel [get]
func (h *AnalyticsHandler) Funnel(c *gin.Context) {
	funnel, err := h.service.Funnel(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, funnel, nil)
}

// TimeToHire godoc
// @Summary Time-to-hire statistics
// @Tags Analytics
// @Produce json
// @Param job_id query string false "Job filter"
// @Success 200 {object} response.Envelope
// @Router /analytics/time-to-hire [get]
func (h *AnalyticsHandler) TimeToHire(c *gin.Context) {
	stats, err := h.service.TimeToHire(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Sources godoc
// @Summary Source effectiveness
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/sources [get]
func (h *AnalyticsHandler) Sources(c *gin.Context) {
	sources, err := h.service.Sources(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sources, nil)
}

// Jobs godoc
// @Summary Applicant counts per job
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/jobs [get]
func (h *AnalyticsHandler) Jobs(c *gin.Context) {
	counts, err := h.service.JobCounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// System godoc
// @Summary Runtime and request metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}

// ExportCSV godoc
// @Summary Export the pipeline report as CSV
// @Tags Analytics
// @Produce text/csv
// @Param job_id query string false "Job filter"
// @Success 200 {file} binary
// @Router /analytics/export/csv [get]
func (h *AnalyticsHandler) ExportCSV(c *gin.Context) {
	data, err := h.service.ExportCSV(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("pipeline-report-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export the pipeline report as PDF
// @Tags Analytics
// @Produce application/pdf
// @Param job_id query string false "Job filter"
// @Success 200 {file} binary
// @Router /analytics/export/pdf [get]
func (h *AnalyticsHandler) ExportPDF(c *gin.Context) {
	data, err := h.service.ExportPDF(c.Request.Context(), analyticsFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("pipeline-report-%s.pdf", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}

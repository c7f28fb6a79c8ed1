package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hirestack/ats-api/internal/models"
	appErrors "github.com/hirestack/ats-api/pkg/errors"
	"github.com/hirestack/ats-api/pkg/export"
)

type analyticsRepository interface {
	FunnelCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.FunnelStageCount, error)
	TimeToHire(ctx context.Context, filter models.AnalyticsFilter) (*models.TimeToHire, error)
	SourceEffectiveness(ctx context.Context, filter models.AnalyticsFilter) ([]models.SourceEffectiveness, error)
	JobApplicantCounts(ctx context.Context) ([]models.JobApplicantCount, error)
}

// AnalyticsService computes read-only hiring reports, cached in Redis.
type AnalyticsService struct {
	repo     analyticsRepository
	cache    *CacheService
	metrics  *MetricsService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(repo analyticsRepository, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AnalyticsService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// PipelineReport assembles the full dashboard aggregate, serving from cache
// when a fresh copy exists.
func (s *AnalyticsService) PipelineReport(ctx context.Context, filter models.AnalyticsFilter) (*models.PipelineReport, error) {
	cacheKey := pipelineCacheKey(filter)

	var cached models.PipelineReport
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	funnel, err := s.Funnel(ctx, filter)
	if err != nil {
		return nil, err
	}
	tth, err := s.TimeToHire(ctx, filter)
	if err != nil {
		return nil, err
	}
	sources, err := s.Sources(ctx, filter)
	if err != nil {
		return nil, err
	}
	jobs, err := s.JobCounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.PipelineReport{
		Funnel:      funnel,
		Conversions: stageConversions(funnel),
		TimeToHire:  *tth,
		Sources:     sources,
		Jobs:        jobs,
		GeneratedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache pipeline report", zap.Error(err))
		}
	}

	return report, nil
}

// Funnel returns candidate counts per stage, in pipeline order.
func (s *AnalyticsService) Funnel(ctx context.Context, filter models.AnalyticsFilter) ([]models.FunnelStageCount, error) {
	counts, err := s.repo.FunnelCounts(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute funnel")
	}

	byStage := make(map[models.CandidateStage]int, len(counts))
	for _, c := range counts {
		byStage[c.Stage] = c.Count
	}
	ordered := make([]models.FunnelStageCount, 0, len(models.Stages))
	for _, stage := range models.Stages {
		ordered = append(ordered, models.FunnelStageCount{Stage: stage, Count: byStage[stage]})
	}
	return ordered, nil
}

// TimeToHire reports average and median days from application to hire.
func (s *AnalyticsService) TimeToHire(ctx context.Context, filter models.AnalyticsFilter) (*models.TimeToHire, error) {
	tth, err := s.repo.TimeToHire(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute time to hire")
	}
	return tth, nil
}

// Sources reports candidate volume and hire rate per acquisition source.
func (s *AnalyticsService) Sources(ctx context.Context, filter models.AnalyticsFilter) ([]models.SourceEffectiveness, error) {
	sources, err := s.repo.SourceEffectiveness(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute source effectiveness")
	}
	if sources == nil {
		sources = []models.SourceEffectiveness{}
	}
	return sources, nil
}

// JobCounts reports applicant volume per posting.
func (s *AnalyticsService) JobCounts(ctx context.Context) ([]models.JobApplicantCount, error) {
	jobs, err := s.repo.JobApplicantCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute job applicant counts")
	}
	if jobs == nil {
		jobs = []models.JobApplicantCount{}
	}
	return jobs, nil
}

// SystemMetrics returns the runtime stats snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return s.metrics.Snapshot()
}

// Invalidate drops cached reports after candidate mutations.
func (s *AnalyticsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
		s.logger.Warn("failed to invalidate analytics cache", zap.Error(err))
	}
}

// ExportCSV renders the hiring report as CSV.
func (s *AnalyticsService) ExportCSV(ctx context.Context, filter models.AnalyticsFilter) ([]byte, error) {
	report, err := s.PipelineReport(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(reportDataset(report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
	}
	return data, nil
}

// ExportPDF renders the hiring report as PDF.
func (s *AnalyticsService) ExportPDF(ctx context.Context, filter models.AnalyticsFilter) ([]byte, error) {
	report, err := s.PipelineReport(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.pdf.Render(reportDataset(report), "Hiring Pipeline Report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
	}
	return data, nil
}

func pipelineCacheKey(filter models.AnalyticsFilter) string {
	from, to := "", ""
	if filter.DateFrom != nil {
		from = filter.DateFrom.Format("2006-01-02")
	}
	if filter.DateTo != nil {
		to = filter.DateTo.Format("2006-01-02")
	}
	return fmt.Sprintf("analytics:pipeline:%s:%s:%s", filter.JobID, from, to)
}

func stageConversions(funnel []models.FunnelStageCount) []models.StageConversion {
	conversions := make([]models.StageConversion, 0, len(funnel))
	for i := 0; i+1 < len(funnel); i++ {
		from, to := funnel[i], funnel[i+1]
		if to.Stage == models.StageRejected {
			continue
		}
		var rate float64
		if from.Count > 0 {
			rate = float64(to.Count) / float64(from.Count)
		}
		conversions = append(conversions, models.StageConversion{
			FromStage: from.Stage,
			ToStage:   to.Stage,
			FromCount: from.Count,
			ToCount:   to.Count,
			Rate:      rate,
		})
	}
	return conversions
}

func reportDataset(report *models.PipelineReport) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Funnel))
	for _, f := range report.Funnel {
		rows = append(rows, map[string]string{
			"Section": "Funnel",
			"Name":    string(f.Stage),
			"Value":   strconv.Itoa(f.Count),
		})
	}
	for _, src := range report.Sources {
		rows = append(rows, map[string]string{
			"Section": "Source",
			"Name":    src.Source,
			"Value":   fmt.Sprintf("%d candidates, %d hired (%.0f%%)", src.Candidates, src.Hired, src.HireRate*100),
		})
	}
	for _, job := range report.Jobs {
		rows = append(rows, map[string]string{
			"Section": "Job",
			"Name":    job.Title,
			"Value":   fmt.Sprintf("%d applicants, %d hired", job.Applicants, job.Hired),
		})
	}
	rows = append(rows, map[string]string{
		"Section": "TimeToHire",
		"Name":    "average days",
		"Value":   fmt.Sprintf("%.1f", report.TimeToHire.AverageDays),
	})
	return export.Dataset{Headers: []string{"Section", "Name", "Value"}, Rows: rows}
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/ats-api/internal/models"
)

type analyticsRepoStub struct {
	funnel      []models.FunnelStageCount
	funnelCalls int
	timeToHire  models.TimeToHire
	sources     []models.SourceEffectiveness
	jobs        []models.JobApplicantCount
}

func (s *analyticsRepoStub) FunnelCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.FunnelStageCount, error) {
	s.funnelCalls++
	return s.funnel, nil
}

func (s *analyticsRepoStub) TimeToHire(ctx context.Context, filter models.AnalyticsFilter) (*models.TimeToHire, error) {
	tth := s.timeToHire
	return &tth, nil
}

func (s *analyticsRepoStub) SourceEffectiveness(ctx context.Context, filter models.AnalyticsFilter) ([]models.SourceEffectiveness, error) {
	return s.sources, nil
}

func (s *analyticsRepoStub) JobApplicantCounts(ctx context.Context) ([]models.JobApplicantCount, error) {
	return s.jobs, nil
}

func newAnalyticsFixture() (*AnalyticsService, *analyticsRepoStub) {
	repo := &analyticsRepoStub{
		funnel: []models.FunnelStageCount{
			{Stage: models.StageHired, Count: 2},
			{Stage: models.StageApplied, Count: 10},
			{Stage: models.StageInterview, Count: 4},
		},
		timeToHire: models.TimeToHire{HiredCount: 2, AverageDays: 21.5, MedianDays: 20},
		sources: []models.SourceEffectiveness{
			{Source: "Referral", Candidates: 5, Hired: 2, HireRate: 0.4},
		},
		jobs: []models.JobApplicantCount{
			{JobID: "job-1", Title: "Backend Engineer", Applicants: 10, Hired: 2},
		},
	}
	return NewAnalyticsService(repo, nil, nil, 0, nil), repo
}

func TestFunnelZeroFillsStagesInPipelineOrder(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	funnel, err := svc.Funnel(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, funnel, len(models.Stages))
	for i, stage := range models.Stages {
		assert.Equal(t, stage, funnel[i].Stage)
	}
	assert.Equal(t, 10, funnel[0].Count)
	assert.Equal(t, 0, funnel[1].Count)
	assert.Equal(t, 4, funnel[2].Count)
}

func TestPipelineReportConversionsSkipRejected(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	report, err := svc.PipelineReport(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)

	for _, conv := range report.Conversions {
		assert.NotEqual(t, models.StageRejected, conv.ToStage)
	}

	// Applied(10) -> Screening(0) is the first conversion.
	require.NotEmpty(t, report.Conversions)
	first := report.Conversions[0]
	assert.Equal(t, models.StageApplied, first.FromStage)
	assert.Equal(t, models.StageScreening, first.ToStage)
	assert.Equal(t, float64(0), first.Rate)
}

func TestPipelineReportWithoutCacheHitsRepoEachTime(t *testing.T) {
	svc, repo := newAnalyticsFixture()

	_, err := svc.PipelineReport(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)
	_, err = svc.PipelineReport(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.funnelCalls)
}

func TestExportCSVContainsReportSections(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	data, err := svc.ExportCSV(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "Section,Name,Value"))
	assert.Contains(t, out, "Funnel,Applied,10")
	assert.Contains(t, out, "Source,Referral")
	assert.Contains(t, out, "Job,Backend Engineer")
	assert.Contains(t, out, "TimeToHire,average days,21.5")
}

func TestExportPDFProducesDocument(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	data, err := svc.ExportPDF(context.Background(), models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

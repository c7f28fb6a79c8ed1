package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/hirestack/ats-api/internal/models"
)

// AnalyticsRepository exposes read-optimised queries for reporting endpoints.
// Pure projection, no state.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func appendCandidateFilters(builder *strings.Builder, args *[]interface{}, filter models.AnalyticsFilter) {
	if filter.JobID != "" {
		*args = append(*args, filter.JobID)
		builder.WriteString(fmt.Sprintf(" AND job_id = $%d", len(*args)))
	}
	if filter.DateFrom != nil {
		*args = append(*args, *filter.DateFrom)
		builder.WriteString(fmt.Sprintf(" AND applied_date >= $%d", len(*args)))
	}
	if filter.DateTo != nil {
		*args = append(*args, *filter.DateTo)
		builder.WriteString(fmt.Sprintf(" AND applied_date <= $%d", len(*args)))
	}
}

// FunnelCounts returns candidate counts per funnel stage.
func (r *AnalyticsRepository) FunnelCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.FunnelStageCount, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT stage, COUNT(*) AS count FROM candidates WHERE 1=1`)
	var args []interface{}
	appendCandidateFilters(&builder, &args, filter)
	builder.WriteString(" GROUP BY stage")

	var counts []models.FunnelStageCount
	if err := r.db.SelectContext(ctx, &counts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query funnel counts: %w", err)
	}
	return counts, nil
}

// TimeToHire aggregates days from application to the last stage change for
// hired candidates.
func (r *AnalyticsRepository) TimeToHire(ctx context.Context, filter models.AnalyticsFilter) (*models.TimeToHire, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COUNT(*) AS hired_count,
		COALESCE(AVG(EXTRACT(EPOCH FROM (updated_at - applied_date)) / 86400), 0) AS average_days,
		COALESCE(PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM (updated_at - applied_date)) / 86400), 0) AS median_days
		FROM candidates WHERE stage = 'Hired'`)
	var args []interface{}
	appendCandidateFilters(&builder, &args, filter)

	var result models.TimeToHire
	if err := r.db.GetContext(ctx, &result, builder.String(), args...); err != nil {
		if err == sql.ErrNoRows {
			return &models.TimeToHire{}, nil
		}
		return nil, fmt.Errorf("query time to hire: %w", err)
	}
	return &result, nil
}

// SourceEffectiveness counts candidates and hires grouped by source.
func (r *AnalyticsRepository) SourceEffectiveness(ctx context.Context, filter models.AnalyticsFilter) ([]models.SourceEffectiveness, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT source,
		COUNT(*) AS candidates,
		SUM(CASE WHEN stage = 'Hired' THEN 1 ELSE 0 END) AS hired,
		CASE WHEN COUNT(*) = 0 THEN 0 ELSE SUM(CASE WHEN stage = 'Hired' THEN 1 ELSE 0 END)::DECIMAL / COUNT(*) END AS hire_rate
		FROM candidates WHERE source <> ''`)
	var args []interface{}
	appendCandidateFilters(&builder, &args, filter)
	builder.WriteString(" GROUP BY source ORDER BY candidates DESC")

	var sources []models.SourceEffectiveness
	if err := r.db.SelectContext(ctx, &sources, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query source effectiveness: %w", err)
	}
	return sources, nil
}

// JobApplicantCounts summarises candidate volume per posting.
func (r *AnalyticsRepository) JobApplicantCounts(ctx context.Context) ([]models.JobApplicantCount, error) {
	const query = `SELECT j.id AS job_id, j.title, j.department, j.status,
		COUNT(c.id) AS applicants,
		SUM(CASE WHEN c.stage = 'Hired' THEN 1 ELSE 0 END) AS hired
		FROM job_postings j
		LEFT JOIN candidates c ON c.job_id = j.id
		GROUP BY j.id, j.title, j.department, j.status
		ORDER BY applicants DESC`

	var counts []models.JobApplicantCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("query job applicant counts: %w", err)
	}
	return counts, nil
}

package models

import "time"

// FunnelStageCount is one row of the pipeline funnel.
type FunnelStageCount struct {
	Stage CandidateStage `db:"stage" json:"stage"`
	Count int            `db:"count" json:"count"`
}

// StageConversion reports how candidates flow between two adjacent stages.
type StageConversion struct {
	FromStage CandidateStage `json:"from_stage"`
	ToStage   CandidateStage `json:"to_stage"`
	FromCount int            `json:"from_count"`
	ToCount   int            `json:"to_count"`
	Rate      float64        `json:"rate"`
}

// TimeToHire aggregates days from application to hire.
type TimeToHire struct {
	HiredCount  int     `db:"hired_count" json:"hired_count"`
	AverageDays float64 `db:"average_days" json:"average_days"`
	MedianDays  float64 `db:"median_days" json:"median_days"`
}

// SourceEffectiveness counts candidates and hires per acquisition source.
type SourceEffectiveness struct {
	Source     string  `db:"source" json:"source"`
	Candidates int     `db:"candidates" json:"candidates"`
	Hired      int     `db:"hired" json:"hired"`
	HireRate   float64 `db:"hire_rate" json:"hire_rate"`
}

// JobApplicantCount summarises candidate volume per posting.
type JobApplicantCount struct {
	JobID      string    `db:"job_id" json:"job_id"`
	Title      string    `db:"title" json:"title"`
	Department string    `db:"department" json:"department"`
	Status     JobStatus `db:"status" json:"status"`
	Applicants int       `db:"applicants" json:"applicants"`
	Hired      int       `db:"hired" json:"hired"`
}

// AnalyticsFilter bounds reporting queries.
type AnalyticsFilter struct {
	JobID    string
	DateFrom *time.Time
	DateTo   *time.Time
}

// PipelineReport bundles the dashboard aggregates.
type PipelineReport struct {
	Funnel      []FunnelStageCount    `json:"funnel"`
	Conversions []StageConversion     `json:"conversions"`
	TimeToHire  TimeToHire            `json:"time_to_hire"`
	Sources     []SourceEffectiveness `json:"sources"`
	Jobs        []JobApplicantCount   `json:"jobs"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// AnalyticsSystemMetrics is a lightweight runtime stats snapshot.
type AnalyticsSystemMetrics struct {
	RequestCount     uint64  `json:"request_count"`
	AvgRequestMs     float64 `json:"avg_request_ms"`
	CacheHitRatio    float64 `json:"cache_hit_ratio"`
	DBQueryCount     uint64  `json:"db_query_count"`
	AvgDBQueryMs     float64 `json:"avg_db_query_ms"`
	GoroutineCount   int     `json:"goroutine_count"`
	HeapAllocBytes   uint64  `json:"heap_alloc_bytes"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	LastCollectedUTC string  `json:"last_collected_utc"`
}

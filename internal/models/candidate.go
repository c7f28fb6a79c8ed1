package models

import (
	"time"

	"github.com/lib/pq"
)

// CandidateStage is the candidate's position in the hiring funnel. Transitions
// are free-form: any permitted caller may set any stage value.
type CandidateStage string

const (
	StageApplied   CandidateStage = "Applied"
	StageScreening CandidateStage = "Screening"
	StageInterview CandidateStage = "Interview"
	StageOffer     CandidateStage = "Offer"
	StageHired     CandidateStage = "Hired"
	StageRejected  CandidateStage = "Rejected"
)

// Stages lists the funnel stages in pipeline order.
var Stages = []CandidateStage{
	StageApplied,
	StageScreening,
	StageInterview,
	StageOffer,
	StageHired,
	StageRejected,
}

// ValidStage reports whether the value is a known funnel stage.
func ValidStage(s CandidateStage) bool {
	for _, stage := range Stages {
		if stage == s {
			return true
		}
	}
	return false
}

// Candidate represents an applicant in the candidates table. JobID is an
// explicit foreign key to job_postings; Position carries the legacy free-text
// title for display only and takes no part in joins.
type Candidate struct {
	ID                      string            `db:"id" json:"id"`
	Name                    string            `db:"name" json:"name"`
	Email                   string            `db:"email" json:"email"`
	Phone                   string            `db:"phone" json:"phone"`
	JobID                   *string           `db:"job_id" json:"job_id,omitempty"`
	Position                string            `db:"position" json:"position"`
	Stage                   CandidateStage    `db:"stage" json:"stage"`
	Source                  string            `db:"source" json:"source"`
	AppliedDate             time.Time         `db:"applied_date" json:"applied_date"`
	Score                   float64           `db:"score" json:"score"`
	AssignedTo              *string           `db:"assigned_to" json:"assigned_to,omitempty"`
	Skills                  pq.StringArray    `db:"skills" json:"skills"`
	ExpectedSalary          *int64            `db:"expected_salary" json:"expected_salary,omitempty"`
	NoticePeriodDays        *int              `db:"notice_period_days" json:"notice_period_days,omitempty"`
	WorkPreference          string            `db:"work_preference" json:"work_preference"`
	ResumeFilename          *string           `db:"resume_filename" json:"resume_filename,omitempty"`
	InHouseAssignmentStatus *AssignmentStatus `db:"in_house_assignment_status" json:"in_house_assignment_status,omitempty"`
	InterviewerID           *string           `db:"interviewer_id" json:"interviewer_id,omitempty"`
	InterviewDate           *time.Time        `db:"interview_date" json:"interview_date,omitempty"`
	CreatedAt               time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time         `db:"updated_at" json:"updated_at"`
}

// CandidateFilter captures filtering criteria for listing candidates.
type CandidateFilter struct {
	Stage      *CandidateStage
	JobID      string
	AssignedTo string
	Source     string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CandidateNote is a per-author note on a candidate. Private notes are visible
// only to their author, Admin, or HR Manager.
type CandidateNote struct {
	ID          string    `db:"id" json:"id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	Content     string    `db:"content" json:"content"`
	Private     bool      `db:"private" json:"private"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CandidateRating scores a candidate on one dimension. Unique per
// (candidate, author, rating type).
type CandidateRating struct {
	ID          string    `db:"id" json:"id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	RatingType  string    `db:"rating_type" json:"rating_type"`
	Score       float64   `db:"score" json:"score"`
	Comment     string    `db:"comment" json:"comment"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

package models

import "time"

// InterviewType classifies an interview round.
type InterviewType string

const (
	InterviewTypeTechnical  InterviewType = "Technical"
	InterviewTypeHR         InterviewType = "HR"
	InterviewTypeManagerial InterviewType = "Managerial"
	InterviewTypeFinal      InterviewType = "Final"
)

// InterviewStatus is the scheduling state of an interview.
type InterviewStatus string

const (
	InterviewStatusScheduled   InterviewStatus = "Scheduled"
	InterviewStatusInProgress  InterviewStatus = "In Progress"
	InterviewStatusCompleted   InterviewStatus = "Completed"
	InterviewStatusCancelled   InterviewStatus = "Cancelled"
	InterviewStatusRescheduled InterviewStatus = "Rescheduled"
)

// ValidInterviewStatus reports whether the value is a known status.
func ValidInterviewStatus(s InterviewStatus) bool {
	switch s {
	case InterviewStatusScheduled, InterviewStatusInProgress, InterviewStatusCompleted,
		InterviewStatusCancelled, InterviewStatusRescheduled:
		return true
	}
	return false
}

// Interview represents a scheduled interview round. No two Scheduled
// interviews for the same interviewer may overlap in
// [scheduled_date, scheduled_date + duration).
type Interview struct {
	ID            string          `db:"id" json:"id"`
	CandidateID   string          `db:"candidate_id" json:"candidate_id"`
	InterviewerID string          `db:"interviewer_id" json:"interviewer_id"`
	ScheduledDate time.Time       `db:"scheduled_date" json:"scheduled_date"`
	DurationMins  int             `db:"duration_mins" json:"duration_mins"`
	Type          InterviewType   `db:"type" json:"type"`
	Status        InterviewStatus `db:"status" json:"status"`
	Round         int             `db:"round" json:"round"`
	Location      string          `db:"location" json:"location"`
	CreatedBy     string          `db:"created_by" json:"created_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Window returns the occupied time range.
func (i *Interview) Window() (time.Time, time.Time) {
	return i.ScheduledDate, i.ScheduledDate.Add(time.Duration(i.DurationMins) * time.Minute)
}

// InterviewFeedback is the one-to-one review of a Completed interview.
// Immutable once created.
type InterviewFeedback struct {
	ID             string    `db:"id" json:"id"`
	InterviewID    string    `db:"interview_id" json:"interview_id"`
	InterviewerID  string    `db:"interviewer_id" json:"interviewer_id"`
	Rating         float64   `db:"rating" json:"rating"`
	Strengths      string    `db:"strengths" json:"strengths"`
	Weaknesses     string    `db:"weaknesses" json:"weaknesses"`
	Recommendation string    `db:"recommendation" json:"recommendation"`
	Comments       string    `db:"comments" json:"comments"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// InterviewFilter captures filtering criteria for listing interviews.
type InterviewFilter struct {
	CandidateID   string
	InterviewerID string
	Status        *InterviewStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

const (
	JobStatusActive JobStatus = "Active"
	JobStatusPaused JobStatus = "Paused"
	JobStatusClosed JobStatus = "Closed"
)

// JobPortal records where a posting has been published and how it performs.
type JobPortal struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	Applicants int    `json:"applicants"`
}

// JobPortalList is stored as a JSONB column.
type JobPortalList []JobPortal

// Value implements driver.Valuer.
func (l JobPortalList) Value() (interface{}, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *JobPortalList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	}
	return json.Unmarshal(raw, l)
}

// JobPosting represents an open position in the job_postings table.
type JobPosting struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Department      string         `db:"department" json:"department"`
	Location        string         `db:"location" json:"location"`
	JobType         string         `db:"job_type" json:"job_type"`
	Status          JobStatus      `db:"status" json:"status"`
	PostedDate      time.Time      `db:"posted_date" json:"posted_date"`
	Deadline        *time.Time     `db:"deadline" json:"deadline,omitempty"`
	Requirements    pq.StringArray `db:"requirements" json:"requirements"`
	Portals         JobPortalList  `db:"portals" json:"portals"`
	AssignedUserIDs pq.StringArray `db:"assigned_user_ids" json:"assigned_user_ids"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// JobFilter captures filtering criteria for listing job postings.
type JobFilter struct {
	Status     *JobStatus
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

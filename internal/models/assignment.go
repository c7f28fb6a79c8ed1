package models

import (
	"encoding/json"
	"time"
)

// AssignmentStatus captures the workflow state of an in-house assignment.
type AssignmentStatus string

const (
	AssignmentStatusDraft      AssignmentStatus = "Draft"
	AssignmentStatusAssigned   AssignmentStatus = "Assigned"
	AssignmentStatusInProgress AssignmentStatus = "In Progress"
	AssignmentStatusSubmitted  AssignmentStatus = "Submitted"
	AssignmentStatusApproved   AssignmentStatus = "Approved"
	AssignmentStatusRejected   AssignmentStatus = "Rejected"
	AssignmentStatusCancelled  AssignmentStatus = "Cancelled"
)

// AssignmentStatuses lists all workflow states.
var AssignmentStatuses = []AssignmentStatus{
	AssignmentStatusDraft,
	AssignmentStatusAssigned,
	AssignmentStatusInProgress,
	AssignmentStatusSubmitted,
	AssignmentStatusApproved,
	AssignmentStatusRejected,
	AssignmentStatusCancelled,
}

// ValidAssignmentStatus reports whether the value is a known workflow state.
func ValidAssignmentStatus(s AssignmentStatus) bool {
	for _, status := range AssignmentStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// AssignmentAttachment describes a stored file linked to an assignment.
type AssignmentAttachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	MIMEType     string `json:"mimeType"`
}

// AttachmentList is stored as a JSONB column.
type AttachmentList []AssignmentAttachment

// Value implements driver.Valuer.
func (l AttachmentList) Value() (interface{}, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *AttachmentList) Scan(src interface{}) error {
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

// Assignment is an in-house test or exercise sent to a candidate. Created in
// Draft; once the status leaves Draft it can never return, and the row is
// deletable only while still Draft.
type Assignment struct {
	ID              string           `db:"id" json:"id"`
	CandidateID     string           `db:"candidate_id" json:"candidate_id"`
	JobID           *string          `db:"job_id" json:"job_id,omitempty"`
	AssignedBy      string           `db:"assigned_by" json:"assigned_by"`
	Title           string           `db:"title" json:"title"`
	DescriptionHTML string           `db:"description_html" json:"description_html"`
	DueDate         *time.Time       `db:"due_date" json:"due_date,omitempty"`
	Status          AssignmentStatus `db:"status" json:"status"`
	Attachments     AttachmentList   `db:"attachments" json:"attachments"`
	SentAt          *time.Time       `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// Sendable reports whether the assignment carries enough content to be sent:
// a non-empty description or at least one attachment.
func (a *Assignment) Sendable() bool {
	return a.DescriptionHTML != "" || len(a.Attachments) > 0
}

// AssignmentFilter captures filtering criteria for listing assignments.
type AssignmentFilter struct {
	CandidateID string
	Status      *AssignmentStatus
	AssignedBy  string
	Page        int
	PageSize    int
}

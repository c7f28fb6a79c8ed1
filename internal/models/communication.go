package models

import "time"

// CommunicationType is the channel a touchpoint went through.
type CommunicationType string

const (
	CommunicationEmail    CommunicationType = "Email"
	CommunicationPhone    CommunicationType = "Phone"
	CommunicationWhatsApp CommunicationType = "WhatsApp"
	CommunicationLinkedIn CommunicationType = "LinkedIn"
)

// CommunicationStatus tracks delivery state of a touchpoint.
type CommunicationStatus string

const (
	CommunicationStatusSent      CommunicationStatus = "Sent"
	CommunicationStatusReceived  CommunicationStatus = "Received"
	CommunicationStatusPending   CommunicationStatus = "Pending"
	CommunicationStatusDelivered CommunicationStatus = "Delivered"
	CommunicationStatusRead      CommunicationStatus = "Read"
	CommunicationStatusReplied   CommunicationStatus = "Replied"
	CommunicationStatusFailed    CommunicationStatus = "Failed"
)

// Communication logs one candidate touchpoint. Mutation is restricted to the
// author or Admin/HR Manager; deletion to the author or Admin only.
type Communication struct {
	ID          string              `db:"id" json:"id"`
	CandidateID string              `db:"candidate_id" json:"candidate_id"`
	Type        CommunicationType   `db:"type" json:"type"`
	Subject     string              `db:"subject" json:"subject"`
	Content     string              `db:"content" json:"content"`
	Status      CommunicationStatus `db:"status" json:"status"`
	CreatedBy   string              `db:"created_by" json:"created_by"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// CommunicationFilter captures filtering criteria for listing communications.
type CommunicationFilter struct {
	CandidateID string
	Type        *CommunicationType
	Status      *CommunicationStatus
	CreatedBy   string
	Page        int
	PageSize    int
}

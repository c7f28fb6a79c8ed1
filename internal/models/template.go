package models

import (
	"time"

	"github.com/lib/pq"
)

// EmailTemplate is a reusable message body with {{name}} placeholders resolved
// at send time. Unresolved placeholders render as empty strings.
type EmailTemplate struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Subject   string         `db:"subject" json:"subject"`
	Body      string         `db:"body" json:"body"`
	Category  string         `db:"category" json:"category"`
	Variables pq.StringArray `db:"variables" json:"variables"`
	CreatedBy string         `db:"created_by" json:"created_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// TemplateFilter captures filtering criteria for listing templates.
type TemplateFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

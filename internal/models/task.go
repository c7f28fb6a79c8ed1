package models

import (
	"time"

	"github.com/hirestack/ats-api/pkg/mailer"
)

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "High"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityLow    TaskPriority = "Low"
)

// TaskStatus tracks task progress.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pending"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

// Task is an internal to-do item, distinct from an Assignment (sent to a
// candidate) and an Interview.
type Task struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	AssignedTo  *string      `db:"assigned_to" json:"assigned_to,omitempty"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	Status      TaskStatus   `db:"status" json:"status"`
	DueDate     *time.Time   `db:"due_date" json:"due_date,omitempty"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// TaskFilter captures filtering criteria for listing tasks.
type TaskFilter struct {
	AssignedTo string
	Status     *TaskStatus
	Priority   *TaskPriority
	Page       int
	PageSize   int
}

// TaskCreateResult pairs the created task with the outcome of the best-effort
// assignee notification. The notification can never fail the creation.
type TaskCreateResult struct {
	Task              *Task           `json:"task"`
	EmailNotification *mailer.Receipt `json:"emailNotification,omitempty"`
}

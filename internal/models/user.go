package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the hiring-team roles used by the permission system.
type UserRole string

const (
	RoleAdmin       UserRole = "Admin"
	RoleHRManager   UserRole = "HR Manager"
	RoleTeamLead    UserRole = "Team Lead"
	RoleRecruiter   UserRole = "Recruiter"
	RoleInterviewer UserRole = "Interviewer"
)

// UserStatus is the presence/availability marker shown in the team view.
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusAway     UserStatus = "Away"
	UserStatusBusy     UserStatus = "Busy"
	UserStatusInactive UserStatus = "inactive"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the user may authenticate.
func (u *User) Active() bool {
	return u.Status != UserStatusInactive
}

// Permission grants a set of actions on one module to one user. One row per
// module per user. Grants are copied from the role template at creation time
// and live their own life afterwards; changing a user's role does not rewrite
// existing rows.
type Permission struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Module    string         `db:"module" json:"module"`
	Actions   pq.StringArray `db:"actions" json:"actions"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Allows reports whether this grant covers the action.
func (p *Permission) Allows(action string) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Permission actions, the unit of granularity within a module.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Permission modules, the named functional areas of the application.
const (
	ModuleUsers          = "users"
	ModuleJobs           = "jobs"
	ModuleCandidates     = "candidates"
	ModuleInterviews     = "interviews"
	ModuleAssignments    = "assignments"
	ModuleTasks          = "tasks"
	ModuleCommunications = "communications"
	ModuleTemplates      = "templates"
	ModuleAnalytics      = "analytics"
	ModuleSettings       = "settings"
)

// AllModules lists every permission module.
var AllModules = []string{
	ModuleUsers,
	ModuleJobs,
	ModuleCandidates,
	ModuleInterviews,
	ModuleAssignments,
	ModuleTasks,
	ModuleCommunications,
	ModuleTemplates,
	ModuleAnalytics,
	ModuleSettings,
}

// AllActions lists every permission action.
var AllActions = []string{ActionView, ActionCreate, ActionEdit, ActionDelete}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Status    *UserStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Package domain contains the client and coverage fact models consumed by
// the reporting core. Their full lifecycle is owned by the client management
// feature; reports only read them.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Client statuses. A missing status is read as active, not as an error.
const (
	ClientStatusActive   = "active"
	ClientStatusLead     = "lead"
	ClientStatusInactive = "inactive"
)

// Coverage (policy) statuses.
const (
	CoverageStatusActive              = "active"
	CoverageStatusActiveSwitch        = "active_switch"
	CoverageStatusPending             = "pending"
	CoverageStatusPendingEffectuation = "pending_effectuation"
	CoverageStatusPreSubmission       = "pre_submission"
	CoverageStatusPreSubmissionSOA    = "pre_submission_soa"
	CoverageStatusReplaced            = "replaced"
	CoverageStatusCanceled            = "canceled"
	CoverageStatusDisenrolled         = "disenrolled"
	CoverageStatusDeclined            = "declined"
	CoverageStatusWithdrawn           = "withdrawn"
	CoverageStatusTerminated          = "terminated"
)

// Client is a lead or enrolled client owned by an agent.
type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	AgentID   snowflake.ID `gorm:"not null;index" json:"agent_id"`
	FirstName string       `gorm:"type:text" json:"first_name"`
	LastName  string       `gorm:"type:text" json:"last_name"`
	Status    string       `gorm:"type:text" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }

// Coverage is a Medicare policy attached to a client. The owning agent is
// reached through the client row.
type Coverage struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID      snowflake.ID `gorm:"not null;index" json:"client_id"`
	Status        string       `gorm:"type:text;not null" json:"status"`
	Carrier       string       `gorm:"type:text" json:"carrier"`
	PlanName      string       `gorm:"type:text" json:"plan_name"`
	EffectiveDate time.Time    `gorm:"column:effective_date" json:"effective_date"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Coverage) TableName() string { return "coverages" }

// NormalizeClientStatus maps a stored status to a bucket. Empty or unknown
// statuses count as active.
func NormalizeClientStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ClientStatusLead:
		return ClientStatusLead
	case ClientStatusInactive:
		return ClientStatusInactive
	default:
		return ClientStatusActive
	}
}

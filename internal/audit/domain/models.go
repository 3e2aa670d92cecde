// Package domain contains the append-only organization audit log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Audit actions.
const (
	ActionOrganizationCreated = "organization.created"
	ActionSubAgencyRequested  = "sub_agency.requested"
	ActionSubAgencyApproved   = "sub_agency.approved"
	ActionSubAgencyDenied     = "sub_agency.denied"
	ActionMemberInvited       = "member.invited"
	ActionMemberJoined        = "member.joined"
	ActionMemberRoleChanged   = "member.role_changed"
	ActionMemberRemoved       = "member.removed"
	ActionSubOrgScopeMismatch = "report.suborg_scope_mismatch"
)

// AuditLog is one immutable entry in an organization's audit trail.
type AuditLog struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Action         string            `gorm:"type:text;not null" json:"action"`
	PerformedBy    snowflake.ID      `gorm:"column:performed_by;not null" json:"performed_by"`
	TargetAgentID  *snowflake.ID     `gorm:"column:target_agent_id" json:"target_agent_id"`
	Details        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"details"`
	IPAddress      *string           `gorm:"column:ip_address" json:"-"`
	UserAgent      *string           `gorm:"column:user_agent" json:"-"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "organization_audit_log" }

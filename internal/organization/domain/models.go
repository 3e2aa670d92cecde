// Package domain contains persistence models for agencies and their
// memberships.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Organization types. Sub-agencies carry a parent link; the parent-link
// graph is a forest.
const (
	TypeAgency    = "agency"
	TypeSubAgency = "sub_agency"
)

// Membership roles.
const (
	RoleOwner          = "owner"
	RoleAgency         = "agency"
	RoleAgent          = "agent"
	RoleLOAAgent       = "loa_agent"
	RoleCommunityAgent = "community_agent"
	RoleStaff          = "staff"
)

// Membership statuses.
const (
	MemberStatusActive  = "active"
	MemberStatusRemoved = "removed"
)

// Invite statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRevoked  = "revoked"
)

// Sub-agency request statuses.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
)

// Organization represents an agency or sub-agency. A nil parent means the
// organization is a root.
type Organization struct {
	ID                   snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name                 string        `gorm:"type:text;not null" json:"name"`
	Slug                 string        `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Type                 string        `gorm:"type:text;not null" json:"type"`
	OwnerID              snowflake.ID  `gorm:"column:owner_id;not null;index" json:"owner_id"`
	ParentOrganizationID *snowflake.ID `gorm:"column:parent_organization_id;index" json:"parent_organization_id"`
	LogoURL              string        `gorm:"type:text;column:logo_url" json:"logo_url"`
	CreatedAt            time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// OrganizationMember represents membership of an agent in an organization.
// An agent has at most one membership row per organization.
type OrganizationMember struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_member,priority:1" json:"organization_id"`
	AgentID            snowflake.ID `gorm:"column:agent_id;not null;index;uniqueIndex:ux_org_member,priority:2" json:"agent_id"`
	Role               string       `gorm:"type:text;not null" json:"role"`
	HasDashboardAccess bool         `gorm:"column:has_dashboard_access;not null" json:"has_dashboard_access"`
	CanViewAgencyBook  bool         `gorm:"column:can_view_agency_book;not null" json:"can_view_agency_book"`
	Status             string       `gorm:"type:text;not null" json:"status"`
	JoinedAt           time.Time    `gorm:"column:joined_at;not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
	AcceptedAt         *time.Time   `gorm:"column:accepted_at" json:"accepted_at"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }

// OrganizationInvite tracks a pending invite to an organization.
type OrganizationInvite struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrganizationID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Email          string       `gorm:"type:text;not null" json:"email"`
	Role           string       `gorm:"type:text;not null" json:"role"`
	Token          string       `gorm:"type:text;not null;uniqueIndex:ux_org_invites_token" json:"-"`
	Status         string       `gorm:"type:text;not null" json:"status"`
	InvitedBy      snowflake.ID `gorm:"column:invited_by;not null;index" json:"invited_by"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrganizationInvite) TableName() string { return "organization_invites" }

// SubAgencyRequest is a pending request to create a child organization.
// Approval creates the sub-agency parented to the request's organization.
type SubAgencyRequest struct {
	ID                   snowflake.ID  `gorm:"primaryKey" json:"id"`
	ParentOrganizationID snowflake.ID  `gorm:"column:parent_organization_id;not null;index" json:"parent_organization_id"`
	Name                 string        `gorm:"type:text;not null" json:"name"`
	RequestedBy          snowflake.ID  `gorm:"column:requested_by;not null" json:"requested_by"`
	Status               string        `gorm:"type:text;not null" json:"status"`
	DecidedBy            *snowflake.ID `gorm:"column:decided_by" json:"decided_by"`
	DecidedAt            *time.Time    `gorm:"column:decided_at" json:"decided_at"`
	CreatedAt            time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SubAgencyRequest) TableName() string { return "sub_agency_requests" }

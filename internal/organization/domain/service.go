package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateAgency(ctx context.Context, agentID snowflake.ID, req CreateAgencyRequest) (*OrganizationResponse, error)
	GetByID(ctx context.Context, id string) (*OrganizationResponse, error)

	ListDashboardOrgs(ctx context.Context, agentID snowflake.ID) ([]OrgRef, error)
	ListAgencyBookOrgs(ctx context.Context, agentID snowflake.ID) ([]OrgRef, error)
	ListMemberOrgsWithRoles(ctx context.Context, agentID snowflake.ID) ([]OrgRoleRef, error)

	// ResolveEffectiveOrg is the authorization gate for all report reads:
	// a requested org id is honored only when it is in the caller's
	// dashboard set; an empty request falls back to the first dashboard
	// org; a caller with no dashboard orgs is denied.
	ResolveEffectiveOrg(ctx context.Context, agentID snowflake.ID, requestedOrgID string) (snowflake.ID, error)

	RequestSubAgency(ctx context.Context, agentID snowflake.ID, parentOrgID string, name string) (*SubAgencyRequestResponse, error)
	ApproveSubAgencyRequest(ctx context.Context, approverID snowflake.ID, requestID string) (*OrganizationResponse, error)
	DenySubAgencyRequest(ctx context.Context, approverID snowflake.ID, requestID string) error
	ListSubAgencyRequests(ctx context.Context, agentID snowflake.ID, parentOrgID string) ([]SubAgencyRequestResponse, error)

	InviteMembers(ctx context.Context, inviterID snowflake.ID, orgID string, invites []InviteRequest) error
	AcceptInvite(ctx context.Context, agentID snowflake.ID, token string) error
	UpdateMemberRole(ctx context.Context, actorID snowflake.ID, orgID string, req UpdateMemberRequest) error
	RemoveMember(ctx context.Context, actorID snowflake.ID, orgID string, memberAgentID string) error
}

type CreateAgencyRequest struct {
	Name    string
	LogoURL string
}

type InviteRequest struct {
	Email string
	Role  string
}

type UpdateMemberRequest struct {
	AgentID            string
	Role               string
	HasDashboardAccess *bool
	CanViewAgencyBook  *bool
}

type OrganizationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

type SubAgencyRequestResponse struct {
	ID          string `json:"id"`
	ParentOrgID string `json:"parent_org_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	RequestedBy string `json:"requested_by"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidAgent        = errors.New("invalid_agent")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrInvalidInvite       = errors.New("invalid_invite")
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrNotFound            = errors.New("organization_not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrNoDashboardAccess   = errors.New("no_dashboard_access")
	ErrAlreadyMember       = errors.New("already_member")
	ErrRequestDecided      = errors.New("request_already_decided")
)

// ValidRole reports whether the role is one of the membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAgency, RoleAgent, RoleLOAAgent, RoleCommunityAgent, RoleStaff:
		return true
	default:
		return false
	}
}

// ManagesMembers reports whether the role may invite, update or remove
// members.
func ManagesMembers(role string) bool {
	return role == RoleOwner || role == RoleAgency
}

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// OrgRef is an organization reference returned by the membership index.
type OrgRef struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

// OrgRoleRef is an organization reference with the caller's role in it.
type OrgRoleRef struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
	Role string       `json:"role"`
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, id snowflake.ID) (*Organization, error)

	AddMember(ctx context.Context, member OrganizationMember) error
	GetMember(ctx context.Context, orgID, agentID snowflake.ID) (*OrganizationMember, error)
	UpdateMember(ctx context.Context, member OrganizationMember) error

	ListDashboardOrgs(ctx context.Context, agentID snowflake.ID) ([]OrgRef, error)
	ListAgencyBookOrgs(ctx context.Context, agentID snowflake.ID) ([]OrgRef, error)
	ListMemberOrgsWithRoles(ctx context.Context, agentID snowflake.ID) ([]OrgRoleRef, error)

	CreateInvites(ctx context.Context, invites []OrganizationInvite) error
	GetInviteByToken(ctx context.Context, token string) (*OrganizationInvite, error)
	UpdateInvite(ctx context.Context, invite OrganizationInvite) error

	CreateSubAgencyRequest(ctx context.Context, req SubAgencyRequest) error
	GetSubAgencyRequest(ctx context.Context, id snowflake.ID) (*SubAgencyRequest, error)
	UpdateSubAgencyRequest(ctx context.Context, req SubAgencyRequest) error
	ListSubAgencyRequests(ctx context.Context, parentOrgID snowflake.ID, status string) ([]SubAgencyRequest, error)
}

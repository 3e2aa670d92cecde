package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Create(&org).Error
}

func (r *repository) GetOrganization(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).Create(&member).Error
}

func (r *repository) GetMember(ctx context.Context, orgID, agentID snowflake.ID) (*domain.OrganizationMember, error) {
	var member domain.OrganizationMember
	err := r.db.WithContext(ctx).
		First(&member, "organization_id = ? AND agent_id = ?", orgID, agentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) UpdateMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).
		Model(&domain.OrganizationMember{}).
		Where("id = ?", member.ID).
		Updates(map[string]any{
			"role":                 member.Role,
			"has_dashboard_access": member.HasDashboardAccess,
			"can_view_agency_book": member.CanViewAgencyBook,
			"status":               member.Status,
			"accepted_at":          member.AcceptedAt,
		}).Error
}

func (r *repository) ListDashboardOrgs(ctx context.Context, agentID snowflake.ID) ([]domain.OrgRef, error) {
	var refs []domain.OrgRef
	err := r.db.WithContext(ctx).Raw(
		`SELECT o.id, o.name
		 FROM organizations o
		 JOIN organization_members m ON m.organization_id = o.id
		 WHERE m.agent_id = ? AND m.status = ? AND m.has_dashboard_access
		 ORDER BY o.created_at ASC`,
		agentID,
		domain.MemberStatusActive,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repository) ListAgencyBookOrgs(ctx context.Context, agentID snowflake.ID) ([]domain.OrgRef, error) {
	var refs []domain.OrgRef
	err := r.db.WithContext(ctx).Raw(
		`SELECT o.id, o.name
		 FROM organizations o
		 JOIN organization_members m ON m.organization_id = o.id
		 WHERE m.agent_id = ? AND m.status = ? AND m.can_view_agency_book
		 ORDER BY o.created_at ASC`,
		agentID,
		domain.MemberStatusActive,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repository) ListMemberOrgsWithRoles(ctx context.Context, agentID snowflake.ID) ([]domain.OrgRoleRef, error) {
	var refs []domain.OrgRoleRef
	err := r.db.WithContext(ctx).Raw(
		`SELECT o.id, o.name, m.role
		 FROM organizations o
		 JOIN organization_members m ON m.organization_id = o.id
		 WHERE m.agent_id = ? AND m.status = ?
		 ORDER BY o.created_at ASC`,
		agentID,
		domain.MemberStatusActive,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repository) CreateInvites(ctx context.Context, invites []domain.OrganizationInvite) error {
	if len(invites) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&invites).Error
}

func (r *repository) GetInviteByToken(ctx context.Context, token string) (*domain.OrganizationInvite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	var invite domain.OrganizationInvite
	err := r.db.WithContext(ctx).First(&invite, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

func (r *repository) UpdateInvite(ctx context.Context, invite domain.OrganizationInvite) error {
	return r.db.WithContext(ctx).
		Model(&domain.OrganizationInvite{}).
		Where("id = ?", invite.ID).
		Update("status", invite.Status).Error
}

func (r *repository) CreateSubAgencyRequest(ctx context.Context, req domain.SubAgencyRequest) error {
	return r.db.WithContext(ctx).Create(&req).Error
}

func (r *repository) GetSubAgencyRequest(ctx context.Context, id snowflake.ID) (*domain.SubAgencyRequest, error) {
	var req domain.SubAgencyRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) UpdateSubAgencyRequest(ctx context.Context, req domain.SubAgencyRequest) error {
	return r.db.WithContext(ctx).
		Model(&domain.SubAgencyRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":     req.Status,
			"decided_by": req.DecidedBy,
			"decided_at": req.DecidedAt,
		}).Error
}

func (r *repository) ListSubAgencyRequests(ctx context.Context, parentOrgID snowflake.ID, status string) ([]domain.SubAgencyRequest, error) {
	stmt := r.db.WithContext(ctx).
		Where("parent_organization_id = ?", parentOrgID).
		Order("created_at DESC")
	if status = strings.TrimSpace(status); status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	var reqs []domain.SubAgencyRequest
	if err := stmt.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

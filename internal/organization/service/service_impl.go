package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	audit auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.AuditSvc,
	}
}

func (s *service) CreateAgency(ctx context.Context, agentID snowflake.ID, req domain.CreateAgencyRequest) (*domain.OrganizationResponse, error) {
	if agentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Type:      domain.TypeAgency,
		OwnerID:   agentID,
		LogoURL:   strings.TrimSpace(req.LogoURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return repo.AddMember(ctx, domain.OrganizationMember{
			ID:                 s.genID.Generate(),
			OrganizationID:     org.ID,
			AgentID:            agentID,
			Role:               domain.RoleOwner,
			HasDashboardAccess: true,
			CanViewAgencyBook:  true,
			Status:             domain.MemberStatusActive,
			JoinedAt:           now,
			AcceptedAt:         &now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, org.ID, auditdomain.ActionOrganizationCreated, agentID, nil, map[string]any{
		"name": name,
	})

	return orgResponse(&org), nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.OrganizationResponse, error) {
	orgID, err := parseOrgID(id)
	if err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return orgResponse(org), nil
}

func (s *service) ListDashboardOrgs(ctx context.Context, agentID snowflake.ID) ([]domain.OrgRef, error) {
	if agentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	return s.repo.ListDashboardOrgs(ctx, agentID)
}

func (s *service) ListAgencyBookOrgs(ctx context.Context, agentID snowflake.ID) ([]domain.OrgRef, error) {
	if agentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	return s.repo.ListAgencyBookOrgs(ctx, agentID)
}

func (s *service) ListMemberOrgsWithRoles(ctx context.Context, agentID snowflake.ID) ([]domain.OrgRoleRef, error) {
	if agentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	return s.repo.ListMemberOrgsWithRoles(ctx, agentID)
}

// ResolveEffectiveOrg enforces the dashboard-access gate. It must run before
// any aggregation; a denied caller never reaches the data source.
func (s *service) ResolveEffectiveOrg(ctx context.Context, agentID snowflake.ID, requestedOrgID string) (snowflake.ID, error) {
	if agentID == 0 {
		return 0, domain.ErrInvalidAgent
	}

	orgs, err := s.repo.ListDashboardOrgs(ctx, agentID)
	if err != nil {
		return 0, err
	}
	if len(orgs) == 0 {
		return 0, domain.ErrNoDashboardAccess
	}

	requested := strings.TrimSpace(requestedOrgID)
	if requested == "" {
		return orgs[0].ID, nil
	}

	parsed, err := snowflake.ParseString(requested)
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	for _, ref := range orgs {
		if ref.ID == parsed {
			return parsed, nil
		}
	}
	return 0, domain.ErrForbidden
}

func (s *service) RequestSubAgency(ctx context.Context, agentID snowflake.ID, parentOrgID string, name string) (*domain.SubAgencyRequestResponse, error) {
	if agentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	parentID, err := parseOrgID(parentOrgID)
	if err != nil {
		return nil, err
	}

	member, err := s.activeMember(ctx, parentID, agentID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrForbidden
	}

	req := domain.SubAgencyRequest{
		ID:                   s.genID.Generate(),
		ParentOrganizationID: parentID,
		Name:                 name,
		RequestedBy:          agentID,
		Status:               domain.RequestStatusPending,
		CreatedAt:            time.Now().UTC(),
	}
	if err := s.repo.CreateSubAgencyRequest(ctx, req); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, parentID, auditdomain.ActionSubAgencyRequested, agentID, nil, map[string]any{
		"request_id": req.ID.String(),
		"name":       name,
	})

	return subAgencyRequestResponse(&req), nil
}

func (s *service) ApproveSubAgencyRequest(ctx context.Context, approverID snowflake.ID, requestID string) (*domain.OrganizationResponse, error) {
	req, err := s.decidableRequest(ctx, approverID, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	parentID := req.ParentOrganizationID
	org := domain.Organization{
		ID:                   s.genID.Generate(),
		Name:                 req.Name,
		Slug:                 slug.Make(req.Name),
		Type:                 domain.TypeSubAgency,
		OwnerID:              req.RequestedBy,
		ParentOrganizationID: &parentID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}
		if err := repo.AddMember(ctx, domain.OrganizationMember{
			ID:                 s.genID.Generate(),
			OrganizationID:     org.ID,
			AgentID:            req.RequestedBy,
			Role:               domain.RoleOwner,
			HasDashboardAccess: true,
			CanViewAgencyBook:  true,
			Status:             domain.MemberStatusActive,
			JoinedAt:           now,
			AcceptedAt:         &now,
		}); err != nil {
			return err
		}

		req.Status = domain.RequestStatusApproved
		req.DecidedBy = &approverID
		req.DecidedAt = &now
		return repo.UpdateSubAgencyRequest(ctx, *req)
	})
	if err != nil {
		return nil, err
	}

	requestedBy := req.RequestedBy
	s.recordAudit(ctx, req.ParentOrganizationID, auditdomain.ActionSubAgencyApproved, approverID, &requestedBy, map[string]any{
		"request_id":      req.ID.String(),
		"organization_id": org.ID.String(),
		"name":            org.Name,
	})

	return orgResponse(&org), nil
}

func (s *service) DenySubAgencyRequest(ctx context.Context, approverID snowflake.ID, requestID string) error {
	req, err := s.decidableRequest(ctx, approverID, requestID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	req.Status = domain.RequestStatusDenied
	req.DecidedBy = &approverID
	req.DecidedAt = &now
	if err := s.repo.UpdateSubAgencyRequest(ctx, *req); err != nil {
		return err
	}

	requestedBy := req.RequestedBy
	s.recordAudit(ctx, req.ParentOrganizationID, auditdomain.ActionSubAgencyDenied, approverID, &requestedBy, map[string]any{
		"request_id": req.ID.String(),
		"name":       req.Name,
	})
	return nil
}

func (s *service) ListSubAgencyRequests(ctx context.Context, agentID snowflake.ID, parentOrgID string) ([]domain.SubAgencyRequestResponse, error) {
	parentID, err := parseOrgID(parentOrgID)
	if err != nil {
		return nil, err
	}
	member, err := s.activeMember(ctx, parentID, agentID)
	if err != nil {
		return nil, err
	}
	if member == nil || !domain.ManagesMembers(member.Role) {
		return nil, domain.ErrForbidden
	}

	reqs, err := s.repo.ListSubAgencyRequests(ctx, parentID, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.SubAgencyRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, *subAgencyRequestResponse(&reqs[i]))
	}
	return out, nil
}

func (s *service) InviteMembers(ctx context.Context, inviterID snowflake.ID, orgID string, invites []domain.InviteRequest) error {
	parsedOrgID, err := parseOrgID(orgID)
	if err != nil {
		return err
	}
	if len(invites) == 0 {
		return domain.ErrInvalidRequest
	}

	member, err := s.activeMember(ctx, parsedOrgID, inviterID)
	if err != nil {
		return err
	}
	if member == nil || !domain.ManagesMembers(member.Role) {
		return domain.ErrForbidden
	}

	now := time.Now().UTC()
	rows := make([]domain.OrganizationInvite, 0, len(invites))
	for _, invite := range invites {
		email := strings.ToLower(strings.TrimSpace(invite.Email))
		if email == "" || !strings.Contains(email, "@") {
			return domain.ErrInvalidEmail
		}
		role := strings.TrimSpace(invite.Role)
		if !domain.ValidRole(role) || role == domain.RoleOwner {
			return domain.ErrInvalidRole
		}
		rows = append(rows, domain.OrganizationInvite{
			ID:             s.genID.Generate(),
			OrganizationID: parsedOrgID,
			Email:          email,
			Role:           role,
			Token:          ulid.Make().String(),
			Status:         domain.InviteStatusPending,
			InvitedBy:      inviterID,
			CreatedAt:      now,
		})
	}

	if err := s.repo.CreateInvites(ctx, rows); err != nil {
		return err
	}

	s.recordAudit(ctx, parsedOrgID, auditdomain.ActionMemberInvited, inviterID, nil, map[string]any{
		"count": len(rows),
	})
	return nil
}

func (s *service) AcceptInvite(ctx context.Context, agentID snowflake.ID, token string) error {
	if agentID == 0 {
		return domain.ErrInvalidAgent
	}
	invite, err := s.repo.GetInviteByToken(ctx, token)
	if err != nil {
		return err
	}
	if invite == nil || invite.Status != domain.InviteStatusPending {
		return domain.ErrInvalidInvite
	}

	existing, err := s.repo.GetMember(ctx, invite.OrganizationID, agentID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == domain.MemberStatusActive {
		return domain.ErrAlreadyMember
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if existing != nil {
			existing.Role = invite.Role
			existing.Status = domain.MemberStatusActive
			existing.AcceptedAt = &now
			if err := repo.UpdateMember(ctx, *existing); err != nil {
				return err
			}
		} else {
			if err := repo.AddMember(ctx, domain.OrganizationMember{
				ID:             s.genID.Generate(),
				OrganizationID: invite.OrganizationID,
				AgentID:        agentID,
				Role:           invite.Role,
				Status:         domain.MemberStatusActive,
				JoinedAt:       now,
				AcceptedAt:     &now,
			}); err != nil {
				return err
			}
		}

		invite.Status = domain.InviteStatusAccepted
		return repo.UpdateInvite(ctx, *invite)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, invite.OrganizationID, auditdomain.ActionMemberJoined, agentID, nil, map[string]any{
		"role": invite.Role,
	})
	return nil
}

func (s *service) UpdateMemberRole(ctx context.Context, actorID snowflake.ID, orgID string, req domain.UpdateMemberRequest) error {
	parsedOrgID, err := parseOrgID(orgID)
	if err != nil {
		return err
	}
	targetID, err := snowflake.ParseString(strings.TrimSpace(req.AgentID))
	if err != nil || targetID == 0 {
		return domain.ErrInvalidAgent
	}

	actor, err := s.activeMember(ctx, parsedOrgID, actorID)
	if err != nil {
		return err
	}
	if actor == nil || !domain.ManagesMembers(actor.Role) {
		return domain.ErrForbidden
	}

	target, err := s.repo.GetMember(ctx, parsedOrgID, targetID)
	if err != nil {
		return err
	}
	if target == nil || target.Status != domain.MemberStatusActive {
		return domain.ErrInvalidAgent
	}

	if role := strings.TrimSpace(req.Role); role != "" {
		if !domain.ValidRole(role) {
			return domain.ErrInvalidRole
		}
		target.Role = role
	}
	if req.HasDashboardAccess != nil {
		target.HasDashboardAccess = *req.HasDashboardAccess
	}
	if req.CanViewAgencyBook != nil {
		target.CanViewAgencyBook = *req.CanViewAgencyBook
	}

	if err := s.repo.UpdateMember(ctx, *target); err != nil {
		return err
	}

	s.recordAudit(ctx, parsedOrgID, auditdomain.ActionMemberRoleChanged, actorID, &targetID, map[string]any{
		"role":                 target.Role,
		"has_dashboard_access": target.HasDashboardAccess,
		"can_view_agency_book": target.CanViewAgencyBook,
	})
	return nil
}

func (s *service) RemoveMember(ctx context.Context, actorID snowflake.ID, orgID string, memberAgentID string) error {
	parsedOrgID, err := parseOrgID(orgID)
	if err != nil {
		return err
	}
	targetID, err := snowflake.ParseString(strings.TrimSpace(memberAgentID))
	if err != nil || targetID == 0 {
		return domain.ErrInvalidAgent
	}

	actor, err := s.activeMember(ctx, parsedOrgID, actorID)
	if err != nil {
		return err
	}
	if actor == nil || !domain.ManagesMembers(actor.Role) {
		return domain.ErrForbidden
	}

	target, err := s.repo.GetMember(ctx, parsedOrgID, targetID)
	if err != nil {
		return err
	}
	if target == nil || target.Status != domain.MemberStatusActive {
		return domain.ErrInvalidAgent
	}
	if target.Role == domain.RoleOwner {
		return domain.ErrForbidden
	}

	target.Status = domain.MemberStatusRemoved
	target.HasDashboardAccess = false
	target.CanViewAgencyBook = false
	if err := s.repo.UpdateMember(ctx, *target); err != nil {
		return err
	}

	s.recordAudit(ctx, parsedOrgID, auditdomain.ActionMemberRemoved, actorID, &targetID, nil)
	return nil
}

func (s *service) activeMember(ctx context.Context, orgID, agentID snowflake.ID) (*domain.OrganizationMember, error) {
	if agentID == 0 {
		return nil, domain.ErrInvalidAgent
	}
	member, err := s.repo.GetMember(ctx, orgID, agentID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Status != domain.MemberStatusActive {
		return nil, nil
	}
	return member, nil
}

func (s *service) decidableRequest(ctx context.Context, approverID snowflake.ID, requestID string) (*domain.SubAgencyRequest, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(requestID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidRequest
	}

	req, err := s.repo.GetSubAgencyRequest(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if req.Status != domain.RequestStatusPending {
		return nil, domain.ErrRequestDecided
	}

	approver, err := s.activeMember(ctx, req.ParentOrganizationID, approverID)
	if err != nil {
		return nil, err
	}
	if approver == nil || !domain.ManagesMembers(approver.Role) {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

func (s *service) recordAudit(ctx context.Context, orgID snowflake.ID, action string, actorID snowflake.ID, targetID *snowflake.ID, details map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, orgID, action, actorID, targetID, details); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func parseOrgID(raw string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return parsed, nil
}

func orgResponse(org *domain.Organization) *domain.OrganizationResponse {
	resp := &domain.OrganizationResponse{
		ID:      org.ID.String(),
		Name:    org.Name,
		Slug:    org.Slug,
		Type:    org.Type,
		LogoURL: org.LogoURL,
	}
	if org.ParentOrganizationID != nil {
		resp.ParentID = org.ParentOrganizationID.String()
	}
	return resp
}

func subAgencyRequestResponse(req *domain.SubAgencyRequest) *domain.SubAgencyRequestResponse {
	return &domain.SubAgencyRequestResponse{
		ID:          req.ID.String(),
		ParentOrgID: req.ParentOrganizationID.String(),
		Name:        req.Name,
		Status:      req.Status,
		RequestedBy: req.RequestedBy.String(),
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/agencydesk/agencydesk/internal/organization/repository"
	"github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	gdb, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&domain.Organization{},
		&domain.OrganizationMember{},
		&domain.OrganizationInvite{},
		&domain.SubAgencyRequest{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := NewService(Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(gdb),
	})
	return svc, gdb, node
}

func TestCreateAgencyAddsOwnerMembership(t *testing.T) {
	svc, gdb, node := newTestService(t)
	ctx := context.Background()
	owner := node.Generate()

	org, err := svc.CreateAgency(ctx, owner, domain.CreateAgencyRequest{Name: "Summit Benefits Group"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}
	if org.Slug != "summit-benefits-group" {
		t.Fatalf("slug = %q", org.Slug)
	}
	if org.Type != domain.TypeAgency {
		t.Fatalf("type = %q", org.Type)
	}

	var member domain.OrganizationMember
	if err := gdb.Where("agent_id = ?", owner).First(&member).Error; err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if member.Role != domain.RoleOwner || !member.HasDashboardAccess || !member.CanViewAgencyBook {
		t.Fatalf("unexpected owner membership: %+v", member)
	}
}

func TestCreateAgencyRejectsBlankName(t *testing.T) {
	svc, _, node := newTestService(t)

	_, err := svc.CreateAgency(context.Background(), node.Generate(), domain.CreateAgencyRequest{Name: "   "})
	if !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}
}

func TestResolveEffectiveOrg(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	owner := node.Generate()
	org, err := svc.CreateAgency(ctx, owner, domain.CreateAgencyRequest{Name: "Alpha"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}
	other := node.Generate()
	otherOrg, err := svc.CreateAgency(ctx, other, domain.CreateAgencyRequest{Name: "Beta"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}

	// Empty request falls back to the caller's first dashboard org.
	got, err := svc.ResolveEffectiveOrg(ctx, owner, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.String() != org.ID {
		t.Fatalf("effective org = %s, want %s", got, org.ID)
	}

	// A requested org the caller belongs to is honored.
	if _, err := svc.ResolveEffectiveOrg(ctx, owner, org.ID); err != nil {
		t.Fatalf("resolve own org: %v", err)
	}

	// A requested org outside the caller's dashboard set is denied.
	if _, err := svc.ResolveEffectiveOrg(ctx, owner, otherOrg.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	// A caller with no dashboard orgs at all is denied up front.
	if _, err := svc.ResolveEffectiveOrg(ctx, node.Generate(), ""); !errors.Is(err, domain.ErrNoDashboardAccess) {
		t.Fatalf("err = %v, want ErrNoDashboardAccess", err)
	}
}

func TestInviteAndAcceptFlow(t *testing.T) {
	svc, gdb, node := newTestService(t)
	ctx := context.Background()

	owner := node.Generate()
	org, err := svc.CreateAgency(ctx, owner, domain.CreateAgencyRequest{Name: "Alpha"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}

	err = svc.InviteMembers(ctx, owner, org.ID, []domain.InviteRequest{
		{Email: "Agent@Example.com", Role: domain.RoleAgent},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	var invite domain.OrganizationInvite
	if err := gdb.First(&invite).Error; err != nil {
		t.Fatalf("invite row missing: %v", err)
	}
	if invite.Email != "agent@example.com" {
		t.Fatalf("email not normalized: %q", invite.Email)
	}
	if invite.Token == "" {
		t.Fatal("invite token empty")
	}

	joiner := node.Generate()
	if err := svc.AcceptInvite(ctx, joiner, invite.Token); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Accepting a consumed token fails.
	if err := svc.AcceptInvite(ctx, node.Generate(), invite.Token); !errors.Is(err, domain.ErrInvalidInvite) {
		t.Fatalf("err = %v, want ErrInvalidInvite", err)
	}

	// The joiner is now an active member without dashboard access.
	refs, err := svc.ListMemberOrgsWithRoles(ctx, joiner)
	if err != nil {
		t.Fatalf("list member orgs: %v", err)
	}
	if len(refs) != 1 || refs[0].Role != domain.RoleAgent {
		t.Fatalf("member orgs = %+v", refs)
	}
	if dash, _ := svc.ListDashboardOrgs(ctx, joiner); len(dash) != 0 {
		t.Fatalf("joiner should have no dashboard orgs, got %+v", dash)
	}
}

func TestInviteRequiresManagerRole(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	owner := node.Generate()
	org, err := svc.CreateAgency(ctx, owner, domain.CreateAgencyRequest{Name: "Alpha"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}

	err = svc.InviteMembers(ctx, node.Generate(), org.ID, []domain.InviteRequest{
		{Email: "x@example.com", Role: domain.RoleAgent},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSubAgencyApprovalCreatesChildOrg(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	owner := node.Generate()
	parent, err := svc.CreateAgency(ctx, owner, domain.CreateAgencyRequest{Name: "Parent Agency"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}

	req, err := svc.RequestSubAgency(ctx, owner, parent.ID, "Downline Office")
	if err != nil {
		t.Fatalf("request sub-agency: %v", err)
	}
	if req.Status != domain.RequestStatusPending {
		t.Fatalf("status = %q", req.Status)
	}

	child, err := svc.ApproveSubAgencyRequest(ctx, owner, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if child.Type != domain.TypeSubAgency {
		t.Fatalf("child type = %q", child.Type)
	}
	if child.ParentID != parent.ID {
		t.Fatalf("parent id = %q, want %q", child.ParentID, parent.ID)
	}

	// The decision is final.
	if _, err := svc.ApproveSubAgencyRequest(ctx, owner, req.ID); !errors.Is(err, domain.ErrRequestDecided) {
		t.Fatalf("err = %v, want ErrRequestDecided", err)
	}
}

func TestRemoveMemberProtectsOwner(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	owner := node.Generate()
	org, err := svc.CreateAgency(ctx, owner, domain.CreateAgencyRequest{Name: "Alpha"})
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}

	if err := svc.RemoveMember(ctx, owner, org.ID, owner.String()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

package downline

import (
	"context"
	"testing"
	"time"

	"github.com/agencydesk/agencydesk/internal/config"
	orgdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestResolver(t *testing.T, cfg config.ReportingConfig) (*Resolver, *gorm.DB, *snowflake.Node) {
	t.Helper()

	gdb, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&orgdomain.Organization{}, &orgdomain.OrganizationMember{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	r := NewResolver(Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		Reporting: config.StaticReportingConfig(cfg),
	})
	return r, gdb, node
}

func seedOrg(t *testing.T, gdb *gorm.DB, id snowflake.ID, parent *snowflake.ID) {
	t.Helper()
	now := time.Now().UTC()
	org := orgdomain.Organization{
		ID:                   id,
		Name:                 "org-" + id.String(),
		Slug:                 "org-" + id.String(),
		Type:                 orgdomain.TypeAgency,
		OwnerID:              id,
		ParentOrganizationID: parent,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if parent != nil {
		org.Type = orgdomain.TypeSubAgency
	}
	if err := gdb.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
}

func seedMember(t *testing.T, gdb *gorm.DB, node *snowflake.Node, orgID, agentID snowflake.ID, status string) {
	t.Helper()
	now := time.Now().UTC()
	err := gdb.Create(&orgdomain.OrganizationMember{
		ID:             node.Generate(),
		OrganizationID: orgID,
		AgentID:        agentID,
		Role:           orgdomain.RoleAgent,
		Status:         status,
		JoinedAt:       now,
	}).Error
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
}

func TestResolveOrgIDsWalksTree(t *testing.T) {
	r, gdb, node := newTestResolver(t, config.DefaultReportingConfig())
	ctx := context.Background()

	root := node.Generate()
	childA := node.Generate()
	childB := node.Generate()
	grand := node.Generate()
	other := node.Generate()

	seedOrg(t, gdb, root, nil)
	seedOrg(t, gdb, childA, &root)
	seedOrg(t, gdb, childB, &root)
	seedOrg(t, gdb, grand, &childA)
	seedOrg(t, gdb, other, nil)

	got, err := r.ResolveOrgIDs(ctx, root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := map[snowflake.ID]bool{root: true, childA: true, childB: true, grand: true}
	if len(got) != len(want) {
		t.Fatalf("got %d orgs, want %d: %v", len(got), len(want), got)
	}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("unexpected org %s in closure", id)
		}
	}
	if got[0] != root {
		t.Fatalf("closure must start at root, got %s", got[0])
	}
}

func TestResolveOrgIDsMissingRoot(t *testing.T) {
	r, _, node := newTestResolver(t, config.DefaultReportingConfig())

	got, err := r.ResolveOrgIDs(context.Background(), node.Generate())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("missing root must yield empty closure, got %v", got)
	}
}

func TestResolveOrgIDsDepthCap(t *testing.T) {
	r, gdb, node := newTestResolver(t, config.ReportingConfig{
		MaxDownlineDepth: 2,
		AuditPageSize:    25,
		ExportRowLimit:   1000,
	})
	ctx := context.Background()

	// Chain of 5; only root plus 2 levels survive the cap.
	ids := make([]snowflake.ID, 5)
	for i := range ids {
		ids[i] = node.Generate()
		if i == 0 {
			seedOrg(t, gdb, ids[i], nil)
		} else {
			seedOrg(t, gdb, ids[i], &ids[i-1])
		}
	}

	got, err := r.ResolveOrgIDs(ctx, ids[0])
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d orgs, want 3 (root + 2 levels): %v", len(got), got)
	}
}

func TestResolveOrgIDsCycleTerminates(t *testing.T) {
	r, gdb, node := newTestResolver(t, config.DefaultReportingConfig())
	ctx := context.Background()

	a := node.Generate()
	b := node.Generate()
	seedOrg(t, gdb, a, nil)
	seedOrg(t, gdb, b, &a)

	// Point a back at b to corrupt the tree into a cycle.
	if err := gdb.Model(&orgdomain.Organization{}).Where("id = ?", a).
		Update("parent_organization_id", b).Error; err != nil {
		t.Fatalf("corrupt tree: %v", err)
	}

	got, err := r.ResolveOrgIDs(ctx, a)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cycle closure = %v, want exactly {a, b}", got)
	}
}

func TestResolveAgentIDsActiveUnion(t *testing.T) {
	r, gdb, node := newTestResolver(t, config.DefaultReportingConfig())
	ctx := context.Background()

	root := node.Generate()
	child := node.Generate()
	seedOrg(t, gdb, root, nil)
	seedOrg(t, gdb, child, &root)

	shared := node.Generate()
	childOnly := node.Generate()
	removed := node.Generate()

	// shared belongs to both orgs; it must be counted once.
	seedMember(t, gdb, node, root, shared, orgdomain.MemberStatusActive)
	seedMember(t, gdb, node, child, shared, orgdomain.MemberStatusActive)
	seedMember(t, gdb, node, child, childOnly, orgdomain.MemberStatusActive)
	seedMember(t, gdb, node, root, removed, orgdomain.MemberStatusRemoved)

	got, err := r.ResolveAgentIDs(ctx, root)
	if err != nil {
		t.Fatalf("resolve agents: %v", err)
	}
	want := map[snowflake.ID]bool{shared: true, childOnly: true}
	if len(got) != len(want) {
		t.Fatalf("got %d agents, want %d: %v", len(got), len(want), got)
	}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("unexpected agent %s", id)
		}
	}
}

func TestContains(t *testing.T) {
	r, gdb, node := newTestResolver(t, config.DefaultReportingConfig())
	ctx := context.Background()

	root := node.Generate()
	child := node.Generate()
	stranger := node.Generate()
	seedOrg(t, gdb, root, nil)
	seedOrg(t, gdb, child, &root)
	seedOrg(t, gdb, stranger, nil)

	if ok, err := r.Contains(ctx, root, child); err != nil || !ok {
		t.Fatalf("Contains(root, child) = %v, %v", ok, err)
	}
	if ok, err := r.Contains(ctx, root, stranger); err != nil || ok {
		t.Fatalf("Contains(root, stranger) = %v, %v", ok, err)
	}
}

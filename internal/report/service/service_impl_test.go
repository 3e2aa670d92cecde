package service

import (
	"context"
	"errors"
	"testing"
	"time"

	clientdomain "github.com/agencydesk/agencydesk/internal/client/domain"
	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/downline"
	orgdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	profiledomain "github.com/agencydesk/agencydesk/internal/profile/domain"
	profilerepo "github.com/agencydesk/agencydesk/internal/profile/repository"
	"github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&orgdomain.Organization{},
		&orgdomain.OrganizationMember{},
		&profiledomain.AgentProfile{},
		&clientdomain.Client{},
		&clientdomain.Coverage{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	holder := config.StaticReportingConfig(config.DefaultReportingConfig())
	resolver := downline.NewResolver(downline.Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		Reporting: holder,
	})
	svc := NewService(Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		Resolver:  resolver,
		Profiles:  profilerepo.NewRepository(gdb),
		Reporting: holder,
	})

	return &fixture{svc: svc, db: gdb, node: node}
}

func (f *fixture) org(t *testing.T, parent *snowflake.ID) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
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
	if err := f.db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return id
}

func (f *fixture) agent(t *testing.T, orgID snowflake.ID, first, last string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := time.Now().UTC()
	if err := f.db.Create(&profiledomain.AgentProfile{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Email:     first + "@example.com",
		Status:    profiledomain.StatusActive,
		CreatedAt: now,
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if err := f.db.Create(&orgdomain.OrganizationMember{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		AgentID:        id,
		Role:           orgdomain.RoleAgent,
		Status:         orgdomain.MemberStatusActive,
		JoinedAt:       now,
	}).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return id
}

func (f *fixture) client(t *testing.T, agentID snowflake.ID, status string, createdAt time.Time) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	if err := f.db.Create(&clientdomain.Client{
		ID:        id,
		AgentID:   agentID,
		FirstName: "c",
		LastName:  id.String(),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return id
}

func (f *fixture) coverage(t *testing.T, clientID snowflake.ID, status string, effective time.Time) {
	t.Helper()
	if err := f.db.Create(&clientdomain.Coverage{
		ID:            f.node.Generate(),
		ClientID:      clientID,
		Status:        status,
		Carrier:       "Carrier",
		PlanName:      "Plan",
		EffectiveDate: effective,
		CreatedAt:     effective,
	}).Error; err != nil {
		t.Fatalf("seed coverage: %v", err)
	}
}

func TestProductionGroupsByAgentAndMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	org := f.org(t, nil)
	zoe := f.agent(t, org, "Zoe", "Adams")
	amy := f.agent(t, org, "amy", "Brown")

	c1 := f.client(t, zoe, clientdomain.ClientStatusActive, time.Now().UTC())
	c2 := f.client(t, amy, clientdomain.ClientStatusActive, time.Now().UTC())

	f.coverage(t, c1, clientdomain.CoverageStatusActive, time.Date(year, time.January, 10, 0, 0, 0, 0, time.UTC))
	f.coverage(t, c1, clientdomain.CoverageStatusPending, time.Date(year, time.January, 20, 0, 0, 0, 0, time.UTC))
	f.coverage(t, c1, clientdomain.CoverageStatusActiveSwitch, time.Date(year, time.March, 2, 0, 0, 0, 0, time.UTC))
	f.coverage(t, c2, clientdomain.CoverageStatusActive, time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC))
	// Non-production statuses never count.
	f.coverage(t, c2, clientdomain.CoverageStatusCanceled, time.Date(year, time.July, 5, 0, 0, 0, 0, time.UTC))
	// Out-of-year coverage never counts.
	f.coverage(t, c2, clientdomain.CoverageStatusActive, time.Date(year-1, time.July, 4, 0, 0, 0, 0, time.UTC))

	report, err := f.svc.Production(ctx, domain.ProductionRequest{OrgID: org})
	if err != nil {
		t.Fatalf("production: %v", err)
	}
	if report.Year != year {
		t.Fatalf("year = %d", report.Year)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Rows))
	}

	// Case-insensitive name sort puts "amy Brown" before "Zoe Adams".
	if report.Rows[0].AgentName != "amy Brown" {
		t.Fatalf("first row = %q", report.Rows[0].AgentName)
	}
	if report.Rows[0].Total != 1 || report.Rows[0].Months[6] != 1 {
		t.Fatalf("amy row = %+v", report.Rows[0])
	}
	if report.Rows[1].Total != 3 || report.Rows[1].Months[0] != 2 || report.Rows[1].Months[2] != 1 {
		t.Fatalf("zoe row = %+v", report.Rows[1])
	}
}

func TestProductionInvalidYearFallsBack(t *testing.T) {
	f := newFixture(t)
	org := f.org(t, nil)

	report, err := f.svc.Production(context.Background(), domain.ProductionRequest{OrgID: org, Year: "bogus"})
	if err != nil {
		t.Fatalf("production: %v", err)
	}
	if report.Year != time.Now().UTC().Year() {
		t.Fatalf("year = %d, want current", report.Year)
	}
}

func TestRosterSeparatesClientAndPolicyCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.org(t, nil)
	agent := f.agent(t, org, "Rae", "Cole")

	// 2 clients, 3 policies. A join-product would report 3 clients.
	c1 := f.client(t, agent, clientdomain.ClientStatusActive, time.Now().UTC())
	c2 := f.client(t, agent, clientdomain.ClientStatusActive, time.Now().UTC())
	f.coverage(t, c1, clientdomain.CoverageStatusActive, time.Now().UTC())
	f.coverage(t, c1, clientdomain.CoverageStatusPending, time.Now().UTC())
	f.coverage(t, c2, clientdomain.CoverageStatusActive, time.Now().UTC())

	report, err := f.svc.Roster(ctx, domain.RosterRequest{OrgID: org})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("rows = %d", len(report.Rows))
	}
	row := report.Rows[0]
	if row.ClientCount != 2 || row.PolicyCount != 3 {
		t.Fatalf("counts = %d clients / %d policies", row.ClientCount, row.PolicyCount)
	}
}

func TestRosterStatusFilterPostAggregation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.org(t, nil)
	f.agent(t, org, "Ann", "Active")
	inactive := f.agent(t, org, "Ira", "Idle")
	if err := f.db.Model(&profiledomain.AgentProfile{}).Where("id = ?", inactive).
		Update("status", profiledomain.StatusInactive).Error; err != nil {
		t.Fatalf("update status: %v", err)
	}

	report, err := f.svc.Roster(ctx, domain.RosterRequest{OrgID: org, Status: "inactive"})
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(report.Rows) != 1 || report.Rows[0].AgentName != "Ira Idle" {
		t.Fatalf("rows = %+v", report.Rows)
	}

	if _, err := f.svc.Roster(ctx, domain.RosterRequest{OrgID: org, Status: "bogus"}); !errors.Is(err, domain.ErrInvalidStatusFilter) {
		t.Fatalf("err = %v, want ErrInvalidStatusFilter", err)
	}
}

func TestClientStatusBucketsAndNullDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.org(t, nil)
	agent := f.agent(t, org, "Bea", "Hart")

	inWindow := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	before := time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)

	f.client(t, agent, clientdomain.ClientStatusActive, inWindow)
	f.client(t, agent, clientdomain.ClientStatusLead, inWindow)
	f.client(t, agent, clientdomain.ClientStatusInactive, before)
	// Missing status buckets as active.
	f.client(t, agent, "", before)

	report, err := f.svc.ClientStatus(ctx, domain.ClientStatusRequest{
		OrgID: org,
		Start: "2026-06-01",
		End:   "2026-06-30",
	})
	if err != nil {
		t.Fatalf("client status: %v", err)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("rows = %d", len(report.Rows))
	}
	row := report.Rows[0]
	if row.Total != 4 || row.New != 2 || row.Active != 2 || row.Lead != 1 || row.Inactive != 1 {
		t.Fatalf("row = %+v", row)
	}
	if row.AgencyName != "org-"+org.String() {
		t.Fatalf("agency = %q", row.AgencyName)
	}
}

func TestSubOrgFilterReResolvesFromSubOrg(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.org(t, nil)
	sub := f.org(t, &root)
	f.agent(t, root, "Root", "Agent")
	subAgent := f.agent(t, sub, "Sub", "Agent")
	f.client(t, subAgent, clientdomain.ClientStatusActive, time.Now().UTC())

	report, err := f.svc.ClientStatus(ctx, domain.ClientStatusRequest{
		OrgID:    root,
		SubOrgID: sub.String(),
	})
	if err != nil {
		t.Fatalf("client status: %v", err)
	}
	if len(report.Rows) != 1 || report.Rows[0].AgentName != "Sub Agent" {
		t.Fatalf("rows = %+v", report.Rows)
	}
}

func TestEmptyDownlineYieldsEmptyReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.org(t, nil)

	prod, err := f.svc.Production(ctx, domain.ProductionRequest{OrgID: org})
	if err != nil || len(prod.Rows) != 0 {
		t.Fatalf("production = %+v, %v", prod, err)
	}
	roster, err := f.svc.Roster(ctx, domain.RosterRequest{OrgID: org})
	if err != nil || len(roster.Rows) != 0 {
		t.Fatalf("roster = %+v, %v", roster, err)
	}
}

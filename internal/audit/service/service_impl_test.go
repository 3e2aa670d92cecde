package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	auditrepo "github.com/agencydesk/agencydesk/internal/audit/repository"
	"github.com/agencydesk/agencydesk/internal/config"
	profiledomain "github.com/agencydesk/agencydesk/internal/profile/domain"
	profilerepo "github.com/agencydesk/agencydesk/internal/profile/repository"
	"github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc  auditdomain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&auditdomain.AuditLog{}, &profiledomain.AgentProfile{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:        gdb,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      auditrepo.Provide(),
		Profiles:  profilerepo.NewRepository(gdb),
		Reporting: config.StaticReportingConfig(config.DefaultReportingConfig()),
	})

	return &fixture{svc: svc, db: gdb, node: node}
}

func (f *fixture) seedProfile(t *testing.T, name string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	profile := profiledomain.AgentProfile{
		ID:        id,
		FirstName: name,
		Email:     fmt.Sprintf("%s@example.com", name),
		Status:    profiledomain.StatusActive,
	}
	require.NoError(t, f.db.Create(&profile).Error)
	return id
}

func TestRecordThenList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orgID := f.node.Generate()
	actor := f.seedProfile(t, "ana")
	target := f.seedProfile(t, "ben")

	err := f.svc.Record(ctx, orgID, auditdomain.ActionMemberInvited, actor, &target, map[string]any{"role": "agent"})
	require.NoError(t, err)

	resp, err := f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, int64(1), resp.Total)

	entry := resp.Entries[0]
	require.Equal(t, auditdomain.ActionMemberInvited, entry.Action)
	require.Equal(t, "ana", entry.ActorName)
	require.Equal(t, "ben", entry.TargetName)
	require.Equal(t, "agent", entry.Details["role"])
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orgID := f.node.Generate()
	actor := f.seedProfile(t, "ana")

	first := auditdomain.AuditLog{
		ID:             f.node.Generate(),
		OrganizationID: orgID,
		Action:         auditdomain.ActionMemberJoined,
		PerformedBy:    actor,
		CreatedAt:      time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, f.db.Create(&first).Error)
	require.NoError(t, f.svc.Record(ctx, orgID, auditdomain.ActionMemberRemoved, actor, nil, nil))

	resp, err := f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	require.Equal(t, auditdomain.ActionMemberRemoved, resp.Entries[0].Action)
	require.Equal(t, auditdomain.ActionMemberJoined, resp.Entries[1].Action)
}

func TestListUnknownActorFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orgID := f.node.Generate()
	ghost := f.node.Generate() // never seeded

	require.NoError(t, f.svc.Record(ctx, orgID, auditdomain.ActionMemberRemoved, ghost, nil, nil))

	resp, err := f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	require.Equal(t, UnknownActor, resp.Entries[0].ActorName)
}

func TestListFixedPageSize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orgID := f.node.Generate()
	actor := f.seedProfile(t, "ana")

	pageSize := config.DefaultReportingConfig().AuditPageSize
	for i := 0; i < pageSize+5; i++ {
		require.NoError(t, f.svc.Record(ctx, orgID, auditdomain.ActionMemberJoined, actor, nil, nil))
	}

	resp, err := f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID, Page: "1"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, pageSize)
	require.Equal(t, 2, resp.TotalPages)

	resp, err = f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID, Page: "2"})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 5)

	// Garbage page input falls back to the first page.
	resp, err = f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID, Page: "banana"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Page)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orgID := f.node.Generate()
	otherOrg := f.node.Generate()
	actor := f.seedProfile(t, "ana")

	require.NoError(t, f.svc.Record(ctx, orgID, auditdomain.ActionMemberJoined, actor, nil, nil))
	require.NoError(t, f.svc.Record(ctx, orgID, auditdomain.ActionMemberRemoved, actor, nil, nil))
	require.NoError(t, f.svc.Record(ctx, otherOrg, auditdomain.ActionMemberJoined, actor, nil, nil))

	resp, err := f.svc.List(ctx, auditdomain.ListRequest{
		OrganizationID: orgID,
		Action:         auditdomain.ActionMemberJoined,
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)

	start := time.Now().UTC().Add(time.Hour)
	resp, err = f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID, StartAt: &start})
	require.NoError(t, err)
	require.Empty(t, resp.Entries)
	require.Zero(t, resp.TotalPages)

	// An inverted range is swapped, not rejected.
	end := time.Now().UTC().Add(-time.Hour)
	resp, err = f.svc.List(ctx, auditdomain.ListRequest{OrganizationID: orgID, StartAt: &start, EndAt: &end})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
}

func TestRecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Record(ctx, 0, auditdomain.ActionMemberJoined, f.node.Generate(), nil, nil)
	require.ErrorIs(t, err, auditdomain.ErrInvalidOrganization)

	err = f.svc.Record(ctx, f.node.Generate(), "  ", f.node.Generate(), nil, nil)
	require.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/downline"
	"github.com/agencydesk/agencydesk/internal/observability/metrics"
	organizationdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	profiledomain "github.com/agencydesk/agencydesk/internal/profile/domain"
	"github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Resolver  *downline.Resolver
	Profiles  profiledomain.Repository
	Reporting *config.ReportingConfigHolder
	Metrics   *metrics.Metrics    `optional:"true"`
	Audit     auditdomain.Service `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	resolver  *downline.Resolver
	profiles  profiledomain.Repository
	reporting *config.ReportingConfigHolder
	metrics   *metrics.Metrics
	audit     auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("report.service"),
		resolver:  p.Resolver,
		profiles:  p.Profiles,
		reporting: p.Reporting,
		metrics:   p.Metrics,
		audit:     p.Audit,
	}
}

// scopeAgents resolves the agent set a report covers. When a sub-org
// filter is present the downline is re-resolved from the sub-org, not
// intersected with the root's downline. A sub-org outside the root's
// tree is still honored, but the mismatch is logged and audited so the
// scope widening leaves a trace.
func (s *service) scopeAgents(ctx context.Context, rootOrgID snowflake.ID, subOrgID string) ([]snowflake.ID, error) {
	if rootOrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	sub := strings.TrimSpace(subOrgID)
	if sub == "" {
		return s.resolver.ResolveAgentIDs(ctx, rootOrgID)
	}

	parsed, err := snowflake.ParseString(sub)
	if err != nil || parsed == 0 {
		// Malformed filters fall back to the root scope.
		return s.resolver.ResolveAgentIDs(ctx, rootOrgID)
	}

	ok, err := s.resolver.Contains(ctx, rootOrgID, parsed)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn("sub-org filter outside root downline",
			zap.String("root_org_id", rootOrgID.String()),
			zap.String("sub_org_id", parsed.String()),
		)
		if s.audit != nil {
			actor := agentctx.AgentIDFromContext(ctx)
			if err := s.audit.Record(ctx, rootOrgID, auditdomain.ActionSubOrgScopeMismatch, actor, nil, map[string]any{
				"sub_org_id": parsed.String(),
			}); err != nil {
				s.log.Warn("audit write failed", zap.Error(err))
			}
		}
	}

	return s.resolver.ResolveAgentIDs(ctx, parsed)
}

// agentNames resolves display names for a report's agent set. Agents
// with no profile row render as their id rather than dropping out.
func (s *service) agentNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	names, err := s.profiles.DisplayNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			names[id] = id.String()
		}
	}
	return names, nil
}

// agencyNames maps each agent to the name of an organization they are
// an active member of, lowest org id first when they belong to several.
func (s *service) agencyNames(ctx context.Context, agentIDs []snowflake.ID) (map[snowflake.ID]string, error) {
	if len(agentIDs) == 0 {
		return map[snowflake.ID]string{}, nil
	}

	var memberships []struct {
		AgentID snowflake.ID
		Name    string
	}
	err := s.db.WithContext(ctx).
		Table("organization_members AS om").
		Select("om.agent_id AS agent_id, o.name AS name").
		Joins("JOIN organizations o ON o.id = om.organization_id").
		Where("om.agent_id IN ? AND om.status = ?", agentIDs, organizationdomain.MemberStatusActive).
		Order("om.organization_id ASC").
		Scan(&memberships).Error
	if err != nil {
		return nil, err
	}

	names := make(map[snowflake.ID]string, len(memberships))
	for _, m := range memberships {
		if _, ok := names[m.AgentID]; !ok {
			names[m.AgentID] = m.Name
		}
	}
	return names, nil
}

func (s *service) recordBuild(ctx context.Context, kind string, started time.Time) {
	s.metrics.RecordReportBuild(ctx, kind, time.Since(started))
}

// sortByName orders rows by display name, case-insensitive, with the
// agent id as a stable tie-break.
func sortByName[T any](rows []T, name func(T) string, id func(T) string) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := strings.ToLower(name(rows[i])), strings.ToLower(name(rows[j]))
		if a != b {
			return a < b
		}
		return id(rows[i]) < id(rows[j])
	})
}

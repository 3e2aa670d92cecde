// Package downline resolves an organization's downline closure: the
// organization itself plus every sub-agency reachable through parent
// links, and the active agents across that set. Every report aggregation
// is scoped by the ids this package returns.
package downline

import (
	"context"

	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/observability/metrics"
	orgdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Reporting *config.ReportingConfigHolder
	Metrics   *metrics.Metrics `optional:"true"`
}

// Resolver walks the organization tree level by level. Children are
// fetched one batch per level, so a resolution costs one query per
// depth step rather than one per node.
type Resolver struct {
	db        *gorm.DB
	log       *zap.Logger
	reporting *config.ReportingConfigHolder
	metrics   *metrics.Metrics
}

func NewResolver(p Params) *Resolver {
	return &Resolver{
		db:        p.DB,
		log:       p.Log.Named("downline.resolver"),
		reporting: p.Reporting,
		metrics:   p.Metrics,
	}
}

// ResolveOrgIDs returns the downline closure of root: root itself plus
// every transitive sub-agency. A root that does not exist yields an
// empty set, never an error. Traversal stops at the configured depth
// cap, and ids already visited are skipped so a corrupted parent cycle
// cannot loop.
func (r *Resolver) ResolveOrgIDs(ctx context.Context, root snowflake.ID) ([]snowflake.ID, error) {
	if root == 0 {
		return nil, nil
	}

	var exists int64
	err := r.db.WithContext(ctx).
		Model(&orgdomain.Organization{}).
		Where("id = ?", root).
		Count(&exists).Error
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return []snowflake.ID{}, nil
	}

	maxDepth := r.reporting.Current().MaxDownlineDepth
	seen := map[snowflake.ID]struct{}{root: {}}
	ordered := []snowflake.ID{root}
	frontier := []snowflake.ID{root}

	depth := 0
	truncated := false
	for len(frontier) > 0 {
		if depth >= maxDepth {
			truncated = true
			r.log.Warn("downline depth cap reached",
				zap.String("root_org_id", root.String()),
				zap.Int("max_depth", maxDepth),
			)
			break
		}

		var children []snowflake.ID
		err := r.db.WithContext(ctx).
			Model(&orgdomain.Organization{}).
			Where("parent_organization_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, err
		}

		next := children[:0]
		for _, id := range children {
			if _, ok := seen[id]; ok {
				// A repeat id means a parent cycle; drop it.
				r.log.Warn("cycle detected in organization tree",
					zap.String("org_id", id.String()),
					zap.String("root_org_id", root.String()),
				)
				continue
			}
			seen[id] = struct{}{}
			ordered = append(ordered, id)
			next = append(next, id)
		}
		frontier = next
		depth++
	}

	r.metrics.RecordDownlineResolution(ctx, depth, truncated)
	return ordered, nil
}

// ResolveAgentIDs returns the distinct active agents across the
// downline closure of root.
func (r *Resolver) ResolveAgentIDs(ctx context.Context, root snowflake.ID) ([]snowflake.ID, error) {
	orgIDs, err := r.ResolveOrgIDs(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(orgIDs) == 0 {
		return []snowflake.ID{}, nil
	}
	return r.AgentIDsForOrgs(ctx, orgIDs)
}

// AgentIDsForOrgs returns the distinct active agents belonging to any
// of the given organizations.
func (r *Resolver) AgentIDsForOrgs(ctx context.Context, orgIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(orgIDs) == 0 {
		return []snowflake.ID{}, nil
	}

	var agentIDs []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&orgdomain.OrganizationMember{}).
		Distinct("agent_id").
		Where("organization_id IN ? AND status = ?", orgIDs, orgdomain.MemberStatusActive).
		Pluck("agent_id", &agentIDs).Error
	if err != nil {
		return nil, err
	}
	return agentIDs, nil
}

// Contains reports whether candidate is in the downline closure of root.
func (r *Resolver) Contains(ctx context.Context, root, candidate snowflake.ID) (bool, error) {
	if candidate == root {
		return true, nil
	}
	orgIDs, err := r.ResolveOrgIDs(ctx, root)
	if err != nil {
		return false, err
	}
	for _, id := range orgIDs {
		if id == candidate {
			return true, nil
		}
	}
	return false, nil
}

var Module = fx.Module("downline",
	fx.Provide(NewResolver),
)

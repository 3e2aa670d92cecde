package service

import (
	"context"
	"strings"
	"time"

	clientdomain "github.com/agencydesk/agencydesk/internal/client/domain"
	profiledomain "github.com/agencydesk/agencydesk/internal/profile/domain"
	"github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/bwmarrin/snowflake"
)

type agentCount struct {
	AgentID snowflake.ID
	N       int
}

// Roster lists every agent in the downline with client and policy
// counts. The counts come from two independent grouped queries so an
// agent's client count is never inflated by a client-coverage product.
// The status filter applies after aggregation.
func (s *service) Roster(ctx context.Context, req domain.RosterRequest) (*domain.RosterReport, error) {
	started := time.Now()

	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case "", profiledomain.StatusActive, profiledomain.StatusInactive:
	default:
		return nil, domain.ErrInvalidStatusFilter
	}

	agentIDs, err := s.scopeAgents(ctx, req.OrgID, req.SubOrgID)
	if err != nil {
		return nil, err
	}

	report := &domain.RosterReport{Rows: []domain.RosterRow{}}
	if len(agentIDs) == 0 {
		return report, nil
	}

	clientCounts, err := s.countClients(ctx, agentIDs)
	if err != nil {
		return nil, err
	}
	policyCounts, err := s.countPolicies(ctx, agentIDs)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.ListByIDs(ctx, agentIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]profiledomain.AgentProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	for _, id := range agentIDs {
		row := domain.RosterRow{
			AgentID:     id.String(),
			AgentName:   id.String(),
			Status:      profiledomain.StatusActive,
			ClientCount: clientCounts[id],
			PolicyCount: policyCounts[id],
		}
		if p, ok := byID[id]; ok {
			row.AgentName = p.DisplayName()
			row.Email = p.Email
			row.NPN = p.NPN
			if p.Status != "" {
				row.Status = p.Status
			}
		}
		if status != "" && row.Status != status {
			continue
		}
		report.Rows = append(report.Rows, row)
	}

	sortByName(report.Rows,
		func(r domain.RosterRow) string { return r.AgentName },
		func(r domain.RosterRow) string { return r.AgentID },
	)

	s.recordBuild(ctx, "roster", started)
	return report, nil
}

func (s *service) countClients(ctx context.Context, agentIDs []snowflake.ID) (map[snowflake.ID]int, error) {
	var counts []agentCount
	err := s.db.WithContext(ctx).
		Model(&clientdomain.Client{}).
		Select("agent_id AS agent_id, COUNT(*) AS n").
		Where("agent_id IN ?", agentIDs).
		Group("agent_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return countMap(counts), nil
}

func (s *service) countPolicies(ctx context.Context, agentIDs []snowflake.ID) (map[snowflake.ID]int, error) {
	var counts []agentCount
	err := s.db.WithContext(ctx).
		Model(&clientdomain.Coverage{}).
		Select("clients.agent_id AS agent_id, COUNT(*) AS n").
		Joins("JOIN clients ON clients.id = coverages.client_id").
		Where("clients.agent_id IN ?", agentIDs).
		Group("clients.agent_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return countMap(counts), nil
}

func countMap(counts []agentCount) map[snowflake.ID]int {
	out := make(map[snowflake.ID]int, len(counts))
	for _, c := range counts {
		out[c.AgentID] = c.N
	}
	return out
}

package service

import (
	"context"
	"time"

	clientdomain "github.com/agencydesk/agencydesk/internal/client/domain"
	"github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/bwmarrin/snowflake"
)

type productionFact struct {
	AgentID       snowflake.ID
	EffectiveDate time.Time
}

// Production builds the month grid for the selected year: one row per
// producing agent with a policy count per calendar month and a year
// total. Only coverages in a production status count.
func (s *service) Production(ctx context.Context, req domain.ProductionRequest) (*domain.ProductionReport, error) {
	started := time.Now()

	agentIDs, err := s.scopeAgents(ctx, req.OrgID, req.SubOrgID)
	if err != nil {
		return nil, err
	}

	year := domain.NormalizeYear(req.Year, time.Now().UTC())
	window := domain.YearRange(year)

	report := &domain.ProductionReport{Year: year, Rows: []domain.ProductionRow{}}
	if len(agentIDs) == 0 {
		return report, nil
	}

	statuses := s.reporting.Current().ProductionStatuses

	var facts []productionFact
	err = s.db.WithContext(ctx).
		Model(&clientdomain.Coverage{}).
		Select("clients.agent_id AS agent_id, coverages.effective_date AS effective_date").
		Joins("JOIN clients ON clients.id = coverages.client_id").
		Where("clients.agent_id IN ?", agentIDs).
		Where("coverages.status IN ?", statuses).
		Where("coverages.effective_date BETWEEN ? AND ?", window.Start, window.End).
		Scan(&facts).Error
	if err != nil {
		return nil, err
	}

	grid := make(map[snowflake.ID]*domain.ProductionRow, len(agentIDs))
	for _, fact := range facts {
		row, ok := grid[fact.AgentID]
		if !ok {
			row = &domain.ProductionRow{AgentID: fact.AgentID.String()}
			grid[fact.AgentID] = row
		}
		month := int(fact.EffectiveDate.Month()) - 1
		row.Months[month]++
		row.Total++
	}

	producing := make([]snowflake.ID, 0, len(grid))
	for id := range grid {
		producing = append(producing, id)
	}
	names, err := s.agentNames(ctx, producing)
	if err != nil {
		return nil, err
	}

	for id, row := range grid {
		row.AgentName = names[id]
		report.Rows = append(report.Rows, *row)
	}
	sortByName(report.Rows,
		func(r domain.ProductionRow) string { return r.AgentName },
		func(r domain.ProductionRow) string { return r.AgentID },
	)

	s.recordBuild(ctx, "production", started)
	return report, nil
}

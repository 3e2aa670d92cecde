package service

import (
	"context"
	"time"

	clientdomain "github.com/agencydesk/agencydesk/internal/client/domain"
	"github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/bwmarrin/snowflake"
)

type clientFact struct {
	AgentID   snowflake.ID
	Status    string
	CreatedAt time.Time
}

// ClientStatus buckets each agent's clients by status. The "new"
// bucket counts clients created inside the requested window; the
// status buckets span the agent's whole book. A missing status is
// counted as active.
func (s *service) ClientStatus(ctx context.Context, req domain.ClientStatusRequest) (*domain.ClientStatusReport, error) {
	started := time.Now()

	agentIDs, err := s.scopeAgents(ctx, req.OrgID, req.SubOrgID)
	if err != nil {
		return nil, err
	}

	window := domain.NormalizeDateRange(req.Start, req.End, time.Now().UTC())
	report := &domain.ClientStatusReport{
		Range: window,
		Start: window.Start.Format("2006-01-02"),
		End:   window.End.Format("2006-01-02"),
		Rows:  []domain.ClientStatusRow{},
	}
	if len(agentIDs) == 0 {
		return report, nil
	}

	var facts []clientFact
	err = s.db.WithContext(ctx).
		Model(&clientdomain.Client{}).
		Select("agent_id AS agent_id, status AS status, created_at AS created_at").
		Where("agent_id IN ?", agentIDs).
		Scan(&facts).Error
	if err != nil {
		return nil, err
	}

	rows := make(map[snowflake.ID]*domain.ClientStatusRow, len(agentIDs))
	for _, fact := range facts {
		row, ok := rows[fact.AgentID]
		if !ok {
			row = &domain.ClientStatusRow{AgentID: fact.AgentID.String()}
			rows[fact.AgentID] = row
		}
		row.Total++
		if !fact.CreatedAt.Before(window.Start) && !fact.CreatedAt.After(window.End) {
			row.New++
		}
		switch clientdomain.NormalizeClientStatus(fact.Status) {
		case clientdomain.ClientStatusLead:
			row.Lead++
		case clientdomain.ClientStatusInactive:
			row.Inactive++
		default:
			row.Active++
		}
	}

	withClients := make([]snowflake.ID, 0, len(rows))
	for id := range rows {
		withClients = append(withClients, id)
	}
	names, err := s.agentNames(ctx, withClients)
	if err != nil {
		return nil, err
	}
	agencies, err := s.agencyNames(ctx, withClients)
	if err != nil {
		return nil, err
	}

	for id, row := range rows {
		row.AgentName = names[id]
		row.AgencyName = agencies[id]
		report.Rows = append(report.Rows, *row)
	}
	sortByName(report.Rows,
		func(r domain.ClientStatusRow) string { return r.AgentName },
		func(r domain.ClientStatusRow) string { return r.AgentID },
	)

	s.recordBuild(ctx, "client_status", started)
	return report, nil
}

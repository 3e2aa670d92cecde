package export

import (
	"strconv"
	"time"

	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/report/domain"
)

// Column sets and row adapters for each report. Keys match the report
// row JSON fields so screen, CSV and PDF all project the same data.

func ProductionColumns() []Column {
	cols := make([]Column, 0, 14)
	cols = append(cols, Column{Key: "agent_name", Header: "Agent"})
	for m := time.January; m <= time.December; m++ {
		key := "m" + strconv.Itoa(int(m))
		cols = append(cols, Column{Key: key, Header: m.String()[:3], Align: AlignRight})
	}
	return append(cols, Column{Key: "total", Header: "Total", Align: AlignRight})
}

func ProductionRows(rows []domain.ProductionRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		row := Row{"agent_name": r.AgentName, "total": r.Total}
		for i, n := range r.Months {
			row["m"+strconv.Itoa(i+1)] = n
		}
		out = append(out, row)
	}
	return out
}

func RosterColumns() []Column {
	return []Column{
		{Key: "agent_name", Header: "Agent"},
		{Key: "email", Header: "Email"},
		{Key: "npn", Header: "NPN"},
		{Key: "status", Header: "Status"},
		{Key: "client_count", Header: "Clients", Align: AlignRight},
		{Key: "policy_count", Header: "Policies", Align: AlignRight},
	}
}

func RosterRows(rows []domain.RosterRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, Row{
			"agent_name":   r.AgentName,
			"email":        r.Email,
			"npn":          r.NPN,
			"status":       r.Status,
			"client_count": r.ClientCount,
			"policy_count": r.PolicyCount,
		})
	}
	return out
}

func ClientStatusColumns() []Column {
	return []Column{
		{Key: "agent_name", Header: "Agent"},
		{Key: "agency_name", Header: "Agency"},
		{Key: "total", Header: "Total", Align: AlignRight},
		{Key: "new", Header: "New", Align: AlignRight},
		{Key: "active", Header: "Active", Align: AlignRight},
		{Key: "lead", Header: "Leads", Align: AlignRight},
		{Key: "inactive", Header: "Inactive", Align: AlignRight},
	}
}

func ClientStatusRows(rows []domain.ClientStatusRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, Row{
			"agent_name":  r.AgentName,
			"agency_name": r.AgencyName,
			"total":       r.Total,
			"new":         r.New,
			"active":      r.Active,
			"lead":        r.Lead,
			"inactive":    r.Inactive,
		})
	}
	return out
}

func AuditColumns() []Column {
	return []Column{
		{Key: "created_at", Header: "When"},
		{Key: "action", Header: "Action"},
		{Key: "actor_name", Header: "Actor"},
		{Key: "target_name", Header: "Target"},
	}
}

func AuditRows(entries []auditdomain.Entry) []Row {
	out := make([]Row, 0, len(entries))
	for _, e := range entries {
		out = append(out, Row{
			"created_at":  e.CreatedAt.UTC().Format(time.RFC3339),
			"action":      e.Action,
			"actor_name":  e.ActorName,
			"target_name": e.TargetName,
		})
	}
	return out
}

package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/authorization"
	reportdomain "github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/agencydesk/agencydesk/internal/report/export"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// Export handlers render a report as a downloadable file, ?format=pdf
// or csv (default). They run the same effective-org gate as the JSON
// endpoints plus the export capability check.

func (s *Server) ExportProductionReport(c *gin.Context) {
	orgID, err := s.exportGate(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.reportSvc.Production(c.Request.Context(), reportdomain.ProductionRequest{
		OrgID:    orgID,
		SubOrgID: c.Query("sub_org"),
		Year:     c.Query("year"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	table := export.Project(export.ProductionColumns(), export.ProductionRows(report.Rows))
	title := fmt.Sprintf("Production by Month %d", report.Year)
	s.writeExport(c, "production", title, "", table, len(report.Rows))
}

func (s *Server) ExportRosterReport(c *gin.Context) {
	orgID, err := s.exportGate(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.reportSvc.Roster(c.Request.Context(), reportdomain.RosterRequest{
		OrgID:    orgID,
		SubOrgID: c.Query("sub_org"),
		Status:   c.Query("status"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	table := export.Project(export.RosterColumns(), export.RosterRows(report.Rows))
	s.writeExport(c, "roster", "Agent Roster", "", table, len(report.Rows))
}

func (s *Server) ExportClientStatusReport(c *gin.Context) {
	orgID, err := s.exportGate(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.reportSvc.ClientStatus(c.Request.Context(), reportdomain.ClientStatusRequest{
		OrgID:    orgID,
		SubOrgID: c.Query("sub_org"),
		Start:    c.Query("start"),
		End:      c.Query("end"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	table := export.Project(export.ClientStatusColumns(), export.ClientStatusRows(report.Rows))
	subtitle := fmt.Sprintf("%s to %s", report.Start, report.End)
	s.writeExport(c, "clients", "Clients by Status", subtitle, table, len(report.Rows))
}

func (s *Server) ExportAuditLogs(c *gin.Context) {
	orgID, err := s.exportGate(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := s.auditListRequest(c, orgID)

	// The list endpoint is fixed at one page; exports walk every page
	// so the file covers the whole filtered window, up to the row limit.
	limit := s.reporting.Current().ExportRowLimit
	var entries []auditdomain.Entry
	for page := 1; ; page++ {
		req.Page = strconv.Itoa(page)
		resp, err := s.auditSvc.List(c.Request.Context(), req)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		entries = append(entries, resp.Entries...)
		if page >= resp.TotalPages || len(resp.Entries) == 0 || len(entries) >= limit {
			break
		}
	}

	table := export.Project(export.AuditColumns(), export.AuditRows(entries))
	s.writeExport(c, "audit-logs", "Audit Log", "", table, len(entries))
}

func (s *Server) exportGate(c *gin.Context) (snowflake.ID, error) {
	orgID, err := s.effectiveOrg(c)
	if err != nil {
		return 0, err
	}

	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	actor := fmt.Sprintf("agent:%s", agentID)
	if err := s.authzSvc.Authorize(c.Request.Context(), actor, orgID.String(), authorization.ObjectExport, authorization.ActionExportDownload); err != nil {
		return 0, err
	}
	return orgID, nil
}

func (s *Server) writeExport(c *gin.Context, name, title, subtitle string, table export.Table, rows int) {
	if limit := s.reporting.Current().ExportRowLimit; len(table.Cells) > limit {
		table.Cells = table.Cells[:limit]
		rows = limit
	}
	s.obsMetrics.RecordExportRows(c.Request.Context(), name, rows)

	if c.Query("format") == "pdf" {
		reader, err := table.PDF(title, subtitle)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, name, time.Now().UTC().Format("20060102")))
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, reader); err != nil {
			_ = c.Error(err)
		}
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, name, time.Now().UTC().Format("20060102")))
	c.Status(http.StatusOK)
	if err := table.WriteCSV(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

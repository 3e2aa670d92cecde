package server

import (
	"net/http"

	reportdomain "github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/agencydesk/agencydesk/internal/report/export"
	"github.com/gin-gonic/gin"
)

// Report handlers all follow the same shape: run the effective-org
// gate, build the report over that org's downline, then render JSON or
// CSV per ?format.

func (s *Server) GetProductionReport(c *gin.Context) {
	orgID, err := s.effectiveOrg(c)
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

	if c.Query("format") == "csv" {
		s.writeCSV(c, "production", export.Project(export.ProductionColumns(), export.ProductionRows(report.Rows)))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetRosterReport(c *gin.Context) {
	orgID, err := s.effectiveOrg(c)
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

	if c.Query("format") == "csv" {
		s.writeCSV(c, "roster", export.Project(export.RosterColumns(), export.RosterRows(report.Rows)))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetClientStatusReport(c *gin.Context) {
	orgID, err := s.effectiveOrg(c)
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

	if c.Query("format") == "csv" {
		s.writeCSV(c, "clients", export.Project(export.ClientStatusColumns(), export.ClientStatusRows(report.Rows)))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) writeCSV(c *gin.Context, name string, table export.Table) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	c.Status(http.StatusOK)
	if err := table.WriteCSV(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

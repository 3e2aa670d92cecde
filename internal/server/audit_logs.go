package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/authorization"
	reportdomain "github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// ListAuditLogs pages one organization's audit trail. Unlike the
// report endpoints the scope is the org itself, never its downline.
func (s *Server) ListAuditLogs(c *gin.Context) {
	orgID, err := s.effectiveOrg(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	actor := fmt.Sprintf("agent:%s", agentID)
	if err := s.authzSvc.Authorize(c.Request.Context(), actor, orgID.String(), authorization.ObjectAuditLog, authorization.ActionAuditLogView); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), s.auditListRequest(c, orgID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// auditListRequest runs the audit window through the same lenient
// normalizer the reports use: missing or malformed dates fall back to
// first-of-month..today and inverted ranges are swapped, never 400s.
func (s *Server) auditListRequest(c *gin.Context, orgID snowflake.ID) auditdomain.ListRequest {
	window := reportdomain.NormalizeDateRange(c.Query("start"), c.Query("end"), time.Now().UTC())
	return auditdomain.ListRequest{
		OrganizationID: orgID,
		Action:         c.Query("action"),
		StartAt:        &window.Start,
		EndAt:          &window.End,
		Page:           c.Query("page"),
	}
}

package server

import (
	"strings"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// effectiveOrg runs the dashboard-access gate for the request's ?org
// parameter: the requested org if the caller may see it, else the
// caller's first dashboard org, else denied.
func (s *Server) effectiveOrg(c *gin.Context) (snowflake.ID, error) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	if agentID == 0 {
		return 0, ErrUnauthorized
	}
	return s.organizationSvc.ResolveEffectiveOrg(c.Request.Context(), agentID, c.Query("org"))
}

func parseSnowflakeParam(c *gin.Context, name string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || parsed == 0 {
		return 0, ErrInvalidRequest
	}
	return parsed, nil
}

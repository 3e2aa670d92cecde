package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// AgentRequired reads the authenticated agent id from the auth proxy
// header and stashes it in the request context. Credential validation
// happens upstream; a missing or malformed header is simply
// unauthorized here.
func (s *Server) AgentRequired() gin.HandlerFunc {
	header := s.cfg.AuthAgentHeader
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		agentID, err := snowflake.ParseString(raw)
		if err != nil || agentID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := agentctx.WithAgentID(c.Request.Context(), agentID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authorizeOrgAction gates a route on the caller's role in the org
// named by the :id path param.
func (s *Server) authorizeOrgAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := agentctx.AgentIDFromContext(c.Request.Context())
		if agentID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID := strings.TrimSpace(c.Param("id"))
		if orgID == "" {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		actor := fmt.Sprintf("agent:%s", agentID)
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, orgID, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ExportRateLimit throttles downloads per effective organization. The
// limiter keys on the caller's requested org; the export handlers
// re-run the effective-org gate before touching data.
func (s *Server) ExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.exportLimiter.Enabled() {
			c.Next()
			return
		}

		effectiveOrg, err := s.effectiveOrg(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		allowed, retryAfter, err := s.exportLimiter.AllowOrg(c.Request.Context(), effectiveOrg.String())
		if err != nil {
			// Redis trouble must not take exports down.
			c.Next()
			return
		}
		if !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter/time.Second)+1))
			}
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), effectiveOrg.String(), c.FullPath())
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

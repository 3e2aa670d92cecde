package server

import (
	"net/http"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	organizationdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/gin-gonic/gin"
)

type inviteMembersRequest struct {
	Invites []struct {
		Email string `json:"email" binding:"required"`
		Role  string `json:"role" binding:"required"`
	} `json:"invites" binding:"required"`
}

func (s *Server) InviteMembers(c *gin.Context) {
	var req inviteMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invites := make([]organizationdomain.InviteRequest, 0, len(req.Invites))
	for _, invite := range req.Invites {
		invites = append(invites, organizationdomain.InviteRequest{
			Email: invite.Email,
			Role:  invite.Role,
		})
	}

	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	if err := s.organizationSvc.InviteMembers(c.Request.Context(), agentID, c.Param("id"), invites); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invited": len(invites)})
}

func (s *Server) AcceptInvite(c *gin.Context) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	if err := s.organizationSvc.AcceptInvite(c.Request.Context(), agentID, c.Param("token")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

type updateMemberRequest struct {
	AgentID            string `json:"agent_id" binding:"required"`
	Role               string `json:"role"`
	HasDashboardAccess *bool  `json:"has_dashboard_access"`
	CanViewAgencyBook  *bool  `json:"can_view_agency_book"`
}

func (s *Server) UpdateMemberRole(c *gin.Context) {
	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	err := s.organizationSvc.UpdateMemberRole(c.Request.Context(), agentID, c.Param("id"), organizationdomain.UpdateMemberRequest{
		AgentID:            req.AgentID,
		Role:               req.Role,
		HasDashboardAccess: req.HasDashboardAccess,
		CanViewAgencyBook:  req.CanViewAgencyBook,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) RemoveMember(c *gin.Context) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	if err := s.organizationSvc.RemoveMember(c.Request.Context(), agentID, c.Param("id"), c.Param("agentId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

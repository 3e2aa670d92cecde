package server

import (
	"net/http"

	"github.com/agencydesk/agencydesk/internal/agentctx"
	organizationdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	"github.com/gin-gonic/gin"
)

type createAgencyRequest struct {
	Name    string `json:"name" binding:"required"`
	LogoURL string `json:"logo_url"`
}

func (s *Server) CreateAgency(c *gin.Context) {
	var req createAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	org, err := s.organizationSvc.CreateAgency(c.Request.Context(), agentID, organizationdomain.CreateAgencyRequest{
		Name:    req.Name,
		LogoURL: req.LogoURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) GetOrganization(c *gin.Context) {
	org, err := s.organizationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// GetDownline returns the full downline closure of an organization as
// id/name references.
func (s *Server) GetDownline(c *gin.Context) {
	root, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	orgIDs, err := s.resolver.ResolveOrgIDs(c.Request.Context(), root)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	refs := make([]gin.H, 0, len(orgIDs))
	for _, id := range orgIDs {
		org, err := s.organizationSvc.GetByID(c.Request.Context(), id.String())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		refs = append(refs, gin.H{"id": org.ID, "name": org.Name, "type": org.Type})
	}
	c.JSON(http.StatusOK, gin.H{"organizations": refs})
}

func (s *Server) GetProfile(c *gin.Context) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	profile, err := s.profileRepo.GetByID(c.Request.Context(), agentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if profile == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListMyOrganizations lists the caller's memberships with roles, plus
// the subsets with dashboard and agency-book access.
func (s *Server) ListMyOrganizations(c *gin.Context) {
	ctx := c.Request.Context()
	agentID := agentctx.AgentIDFromContext(ctx)

	memberships, err := s.organizationSvc.ListMemberOrgsWithRoles(ctx, agentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dashboard, err := s.organizationSvc.ListDashboardOrgs(ctx, agentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	agencyBook, err := s.organizationSvc.ListAgencyBookOrgs(ctx, agentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": memberships,
		"dashboard":     dashboard,
		"agency_book":   agencyBook,
	})
}

type requestSubAgencyBody struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) RequestSubAgency(c *gin.Context) {
	var body requestSubAgencyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	req, err := s.organizationSvc.RequestSubAgency(c.Request.Context(), agentID, c.Param("id"), body.Name)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) ListSubAgencyRequests(c *gin.Context) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	reqs, err := s.organizationSvc.ListSubAgencyRequests(c.Request.Context(), agentID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (s *Server) ApproveSubAgencyRequest(c *gin.Context) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	org, err := s.organizationSvc.ApproveSubAgencyRequest(c.Request.Context(), agentID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (s *Server) DenySubAgencyRequest(c *gin.Context) {
	agentID := agentctx.AgentIDFromContext(c.Request.Context())
	if err := s.organizationSvc.DenySubAgencyRequest(c.Request.Context(), agentID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "denied"})
}

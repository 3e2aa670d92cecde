package server

import (
	"context"
	"net/http"
	"time"

	"github.com/agencydesk/agencydesk/internal/audit"
	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/authorization"
	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/downline"
	"github.com/agencydesk/agencydesk/internal/observability"
	obsmiddleware "github.com/agencydesk/agencydesk/internal/observability/logger"
	obsmetrics "github.com/agencydesk/agencydesk/internal/observability/metrics"
	obstracing "github.com/agencydesk/agencydesk/internal/observability/tracing"
	"github.com/agencydesk/agencydesk/internal/organization"
	organizationdomain "github.com/agencydesk/agencydesk/internal/organization/domain"
	profiledomain "github.com/agencydesk/agencydesk/internal/profile/domain"
	"github.com/agencydesk/agencydesk/internal/profile"
	"github.com/agencydesk/agencydesk/internal/ratelimit"
	"github.com/agencydesk/agencydesk/internal/report"
	reportdomain "github.com/agencydesk/agencydesk/internal/report/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	downline.Module,
	organization.Module,
	profile.Module,
	ratelimit.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	organizationSvc organizationdomain.Service
	profileRepo     profiledomain.Repository
	reportSvc       reportdomain.Service
	resolver        *downline.Resolver
	reporting       *config.ReportingConfigHolder
	exportLimiter   *ratelimit.ExportLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	OrganizationSvc organizationdomain.Service
	ProfileRepo     profiledomain.Repository
	ReportSvc       reportdomain.Service
	Resolver        *downline.Resolver
	Reporting       *config.ReportingConfigHolder
	ExportLimiter   *ratelimit.ExportLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		organizationSvc: p.OrganizationSvc,
		profileRepo:     p.ProfileRepo,
		reportSvc:       p.ReportSvc,
		resolver:        p.Resolver,
		reporting:       p.Reporting,
		exportLimiter:   p.ExportLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AgentRequired())

	api.GET("/me", s.GetProfile)
	api.GET("/me/organizations", s.ListMyOrganizations)

	// -------- Organizations --------
	api.POST("/organizations", s.CreateAgency)
	api.GET("/organizations/:id", s.authorizeOrgAction(authorization.ObjectOrganization, authorization.ActionOrganizationView), s.GetOrganization)
	api.GET("/organizations/:id/downline", s.authorizeOrgAction(authorization.ObjectOrganization, authorization.ActionOrganizationView), s.GetDownline)

	// -------- Sub-agencies --------
	api.POST("/organizations/:id/sub-agencies", s.RequestSubAgency)
	api.GET("/organizations/:id/sub-agencies/requests", s.authorizeOrgAction(authorization.ObjectOrganization, authorization.ActionOrganizationManage), s.ListSubAgencyRequests)
	api.POST("/sub-agency-requests/:id/approve", s.ApproveSubAgencyRequest)
	api.POST("/sub-agency-requests/:id/deny", s.DenySubAgencyRequest)

	// -------- Members / invites --------
	api.POST("/organizations/:id/invites", s.authorizeOrgAction(authorization.ObjectInvite, authorization.ActionInviteCreate), s.InviteMembers)
	api.POST("/invites/:token/accept", s.AcceptInvite)
	api.PATCH("/organizations/:id/members", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberManage), s.UpdateMemberRole)
	api.DELETE("/organizations/:id/members/:agentId", s.authorizeOrgAction(authorization.ObjectMember, authorization.ActionMemberManage), s.RemoveMember)

	// -------- Reports --------
	// The effective-org gate inside each handler picks the org the
	// caller may see; a guessed org id falls back or is denied there.
	reports := api.Group("/reports")
	{
		reports.GET("/production", s.GetProductionReport)
		reports.GET("/roster", s.GetRosterReport)
		reports.GET("/clients", s.GetClientStatusReport)
	}

	api.GET("/audit-logs", s.ListAuditLogs)

	// -------- Exports --------
	exports := api.Group("/exports", s.ExportRateLimit())
	{
		exports.GET("/production", s.ExportProductionReport)
		exports.GET("/roster", s.ExportRosterReport)
		exports.GET("/clients", s.ExportClientStatusReport)
		exports.GET("/audit-logs", s.ExportAuditLogs)
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/auditcontext"
	auditdomain "github.com/agencydesk/agencydesk/internal/audit/domain"
	"github.com/agencydesk/agencydesk/internal/config"
	profiledomain "github.com/agencydesk/agencydesk/internal/profile/domain"
	"github.com/agencydesk/agencydesk/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UnknownActor is rendered when an actor id no longer resolves to a profile.
const UnknownActor = "Unknown"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      auditdomain.Repository
	Profiles  profiledomain.Repository
	Reporting *config.ReportingConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      auditdomain.Repository
	profiles  profiledomain.Repository
	reporting *config.ReportingConfigHolder
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("audit.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		profiles:  p.Profiles,
		reporting: p.Reporting,
	}
}

func (s *Service) Record(ctx context.Context, orgID snowflake.ID, action string, performedBy snowflake.ID, targetAgentID *snowflake.ID, details map[string]any) error {
	if orgID == 0 {
		return auditdomain.ErrInvalidOrganization
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	payload := map[string]any{}
	for key, value := range details {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	entry := auditdomain.AuditLog{
		ID:             s.genID.Generate(),
		OrganizationID: orgID,
		Action:         action,
		PerformedBy:    performedBy,
		TargetAgentID:  targetAgentID,
		Details:        datatypes.JSONMap(payload),
		CreatedAt:      time.Now().UTC(),
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	if req.OrganizationID == 0 {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidOrganization
	}
	// Inverted ranges are swapped, matching the lenient normalizer the
	// report windows go through.
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		req.StartAt, req.EndAt = req.EndAt, req.StartAt
	}

	pageSize := pagination.DefaultPageSize
	if s.reporting != nil {
		pageSize = s.reporting.Current().AuditPageSize
	}
	page := pagination.Normalize(req.Page, pageSize)

	filter := auditdomain.ListFilter{
		OrganizationID: req.OrganizationID,
		Action:         req.Action,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		Offset:         page.Offset,
		Limit:          page.Limit,
	}

	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	logs, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	names, err := s.resolveNames(ctx, logs)
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	entries := make([]auditdomain.Entry, 0, len(logs))
	for _, row := range logs {
		entry := auditdomain.Entry{
			ID:        row.ID.String(),
			Action:    row.Action,
			ActorID:   row.PerformedBy.String(),
			ActorName: nameOrUnknown(names, row.PerformedBy),
			Details:   row.Details,
			CreatedAt: row.CreatedAt,
		}
		if row.TargetAgentID != nil {
			entry.TargetID = row.TargetAgentID.String()
			entry.TargetName = nameOrUnknown(names, *row.TargetAgentID)
		}
		entries = append(entries, entry)
	}

	return auditdomain.ListResponse{
		Entries:    entries,
		Page:       page.Page,
		TotalPages: pagination.TotalPages(total, page.Limit),
		Total:      total,
	}, nil
}

func (s *Service) resolveNames(ctx context.Context, logs []*auditdomain.AuditLog) (map[snowflake.ID]string, error) {
	seen := map[snowflake.ID]struct{}{}
	ids := make([]snowflake.ID, 0, len(logs))
	for _, row := range logs {
		for _, id := range auditAgentIDs(row) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[snowflake.ID]string{}, nil
	}
	return s.profiles.DisplayNames(ctx, ids)
}

func auditAgentIDs(row *auditdomain.AuditLog) []snowflake.ID {
	ids := []snowflake.ID{}
	if row.PerformedBy != 0 {
		ids = append(ids, row.PerformedBy)
	}
	if row.TargetAgentID != nil && *row.TargetAgentID != 0 {
		ids = append(ids, *row.TargetAgentID)
	}
	return ids
}

func nameOrUnknown(names map[snowflake.ID]string, id snowflake.ID) string {
	if name, ok := names[id]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return UnknownActor
}

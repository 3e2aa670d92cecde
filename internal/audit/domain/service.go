package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter scopes an audit listing to one organization. The listing is
// never downline-expanded.
type ListFilter struct {
	OrganizationID snowflake.ID
	Action         string
	StartAt        *time.Time
	EndAt          *time.Time
	Offset         int
	Limit          int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
	Count(ctx context.Context, db *gorm.DB, filter ListFilter) (int64, error)
}

// Entry is an audit log row with actor/target ids resolved to display names.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	TargetID   string         `json:"target_id,omitempty"`
	TargetName string         `json:"target_name,omitempty"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ListRequest struct {
	OrganizationID snowflake.ID
	Action         string
	StartAt        *time.Time
	EndAt          *time.Time
	Page           string
}

type ListResponse struct {
	Entries    []Entry `json:"entries"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	Total      int64   `json:"total"`
}

type Service interface {
	Record(ctx context.Context, orgID snowflake.ID, action string, performedBy snowflake.ID, targetAgentID *snowflake.ID, details map[string]any) error
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidAction       = errors.New("invalid_action")
)

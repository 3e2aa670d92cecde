// Package domain contains persistence models for agent profiles.
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// AgentProfile is the display/profile record for an agent. Credentials live
// with the auth provider; this table only mirrors what reports need.
type AgentProfile struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	FirstName string       `gorm:"type:text" json:"first_name"`
	LastName  string       `gorm:"type:text" json:"last_name"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	NPN       string       `gorm:"type:text;column:npn" json:"npn"`
	Status    string       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AgentProfile) TableName() string { return "agent_profiles" }

// DisplayName renders the agent's name for reports, falling back to email.
func (p AgentProfile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name != "" {
		return name
	}
	return strings.TrimSpace(p.Email)
}

type Repository interface {
	GetByID(ctx context.Context, id snowflake.ID) (*AgentProfile, error)
	ListByIDs(ctx context.Context, ids []snowflake.ID) ([]AgentProfile, error)
	DisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error)
}

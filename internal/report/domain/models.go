package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// ProductionRow is one agent's production grid line: a policy count per
// calendar month of the selected year plus the year total.
type ProductionRow struct {
	AgentID   string  `json:"agent_id"`
	AgentName string  `json:"agent_name"`
	Months    [12]int `json:"months"`
	Total     int     `json:"total"`
}

// RosterRow is one agent's roster line. Client and policy counts come
// from separate grouped counts, never from a joined product.
type RosterRow struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	Email       string `json:"email"`
	NPN         string `json:"npn"`
	Status      string `json:"status"`
	ClientCount int    `json:"client_count"`
	PolicyCount int    `json:"policy_count"`
}

// ClientStatusRow buckets one agent's clients by status. New counts
// clients created inside the selected window; the status buckets are
// window-independent.
type ClientStatusRow struct {
	AgentID    string `json:"agent_id"`
	AgentName  string `json:"agent_name"`
	AgencyName string `json:"agency_name"`
	Total      int    `json:"total"`
	New        int    `json:"new"`
	Active     int    `json:"active"`
	Lead       int    `json:"lead"`
	Inactive   int    `json:"inactive"`
}

type ProductionRequest struct {
	OrgID    snowflake.ID
	SubOrgID string
	Year     string
}

type RosterRequest struct {
	OrgID    snowflake.ID
	SubOrgID string
	// Status filters rows post-aggregation: "active", "inactive" or
	// empty for all.
	Status string
}

type ClientStatusRequest struct {
	OrgID    snowflake.ID
	SubOrgID string
	Start    string
	End      string
}

type ProductionReport struct {
	Year int             `json:"year"`
	Rows []ProductionRow `json:"rows"`
}

type RosterReport struct {
	Rows []RosterRow `json:"rows"`
}

type ClientStatusReport struct {
	Range DateRange         `json:"-"`
	Start string            `json:"start"`
	End   string            `json:"end"`
	Rows  []ClientStatusRow `json:"rows"`
}

// Service builds the downline-scoped reports. Callers pass an org id
// that has already passed the effective-org gate.
type Service interface {
	Production(ctx context.Context, req ProductionRequest) (*ProductionReport, error)
	Roster(ctx context.Context, req RosterRequest) (*RosterReport, error)
	ClientStatus(ctx context.Context, req ClientStatusRequest) (*ClientStatusReport, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidStatusFilter = errors.New("invalid_status_filter")
)

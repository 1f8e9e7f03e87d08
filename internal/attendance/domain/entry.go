package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agent is a staff member as known to the directory
type Agent struct {
	ID            string  `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	Position      string  `db:"position" json:"position"`
	ClientID      *string `db:"client_id" json:"client_id,omitempty"`
	WorksFromHome bool    `db:"works_from_home" json:"works_from_home"`
}

// Client is the customer account an agent is assigned to
type Client struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Entry is the attendance record of one agent on one civil date. There is
// at most one per (AgentID, Date).
type Entry struct {
	ID         string          `db:"id" json:"id"`
	AgentID    string          `db:"agent_id" json:"agent_id"`
	Date       time.Time       `db:"entry_date" json:"date"`
	Status     Status          `db:"status" json:"status"`
	ExtraHours decimal.Decimal `db:"extra_hours" json:"extra_hours"`
	// ClientID is the agent's client at the time of the edit
	ClientID  *string   `db:"client_id" json:"client_id,omitempty"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EntryFilter selects entries by agent and a half-open date range [From, To)
type EntryFilter struct {
	// AgentIDs restricts the result; empty means every agent
	AgentIDs []string
	From     time.Time
	To       time.Time
}

// EntryUpsert describes a write keyed on (AgentID, Date).
type EntryUpsert struct {
	AgentID string
	Date    time.Time
	Status  Status
	// ExtraHours nil keeps the stored value (zero on insert)
	ExtraHours *decimal.Decimal
	ClientID   *string
	UpdatedBy  *string
}

// AgentFilter narrows directory listings
type AgentFilter struct {
	ClientID *string
}

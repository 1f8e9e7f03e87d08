package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Agent creates an agent fixture
func (f *FixtureFactory) Agent(opts ...func(*domain.Agent)) domain.Agent {
	seq := f.nextSeq()
	agent := domain.Agent{
		ID:       fmt.Sprintf("agent-%03d", seq),
		Name:     fmt.Sprintf("Agent %03d", seq),
		Position: "Support Agent",
	}
	for _, opt := range opts {
		opt(&agent)
	}
	return agent
}

// WithAgentName sets the agent name
func WithAgentName(name string) func(*domain.Agent) {
	return func(a *domain.Agent) {
		a.Name = name
	}
}

// WithClient assigns the agent to a client
func WithClient(clientID string) func(*domain.Agent) {
	return func(a *domain.Agent) {
		a.ClientID = &clientID
	}
}

// WorkingFromHome flags the agent as home-based
func WorkingFromHome() func(*domain.Agent) {
	return func(a *domain.Agent) {
		a.WorksFromHome = true
	}
}

// Client creates a client fixture
func (f *FixtureFactory) Client(opts ...func(*domain.Client)) domain.Client {
	seq := f.nextSeq()
	client := domain.Client{
		ID:   fmt.Sprintf("client-%03d", seq),
		Name: fmt.Sprintf("Client %03d", seq),
	}
	for _, opt := range opts {
		opt(&client)
	}
	return client
}

// Upsert creates an entry write for agentID on date (YYYY-MM-DD)
func (f *FixtureFactory) Upsert(agentID, date string, status domain.Status, extraHours int64) domain.EntryUpsert {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	extra := decimal.NewFromInt(extraHours)
	return domain.EntryUpsert{
		AgentID:    agentID,
		Date:       d,
		Status:     status,
		ExtraHours: &extra,
	}
}

// InsertClients writes clients straight into the clients table
func InsertClients(t *testing.T, ctx context.Context, db *database.DB, clients ...domain.Client) {
	t.Helper()
	for _, c := range clients {
		_, err := db.ExecContext(ctx, `INSERT INTO clients (id, name) VALUES ($1, $2)`, c.ID, c.Name)
		if err != nil {
			t.Fatalf("failed to insert client %s: %v", c.ID, err)
		}
	}
}

// InsertAgents writes agents straight into the agents table
func InsertAgents(t *testing.T, ctx context.Context, db *database.DB, agents ...domain.Agent) {
	t.Helper()
	for _, a := range agents {
		_, err := db.ExecContext(ctx,
			`INSERT INTO agents (id, name, position, client_id, works_from_home) VALUES ($1, $2, $3, $4, $5)`,
			a.ID, a.Name, a.Position, a.ClientID, a.WorksFromHome)
		if err != nil {
			t.Fatalf("failed to insert agent %s: %v", a.ID, err)
		}
	}
}

// Date parses YYYY-MM-DD or fails the test
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

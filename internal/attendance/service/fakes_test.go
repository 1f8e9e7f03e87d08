package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
)

type entryKey struct {
	agentID string
	date    string
}

// memStore is an in-memory EntryStore with the same upsert semantics as the
// real stores.
type memStore struct {
	mu      sync.Mutex
	entries map[entryKey]domain.Entry
	writes  int
	// failOn makes UpsertEntry fail for matching pairs
	failOn func(agentID string, date time.Time) bool
	down   bool
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[entryKey]domain.Entry)}
}

func (m *memStore) seed(agentID, date string, status domain.Status, extra int64) {
	d, _ := domain.ParseDate(date)
	m.entries[entryKey{agentID, date}] = domain.Entry{
		ID:         uuid.NewString(),
		AgentID:    agentID,
		Date:       d,
		Status:     status,
		ExtraHours: decimal.NewFromInt(extra),
	}
}

func (m *memStore) get(agentID, date string) (domain.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryKey{agentID, date}]
	return e, ok
}

func (m *memStore) FindEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, fmt.Errorf("dial tcp: connection refused")
	}

	wanted := make(map[string]bool, len(filter.AgentIDs))
	for _, id := range filter.AgentIDs {
		wanted[id] = true
	}

	var out []domain.Entry
	for _, e := range m.entries {
		if len(wanted) > 0 && !wanted[e.AgentID] {
			continue
		}
		if e.Date.Before(filter.From) || !e.Date.Before(filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgentID != out[j].AgentID {
			return out[i].AgentID < out[j].AgentID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *memStore) UpsertEntry(ctx context.Context, u domain.EntryUpsert) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down || (m.failOn != nil && m.failOn(u.AgentID, u.Date)) {
		return nil, fmt.Errorf("write timeout")
	}

	key := entryKey{u.AgentID, domain.FormatDate(u.Date)}
	e, ok := m.entries[key]
	if !ok {
		e = domain.Entry{ID: uuid.NewString(), AgentID: u.AgentID, Date: u.Date, ExtraHours: decimal.Zero}
	}
	e.Status = u.Status
	if u.ExtraHours != nil {
		e.ExtraHours = *u.ExtraHours
	}
	e.ClientID = u.ClientID
	e.UpdatedBy = u.UpdatedBy
	m.entries[key] = e
	m.writes++
	return &e, nil
}

func (m *memStore) SumExtraHours(ctx context.Context, agentID string, from, to, exclude time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return decimal.Zero, fmt.Errorf("connection reset")
	}

	total := decimal.Zero
	for _, e := range m.entries {
		if e.AgentID != agentID || e.Date.Equal(exclude) {
			continue
		}
		if e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		total = total.Add(e.ExtraHours)
	}
	return total, nil
}

type memDirectory struct {
	agents  []domain.Agent
	clients []domain.Client
	down    bool
}

func (d *memDirectory) ListAgents(ctx context.Context, filter domain.AgentFilter) ([]domain.Agent, error) {
	if d.down {
		return nil, fmt.Errorf("directory unreachable")
	}
	var out []domain.Agent
	for _, a := range d.agents {
		if filter.ClientID != nil && (a.ClientID == nil || *a.ClientID != *filter.ClientID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *memDirectory) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	if d.down {
		return nil, fmt.Errorf("directory unreachable")
	}
	for _, a := range d.agents {
		if a.ID == id {
			agent := a
			return &agent, nil
		}
	}
	return nil, errors.UnknownAgent(id)
}

func (d *memDirectory) ListClients(ctx context.Context) ([]domain.Client, error) {
	if d.down {
		return nil, fmt.Errorf("directory unreachable")
	}
	return d.clients, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []domain.Entry
	groups  []domain.GroupResult
}

func (p *recordingPublisher) PublishEntryUpdated(ctx context.Context, entry *domain.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, *entry)
}

func (p *recordingPublisher) PublishGroupApplied(ctx context.Context, result *domain.GroupResult, updatedBy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups = append(p.groups, *result)
}

// ctxCapturingStore records the context UpsertEntry was called with
type ctxCapturingStore struct {
	*memStore
	seen context.Context
}

func (c *ctxCapturingStore) UpsertEntry(ctx context.Context, u domain.EntryUpsert) (*domain.Entry, error) {
	c.seen = ctx
	return c.memStore.UpsertEntry(ctx, u)
}

func nopLogger() *logger.Logger {
	return logger.Nop()
}

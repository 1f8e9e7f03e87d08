package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// MemoryEntryStore is an in-memory entry store keyed on (agent, date) with
// the upsert semantics of the database stores.
type MemoryEntryStore struct {
	mu      sync.Mutex
	entries map[string]domain.Entry
	// Err, when set, is returned by every call
	Err error
}

// NewMemoryEntryStore creates an empty store
func NewMemoryEntryStore() *MemoryEntryStore {
	return &MemoryEntryStore{entries: make(map[string]domain.Entry)}
}

func memKey(agentID string, date time.Time) string {
	return agentID + "|" + domain.FormatDate(date)
}

// Seed stores an entry directly
func (m *MemoryEntryStore) Seed(agentID, date string, status domain.Status, extraHours int64) {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memKey(agentID, d)] = domain.Entry{
		ID:         uuid.NewString(),
		AgentID:    agentID,
		Date:       d,
		Status:     status,
		ExtraHours: decimal.NewFromInt(extraHours),
	}
}

// Get returns the stored entry for agentID on date (YYYY-MM-DD)
func (m *MemoryEntryStore) Get(agentID, date string) (domain.Entry, bool) {
	d, err := domain.ParseDate(date)
	if err != nil {
		return domain.Entry{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memKey(agentID, d)]
	return e, ok
}

// Len returns the number of stored entries
func (m *MemoryEntryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryEntryStore) FindEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	wanted := make(map[string]bool, len(filter.AgentIDs))
	for _, id := range filter.AgentIDs {
		wanted[id] = true
	}

	out := make([]domain.Entry, 0)
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

func (m *MemoryEntryStore) UpsertEntry(ctx context.Context, u domain.EntryUpsert) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	key := memKey(u.AgentID, u.Date)
	now := time.Now().UTC()
	e, ok := m.entries[key]
	if !ok {
		e = domain.Entry{
			ID:         uuid.NewString(),
			AgentID:    u.AgentID,
			Date:       domain.CivilDate(u.Date),
			ExtraHours: decimal.Zero,
			CreatedAt:  now,
		}
	}
	e.Status = u.Status
	if u.ExtraHours != nil {
		e.ExtraHours = *u.ExtraHours
	}
	e.ClientID = u.ClientID
	e.UpdatedBy = u.UpdatedBy
	e.UpdatedAt = now
	m.entries[key] = e
	return &e, nil
}

func (m *MemoryEntryStore) SumExtraHours(ctx context.Context, agentID string, from, to, exclude time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return decimal.Zero, m.Err
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

// MemoryDirectory is a fixed in-memory agent and client directory
type MemoryDirectory struct {
	Agents  []domain.Agent
	Clients []domain.Client
	Err     error
}

func (d *MemoryDirectory) ListAgents(ctx context.Context, filter domain.AgentFilter) ([]domain.Agent, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]domain.Agent, 0, len(d.Agents))
	for _, a := range d.Agents {
		if filter.ClientID != nil && (a.ClientID == nil || *a.ClientID != *filter.ClientID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *MemoryDirectory) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	for _, a := range d.Agents {
		if a.ID == id {
			agent := a
			return &agent, nil
		}
	}
	return nil, errors.UnknownAgent(id)
}

func (d *MemoryDirectory) ListClients(ctx context.Context) ([]domain.Client, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Clients, nil
}

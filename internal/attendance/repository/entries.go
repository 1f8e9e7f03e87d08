package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

const entryColumns = `id, agent_id, entry_date, status, extra_hours, client_id, updated_by, created_at, updated_at`

// EntryRepository is the PostgreSQL attendance store
type EntryRepository struct {
	db *database.DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// FindEntries returns the entries in [filter.From, filter.To), ordered by
// agent and date. An empty AgentIDs selects every agent.
func (r *EntryRepository) FindEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM attendance_entries
		WHERE entry_date >= $1::date AND entry_date < $2::date`
	args := []any{domain.FormatDate(filter.From), domain.FormatDate(filter.To)}

	if len(filter.AgentIDs) > 0 {
		query += ` AND agent_id = ANY($3)`
		args = append(args, pq.Array(filter.AgentIDs))
	}
	query += ` ORDER BY agent_id, entry_date`

	var entries []domain.Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, storeError(err)
	}

	for i := range entries {
		entries[i].Date = domain.CivilDate(entries[i].Date)
	}
	return entries, nil
}

// UpsertEntry inserts or replaces the (agent, date) entry. A nil ExtraHours
// keeps the stored value, or 0 on insert.
func (r *EntryRepository) UpsertEntry(ctx context.Context, u domain.EntryUpsert) (*domain.Entry, error) {
	var extra decimal.NullDecimal
	if u.ExtraHours != nil {
		extra = decimal.NullDecimal{Decimal: *u.ExtraHours, Valid: true}
	}

	query := `
		INSERT INTO attendance_entries (
			id, agent_id, entry_date, status, extra_hours, client_id, updated_by
		) VALUES ($1, $2, $3::date, $4, COALESCE($5::numeric, 0), $6, $7)
		ON CONFLICT (agent_id, entry_date) DO UPDATE SET
			status = EXCLUDED.status,
			extra_hours = COALESCE($5::numeric, attendance_entries.extra_hours),
			client_id = EXCLUDED.client_id,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING ` + entryColumns

	var entry domain.Entry
	err := r.db.GetContext(ctx, &entry, query,
		uuid.New().String(), u.AgentID, domain.FormatDate(u.Date), string(u.Status),
		extra, u.ClientID, u.UpdatedBy,
	)
	if err != nil {
		return nil, storeError(err)
	}

	entry.Date = domain.CivilDate(entry.Date)
	return &entry, nil
}

// SumExtraHours totals the agent's extra hours in [from, to), leaving out
// exclude. A zero exclude leaves nothing out.
func (r *EntryRepository) SumExtraHours(ctx context.Context, agentID string, from, to, exclude time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(extra_hours), 0)
		FROM attendance_entries
		WHERE agent_id = $1
		  AND entry_date >= $2::date AND entry_date < $3::date
		  AND entry_date <> $4::date
	`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query,
		agentID, domain.FormatDate(from), domain.FormatDate(to), domain.FormatDate(exclude),
	)
	if err != nil {
		return decimal.Zero, storeError(err)
	}
	return total, nil
}

// storeError keeps constraint violations meaningful and treats everything
// else as the store being unavailable.
func storeError(err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return errors.StoreUnavailable(err)
}

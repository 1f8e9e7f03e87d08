package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// DirectoryRepository is the local copy of the agent/client directory. The
// service only reads it; the directory consumer writes it.
type DirectoryRepository struct {
	db *database.DB
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *database.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// ============================================================================
// READ SIDE
// ============================================================================

// ListAgents lists active agents ordered by name
func (r *DirectoryRepository) ListAgents(ctx context.Context, filter domain.AgentFilter) ([]domain.Agent, error) {
	query := `
		SELECT id, name, position, client_id, works_from_home
		FROM agents
		WHERE deleted_at IS NULL`
	args := []any{}

	if filter.ClientID != nil {
		query += ` AND client_id = $1`
		args = append(args, *filter.ClientID)
	}
	query += ` ORDER BY name, id`

	agents := []domain.Agent{}
	if err := r.db.SelectContext(ctx, &agents, query, args...); err != nil {
		return nil, storeError(err)
	}
	return agents, nil
}

// GetAgent gets an active agent by ID
func (r *DirectoryRepository) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	query := `
		SELECT id, name, position, client_id, works_from_home
		FROM agents
		WHERE id = $1 AND deleted_at IS NULL
	`

	var agent domain.Agent
	if err := r.db.GetContext(ctx, &agent, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.UnknownAgent(id)
		}
		return nil, storeError(err)
	}
	return &agent, nil
}

// ListClients lists active clients ordered by name
func (r *DirectoryRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	query := `SELECT id, name FROM clients WHERE deleted_at IS NULL ORDER BY name, id`

	clients := []domain.Client{}
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, storeError(err)
	}
	return clients, nil
}

// ============================================================================
// WRITE SIDE
// ============================================================================

// UpsertAgent creates or replaces an agent, reviving a deleted one
func (r *DirectoryRepository) UpsertAgent(ctx context.Context, agent domain.Agent) error {
	query := `
		INSERT INTO agents (id, name, position, client_id, works_from_home)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			client_id = EXCLUDED.client_id,
			works_from_home = EXCLUDED.works_from_home,
			deleted_at = NULL,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, agent.ID, agent.Name, agent.Position, agent.ClientID, agent.WorksFromHome)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteAgent soft deletes an agent. Its attendance history stays.
func (r *DirectoryRepository) DeleteAgent(ctx context.Context, id string) error {
	query := `UPDATE agents SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return storeError(err)
	}
	return nil
}

// UpsertClient creates or replaces a client
func (r *DirectoryRepository) UpsertClient(ctx context.Context, client domain.Client) error {
	query := `
		INSERT INTO clients (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			deleted_at = NULL,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, client.ID, client.Name); err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteClient soft deletes a client and detaches its agents
func (r *DirectoryRepository) DeleteClient(ctx context.Context, id string) error {
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE clients SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE agents SET client_id = NULL, updated_at = NOW() WHERE client_id = $1`, id)
		return err
	})
	if err != nil {
		return storeError(err)
	}
	return nil
}

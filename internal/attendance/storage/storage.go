// Package storage opens the configured attendance backend.
package storage

import (
	"context"
	"fmt"

	"github.com/staffdesk/staffdesk-backend/internal/attendance/consumers"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/repository"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/repository/mongostore"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/service"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
)

// Directory is the local agent and client copy: read by the engine, written
// by the directory consumer and the CLI
type Directory interface {
	service.Directory
	consumers.DirectoryWriter
}

// Stores bundles the entry store and directory of one backend
type Stores struct {
	Driver    string
	Entries   service.EntryStore
	Directory Directory

	health func(ctx context.Context) map[string]string
	close  func(ctx context.Context) error
	// migrate brings the schema or indexes up to date
	migrate func(ctx context.Context) (int, error)
}

// Open connects to cfg.Store.Driver. Nothing is migrated; call Migrate.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Driver:    config.StoreDriverPostgres,
			Entries:   repository.NewEntryRepository(db),
			Directory: repository.NewDirectoryRepository(db),
			health:    db.Health,
			close:     func(context.Context) error { return db.Close() },
			migrate: func(ctx context.Context) (int, error) {
				return db.Migrate(ctx, repository.Migrations)
			},
		}, nil

	case config.StoreDriverMongo:
		client, err := mongostore.Connect(ctx, &cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Driver:    config.StoreDriverMongo,
			Entries:   mongostore.NewEntryStore(client.Database()),
			Directory: mongostore.NewDirectory(client.Database()),
			health:    client.Health,
			close:     client.Close,
			migrate: func(ctx context.Context) (int, error) {
				return 0, client.EnsureIndexes(ctx)
			},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Migrate applies pending migrations (postgres) or ensures indexes (mongo)
func (s *Stores) Migrate(ctx context.Context) (int, error) {
	return s.migrate(ctx)
}

// Health reports the backend status
func (s *Stores) Health(ctx context.Context) map[string]string {
	status := s.health(ctx)
	status["driver"] = s.Driver
	return status
}

// Close releases the connection
func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}

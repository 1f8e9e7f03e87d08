package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// EntryStore persists attendance entries
type EntryStore interface {
	FindEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.Entry, error)
	UpsertEntry(ctx context.Context, upsert domain.EntryUpsert) (*domain.Entry, error)
	// SumExtraHours totals the agent's extra hours in [from, to), leaving out exclude
	SumExtraHours(ctx context.Context, agentID string, from, to, exclude time.Time) (decimal.Decimal, error)
}

// Directory looks up agents and clients
type Directory interface {
	ListAgents(ctx context.Context, filter domain.AgentFilter) ([]domain.Agent, error)
	GetAgent(ctx context.Context, id string) (*domain.Agent, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
}

// EventPublisher announces attendance changes. Implementations log failures
// instead of returning them.
type EventPublisher interface {
	PublishEntryUpdated(ctx context.Context, entry *domain.Entry)
	PublishGroupApplied(ctx context.Context, result *domain.GroupResult, updatedBy string)
}

// AttendanceService is the attendance engine. It holds no attendance state
// between calls.
type AttendanceService struct {
	entries   EntryStore
	directory Directory
	publisher EventPublisher
	rules     Rules
	now       func() time.Time
	logger    *logger.Logger
}

// Option customizes an AttendanceService
type Option func(*AttendanceService)

// WithClock replaces time.Now, used to decide the current week
func WithClock(now func() time.Time) Option {
	return func(s *AttendanceService) {
		s.now = now
	}
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	entries EntryStore,
	directory Directory,
	publisher EventPublisher,
	rules Rules,
	log *logger.Logger,
	opts ...Option,
) *AttendanceService {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	s := &AttendanceService{
		entries:   entries,
		directory: directory,
		publisher: publisher,
		rules:     rules,
		now:       time.Now,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the limits the service enforces
func (s *AttendanceService) Rules() Rules {
	return s.rules
}

// Today is the current civil date in the configured timezone
func (s *AttendanceService) Today() time.Time {
	return domain.CivilDate(s.now().In(s.rules.Location))
}

// ============================================================================
// WEEKS
// ============================================================================

// ResolveWeek returns the window containing date, moved by shift weeks
func (s *AttendanceService) ResolveWeek(date time.Time, shift int) domain.WeekWindow {
	return domain.ResolveWeek(date).Shift(shift)
}

// CurrentWeek returns the window containing today
func (s *AttendanceService) CurrentWeek() domain.WeekWindow {
	return domain.ResolveWeek(s.Today())
}

// LoadWeek assembles the grid of the week containing start. Either the full
// grid is returned or an error; never a partial one.
func (s *AttendanceService) LoadWeek(ctx context.Context, start time.Time, filter domain.AgentFilter) (*domain.WeekGrid, error) {
	window := domain.ResolveWeek(start)

	var (
		agents  []domain.Agent
		entries []domain.Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		agents, err = s.directory.ListAgents(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.entries.FindEntries(gctx, domain.EntryFilter{From: window.Start, To: window.End()})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("week", domain.FormatDate(window.Start)).Msg("failed to load week")
		return nil, storeErr(err)
	}

	grid := domain.AssembleGrid(window, agents, entries, s.rules.CellDefault)
	return &grid, nil
}

// ============================================================================
// DIRECTORY
// ============================================================================

// ListAgents lists the directory's agents ordered by name
func (s *AttendanceService) ListAgents(ctx context.Context, filter domain.AgentFilter) ([]domain.Agent, error) {
	agents, err := s.directory.ListAgents(ctx, filter)
	if err != nil {
		return nil, storeErr(err)
	}
	return agents, nil
}

// ListClients lists the directory's clients
func (s *AttendanceService) ListClients(ctx context.Context) ([]domain.Client, error) {
	clients, err := s.directory.ListClients(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return clients, nil
}

func (s *AttendanceService) getAgent(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.directory.GetAgent(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if agent == nil {
		return nil, errors.UnknownAgent(id)
	}
	return agent, nil
}

// storeErr keeps domain errors and classifies everything else as a storage
// outage.
func storeErr(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errors.StoreUnavailable(err)
}

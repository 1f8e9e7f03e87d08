package consumers

import (
	"context"
	"fmt"

	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/messaging"
)

const directoryQueue = "attendance-service.directory-events"

// DirectoryWriter is the write side of the local directory copy
type DirectoryWriter interface {
	UpsertAgent(ctx context.Context, agent domain.Agent) error
	DeleteAgent(ctx context.Context, id string) error
	UpsertClient(ctx context.Context, client domain.Client) error
	DeleteClient(ctx context.Context, id string) error
}

// DirectoryEventConsumer keeps the local agent and client tables in sync
// with the directory service
type DirectoryEventConsumer struct {
	consumer *messaging.Consumer
	writer   DirectoryWriter
	logger   *logger.Logger
}

// NewDirectoryEventConsumer creates the queue, binds it to directory.# and
// registers the handlers
func NewDirectoryEventConsumer(rmq *messaging.RabbitMQ, writer DirectoryWriter, log *logger.Logger) (*DirectoryEventConsumer, error) {
	c := &DirectoryEventConsumer{
		writer: writer,
		logger: log.WithComponent("directory-consumer"),
	}

	consumer, err := messaging.NewConsumer(rmq, directoryQueue, c.Router(), c.logger)
	if err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeDirectoryEvents, "directory.#"); err != nil {
		return nil, err
	}

	c.consumer = consumer
	return c, nil
}

// NewDirectoryHandlers builds the handlers without a broker, for tests and
// replay tooling
func NewDirectoryHandlers(writer DirectoryWriter, log *logger.Logger) *DirectoryEventConsumer {
	return &DirectoryEventConsumer{writer: writer, logger: log}
}

// Router returns a router with every directory handler registered
func (c *DirectoryEventConsumer) Router() *messaging.Router {
	router := messaging.NewRouter()
	router.RegisterHandler(messaging.EventAgentUpserted, c.handleAgentUpserted)
	router.RegisterHandler(messaging.EventAgentDeleted, c.handleAgentDeleted)
	router.RegisterHandler(messaging.EventClientUpserted, c.handleClientUpserted)
	router.RegisterHandler(messaging.EventClientDeleted, c.handleClientDeleted)
	return router
}

// Start starts consuming messages
func (c *DirectoryEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *DirectoryEventConsumer) handleAgentUpserted(ctx context.Context, event *messaging.Event) error {
	var data messaging.AgentUpsertedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	if data.AgentID == "" || data.Name == "" {
		c.logger.Warn().Str("event_id", event.ID).Msg("agent upsert without id or name, skipping")
		return nil
	}

	err := c.writer.UpsertAgent(ctx, domain.Agent{
		ID:            data.AgentID,
		Name:          data.Name,
		Position:      data.Position,
		ClientID:      data.ClientID,
		WorksFromHome: data.WorksFromHome,
	})
	if err != nil {
		return c.retryable(event, err)
	}

	c.logger.Info().Str("agent_id", data.AgentID).Msg("agent synced from directory")
	return nil
}

func (c *DirectoryEventConsumer) handleAgentDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.AgentDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	if data.AgentID == "" {
		c.logger.Warn().Str("event_id", event.ID).Msg("agent delete without id, skipping")
		return nil
	}

	if err := c.writer.DeleteAgent(ctx, data.AgentID); err != nil {
		return c.retryable(event, err)
	}

	c.logger.Info().Str("agent_id", data.AgentID).Msg("agent removed from directory")
	return nil
}

func (c *DirectoryEventConsumer) handleClientUpserted(ctx context.Context, event *messaging.Event) error {
	var data messaging.ClientUpsertedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	if data.ClientID == "" || data.Name == "" {
		c.logger.Warn().Str("event_id", event.ID).Msg("client upsert without id or name, skipping")
		return nil
	}

	if err := c.writer.UpsertClient(ctx, domain.Client{ID: data.ClientID, Name: data.Name}); err != nil {
		return c.retryable(event, err)
	}

	c.logger.Info().Str("client_id", data.ClientID).Msg("client synced from directory")
	return nil
}

func (c *DirectoryEventConsumer) handleClientDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.ClientDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", event.Type, err)
	}
	if data.ClientID == "" {
		c.logger.Warn().Str("event_id", event.ID).Msg("client delete without id, skipping")
		return nil
	}

	if err := c.writer.DeleteClient(ctx, data.ClientID); err != nil {
		return c.retryable(event, err)
	}

	c.logger.Info().Str("client_id", data.ClientID).Msg("client removed from directory")
	return nil
}

// retryable returns err only when a redelivery can succeed. Rejected data
// is logged and acknowledged.
func (c *DirectoryEventConsumer) retryable(event *messaging.Event, err error) error {
	if errors.Is(err, errors.ErrStoreUnavailable) {
		return err
	}
	c.logger.Error().Err(err).
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("directory event rejected by store")
	return nil
}

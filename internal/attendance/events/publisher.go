package events

import (
	"context"

	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/messaging"
)

// Sink is where events end up. *messaging.Publisher is the production one.
type Sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AttendanceEventPublisher publishes attendance events. Failures are logged
// and never returned: an edit that reached the store has succeeded.
type AttendanceEventPublisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewAttendanceEventPublisher declares the attendance exchange and creates a
// publisher on it
func NewAttendanceEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AttendanceEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "attendance-service", log)
	if err != nil {
		return nil, err
	}
	return NewPublisherWithSink(publisher, log), nil
}

// NewPublisherWithSink creates a publisher writing to sink
func NewPublisherWithSink(sink Sink, log *logger.Logger) *AttendanceEventPublisher {
	return &AttendanceEventPublisher{
		sink:   sink,
		logger: log,
	}
}

// PublishEntryUpdated publishes a single cell edit
func (p *AttendanceEventPublisher) PublishEntryUpdated(ctx context.Context, entry *domain.Entry) {
	extra := entry.ExtraHours.String()
	data := messaging.EntryUpdatedEvent{
		AgentID:    entry.AgentID,
		Date:       domain.FormatDate(entry.Date),
		Status:     entry.Status.String(),
		ExtraHours: &extra,
	}
	if entry.UpdatedBy != nil {
		data.UpdatedBy = *entry.UpdatedBy
	}

	if err := p.sink.Publish(ctx, messaging.EventEntryUpdated, data); err != nil {
		p.logger.Error().Err(err).
			Str("agent_id", entry.AgentID).
			Str("date", data.Date).
			Msg("failed to publish entry updated event")
	}
}

// PublishGroupApplied publishes the outcome of a group edit
func (p *AttendanceEventPublisher) PublishGroupApplied(ctx context.Context, result *domain.GroupResult, updatedBy string) {
	data := messaging.GroupAppliedEvent{
		AgentIDs:  result.AgentIDs,
		From:      domain.FormatDate(result.From),
		To:        domain.FormatDate(result.To),
		Status:    result.Status.String(),
		Written:   result.Written,
		Failed:    len(result.Failed),
		Total:     result.Total,
		UpdatedBy: updatedBy,
	}

	if err := p.sink.Publish(ctx, messaging.EventGroupApplied, data); err != nil {
		p.logger.Error().Err(err).
			Strs("agent_ids", result.AgentIDs).
			Msg("failed to publish group applied event")
	}
}

// NopPublisher drops every event. Used when the broker is disabled.
type NopPublisher struct{}

// PublishEntryUpdated does nothing
func (NopPublisher) PublishEntryUpdated(context.Context, *domain.Entry) {}

// PublishGroupApplied does nothing
func (NopPublisher) PublishGroupApplied(context.Context, *domain.GroupResult, string) {}

package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Attendance events
	EventEntryUpdated = "attendance.entry.updated"
	EventGroupApplied = "attendance.group.applied"

	// Directory events
	EventAgentUpserted  = "directory.agent.upserted"
	EventAgentDeleted   = "directory.agent.deleted"
	EventClientUpserted = "directory.client.upserted"
	EventClientDeleted  = "directory.client.deleted"
)

// Exchange names
const (
	ExchangeAttendanceEvents = "attendance.events"
	ExchangeDirectoryEvents  = "directory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Attendance Events

// EntryUpdatedEvent is published after a single cell edit
type EntryUpdatedEvent struct {
	AgentID    string  `json:"agent_id"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	ExtraHours *string `json:"extra_hours,omitempty"`
	UpdatedBy  string  `json:"updated_by,omitempty"`
}

// GroupAppliedEvent is published after a group edit, including partial ones
type GroupAppliedEvent struct {
	AgentIDs  []string `json:"agent_ids"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Status    string   `json:"status"`
	Written   int      `json:"written"`
	Failed    int      `json:"failed"`
	Total     int      `json:"total"`
	UpdatedBy string   `json:"updated_by,omitempty"`
}

// Directory Events

// AgentUpsertedEvent carries the full agent record
type AgentUpsertedEvent struct {
	AgentID       string  `json:"agent_id"`
	Name          string  `json:"name"`
	Position      string  `json:"position"`
	ClientID      *string `json:"client_id,omitempty"`
	WorksFromHome bool    `json:"works_from_home"`
}

// AgentDeletedEvent is published when an agent leaves the directory
type AgentDeletedEvent struct {
	AgentID string `json:"agent_id"`
}

// ClientUpsertedEvent carries the full client record
type ClientUpsertedEvent struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// ClientDeletedEvent is published when a client is removed
type ClientDeletedEvent struct {
	ClientID string `json:"client_id"`
}

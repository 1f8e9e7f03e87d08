package messaging

import (
	"context"
	"sync"
)

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// Router maps event types to handlers. Unknown types are ignored.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{handlers: make(map[string]MessageHandler)}
}

// RegisterHandler registers a handler for a specific event type
func (r *Router) RegisterHandler(eventType string, handler MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = handler
}

// Dispatch runs the handler for the event. It reports handled=false when no
// handler is registered for the event's type.
func (r *Router) Dispatch(ctx context.Context, event *Event) (handled bool, err error) {
	r.mu.RLock()
	handler, ok := r.handlers[event.Type]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)
	return true, handler(ctx, event)
}

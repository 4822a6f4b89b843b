package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter fans each event out to its handlers on the caller's
// goroutine, in the order they were registered.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	log      *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{log: logger.With("component", "event_emitter")}
}

func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	n := len(e.handlers)
	e.mu.Unlock()
	e.log.Debug("event handler registered", "handlers", n)
}

func (e *InMemoryEventEmitter) snapshot() []EventHandler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]EventHandler(nil), e.handlers...)
}

// EmitEvent delivers event to every handler even when some fail, and
// returns the first failure.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	handlers := e.snapshot()
	log := e.log.With("event_id", event.ID, "event_type", event.Type)
	if len(handlers) == 0 {
		log.Warn("event dropped, no handlers")
		return nil
	}

	var first error
	for i, h := range handlers {
		err := h.HandleEvent(ctx, event)
		if err == nil {
			continue
		}
		log.Error("event handler failed", "handler", i, "error", err)
		if first == nil {
			first = err
		}
	}
	return first
}

// Emit wraps payload in a new event of eventType and hands it to emitter.
func Emit(ctx context.Context, emitter EventEmitter, eventType string, payload any) error {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	return emitter.EmitEvent(ctx, event)
}

// NewLogHandler logs each event at info level.
func NewLogHandler(logger *slog.Logger) EventHandler {
	log := logger.With("component", "event_log")
	return HandlerFunc(func(ctx context.Context, event *Event) error {
		log.InfoContext(ctx, "event",
			"event_id", event.ID,
			"event_type", event.Type,
			"payload", string(event.Payload))
		return nil
	})
}

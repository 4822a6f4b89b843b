package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeWindowEntered     = "window.entered"
	TypeWindowExited      = "window.exited"
	TypeTrackingDisabled  = "tracking.disabled"
	TypeAnalysisCompleted = "analysis.completed"
)

// Event records one tracking or analysis transition. Payload holds the
// JSON encoding of the type-specific payload struct.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewEvent(eventType string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// WindowPayload accompanies window.entered and window.exited.
type WindowPayload struct {
	At               time.Time `json:"at"`
	Window           string    `json:"window"`
	Manual           bool      `json:"manual,omitempty"`
	ObservationCount int       `json:"observation_count"`
}

// TrackingDisabledPayload accompanies tracking.disabled.
type TrackingDisabledPayload struct {
	At             time.Time `json:"at"`
	DiscardedCount int       `json:"discarded_count"`
}

type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter lets producers publish without knowing who consumes.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

type HandlerFunc func(ctx context.Context, event *Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/phrazzld/sleepwatch/internal/config"
	"github.com/phrazzld/sleepwatch/internal/events"
)

// EventPublisher mirrors tracking events onto <events_topic>/<event type>.
type EventPublisher struct {
	client  paho.Client
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

var _ events.EventHandler = (*EventPublisher)(nil)

// NewEventPublisher creates a publisher rooted at cfg.EventsTopic.
func NewEventPublisher(client paho.Client, cfg config.MQTTConfig, logger *slog.Logger) (*EventPublisher, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &EventPublisher{
		client:  client,
		prefix:  cfg.EventsTopic,
		qos:     byte(cfg.QoS),
		timeout: cfg.ConnectTimeout(),
		logger:  logger.With("component", "mqtt_event_publisher"),
	}, nil
}

// HandleEvent publishes event as JSON without waiting for the broker;
// delivery failures are logged. Handlers run on the tracking loop, so a slow
// broker must not stall it.
func (p *EventPublisher) HandleEvent(ctx context.Context, event *events.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	topic := p.prefix + "/" + event.Type
	token := p.client.Publish(topic, p.qos, false, body)
	go p.confirm(context.WithoutCancel(ctx), token, topic, event.Type)
	return nil
}

func (p *EventPublisher) confirm(ctx context.Context, token paho.Token, topic, eventType string) {
	if err := await(ctx, token, p.timeout); err != nil {
		p.logger.Warn("failed to publish event",
			"topic", topic,
			"event_type", eventType,
			"error", err)
	}
}

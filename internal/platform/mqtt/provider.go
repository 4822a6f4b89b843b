package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/phrazzld/sleepwatch/internal/config"
	"github.com/phrazzld/sleepwatch/internal/sensor"
)

// Stream names used in control messages.
const (
	StreamAccelerometer = "accelerometer"
	StreamGyroscope     = "gyroscope"
)

// ErrNoClient is returned when a provider is built without a broker client.
var ErrNoClient = errors.New("mqtt client cannot be nil")

// readingPayload is the JSON body of one sensor message.
type readingPayload struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Timestamp time.Time `json:"timestamp"`
}

// controlPayload asks a sensor publisher to change its cadence.
type controlPayload struct {
	Stream     string `json:"stream"`
	IntervalMS int64  `json:"interval_ms"`
}

// Provider implements sensor.Provider over broker topics.
type Provider struct {
	accel *topicStream
	gyro  *topicStream
}

var _ sensor.Provider = (*Provider)(nil)

// NewProvider creates a provider reading the accelerometer and gyroscope
// topics named in cfg.
func NewProvider(client paho.Client, cfg config.MQTTConfig, logger *slog.Logger) (*Provider, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	log := logger.With("component", "mqtt_sensor_provider")
	return &Provider{
		accel: newTopicStream(client, StreamAccelerometer, cfg.AccelTopic, cfg, log),
		gyro:  newTopicStream(client, StreamGyroscope, cfg.GyroTopic, cfg, log),
	}, nil
}

// Accelerometer returns the linear-acceleration stream.
func (p *Provider) Accelerometer() sensor.Stream { return p.accel }

// Gyroscope returns the angular-velocity stream.
func (p *Provider) Gyroscope() sensor.Stream { return p.gyro }

// Resubscribe renews the broker subscription of every stream that still
// has handlers. Register it with a Resubscriber.
func (p *Provider) Resubscribe(_ paho.Client) {
	for _, s := range []*topicStream{p.accel, p.gyro} {
		if err := s.resubscribe(); err != nil {
			s.logger.Error("failed to restore sensor subscription", "error", err)
		}
	}
}

// topicStream fans one broker subscription out to any number of handlers.
// The broker subscription exists only while at least one handler does.
type topicStream struct {
	client       paho.Client
	name         string
	topic        string
	controlTopic string
	qos          byte
	timeout      time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	handlers map[uint64]func(sensor.Reading)
	nextID   uint64
}

var _ sensor.Stream = (*topicStream)(nil)

func newTopicStream(client paho.Client, name, topic string, cfg config.MQTTConfig, logger *slog.Logger) *topicStream {
	return &topicStream{
		client:       client,
		name:         name,
		topic:        topic,
		controlTopic: cfg.ControlTopic + "/" + name,
		qos:          byte(cfg.QoS),
		timeout:      cfg.ConnectTimeout(),
		logger:       logger.With("stream", name, "topic", topic),
		now:          time.Now,
		handlers:     make(map[uint64]func(sensor.Reading)),
	}
}

// SetUpdateInterval publishes a retained control message so publishers that
// connect later pick up the cadence too.
func (s *topicStream) SetUpdateInterval(d time.Duration) error {
	body, err := json.Marshal(controlPayload{Stream: s.name, IntervalMS: d.Milliseconds()})
	if err != nil {
		return fmt.Errorf("encode control message: %w", err)
	}
	token := s.client.Publish(s.controlTopic, s.qos, true, body)
	if err := await(context.Background(), token, s.timeout); err != nil {
		return fmt.Errorf("publish %s interval: %w", s.name, err)
	}
	return nil
}

// Subscribe registers handler, subscribing to the broker topic on first use.
func (s *topicStream) Subscribe(handler func(sensor.Reading)) (sensor.Subscription, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.handlers) == 0 {
		token := s.client.Subscribe(s.topic, s.qos, s.dispatch)
		if err := await(context.Background(), token, s.timeout); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", s.topic, err)
		}
		s.logger.Debug("subscribed to sensor topic")
	}

	s.nextID++
	id := s.nextID
	s.handlers[id] = handler
	return &topicSubscription{stream: s, id: id}, nil
}

func (s *topicStream) resubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.handlers) == 0 {
		return nil
	}
	token := s.client.Subscribe(s.topic, s.qos, s.dispatch)
	if err := await(context.Background(), token, s.timeout); err != nil {
		return fmt.Errorf("resubscribe %s: %w", s.topic, err)
	}
	s.logger.Info("sensor subscription restored", "handlers", len(s.handlers))
	return nil
}

func (s *topicStream) remove(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handlers[id]; !ok {
		return nil
	}
	delete(s.handlers, id)
	if len(s.handlers) > 0 {
		return nil
	}

	token := s.client.Unsubscribe(s.topic)
	if err := await(context.Background(), token, s.timeout); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", s.topic, err)
	}
	s.logger.Debug("unsubscribed from sensor topic")
	return nil
}

// dispatch is the paho message handler. Malformed payloads are dropped.
func (s *topicStream) dispatch(_ paho.Client, msg paho.Message) {
	var p readingPayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		s.logger.Warn("dropping malformed sensor message", "error", err)
		return
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}
	reading := sensor.Reading{X: p.X, Y: p.Y, Z: p.Z, Timestamp: p.Timestamp}

	s.mu.Lock()
	handlers := make([]func(sensor.Reading), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(reading)
	}
}

type topicSubscription struct {
	stream *topicStream
	id     uint64
}

func (t *topicSubscription) Remove() error {
	return t.stream.remove(t.id)
}

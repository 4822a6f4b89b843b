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
)

// DeviceStateSink receives device condition changes.
type DeviceStateSink interface {
	SetCharging(charging bool)
	SetInUse(inUse bool)
}

// devicePayload carries either or both flags; absent fields are left alone.
type devicePayload struct {
	Charging *bool `json:"charging"`
	InUse    *bool `json:"in_use"`
}

// DeviceFeed forwards device-state messages to a sink.
type DeviceFeed struct {
	client  paho.Client
	topic   string
	qos     byte
	timeout time.Duration
	sink    DeviceStateSink
	logger  *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewDeviceFeed creates a feed reading cfg.DeviceTopic.
func NewDeviceFeed(client paho.Client, cfg config.MQTTConfig, sink DeviceStateSink, logger *slog.Logger) (*DeviceFeed, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	if sink == nil {
		return nil, errors.New("device state sink cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &DeviceFeed{
		client:  client,
		topic:   cfg.DeviceTopic,
		qos:     byte(cfg.QoS),
		timeout: cfg.ConnectTimeout(),
		sink:    sink,
		logger:  logger.With("component", "mqtt_device_feed", "topic", cfg.DeviceTopic),
	}, nil
}

// Start subscribes to the device topic. Starting twice is a no-op.
func (f *DeviceFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active {
		return nil
	}
	if err := await(ctx, f.client.Subscribe(f.topic, f.qos, f.handle), f.timeout); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.topic, err)
	}
	f.active = true
	f.logger.Info("device state feed started")
	return nil
}

// Resubscribe renews the device topic subscription while the feed is
// started. Register it with a Resubscriber.
func (f *DeviceFeed) Resubscribe(_ paho.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return
	}
	if err := await(context.Background(), f.client.Subscribe(f.topic, f.qos, f.handle), f.timeout); err != nil {
		f.logger.Error("failed to restore device subscription", "error", err)
		return
	}
	f.logger.Info("device subscription restored")
}

// Stop unsubscribes from the device topic.
func (f *DeviceFeed) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return nil
	}
	f.active = false
	if err := await(ctx, f.client.Unsubscribe(f.topic), f.timeout); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", f.topic, err)
	}
	return nil
}

func (f *DeviceFeed) handle(_ paho.Client, msg paho.Message) {
	var p devicePayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		f.logger.Warn("dropping malformed device message", "error", err)
		return
	}
	if p.Charging == nil && p.InUse == nil {
		f.logger.Debug("device message carried no state")
		return
	}
	if p.Charging != nil {
		f.sink.SetCharging(*p.Charging)
	}
	if p.InUse != nil {
		f.sink.SetInUse(*p.InUse)
	}
}

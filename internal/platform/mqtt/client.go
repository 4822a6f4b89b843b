package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/phrazzld/sleepwatch/internal/config"
)

// disconnectQuiesceMS is how long Disconnect waits for in-flight work.
const disconnectQuiesceMS = 250

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt operation timed out")

// Resubscriber restores topic subscriptions each time the client
// reconnects. Sessions are clean, so the broker forgets them on every drop.
type Resubscriber struct {
	mu       sync.Mutex
	restores []func(paho.Client)
	logger   *slog.Logger
}

func NewResubscriber(logger *slog.Logger) *Resubscriber {
	return &Resubscriber{logger: logger.With("component", "mqtt_resubscriber")}
}

// Register adds fn to the hooks run on every connect.
func (r *Resubscriber) Register(fn func(paho.Client)) {
	r.mu.Lock()
	r.restores = append(r.restores, fn)
	r.mu.Unlock()
}

// OnConnect is a paho.OnConnectHandler. paho runs it on its own goroutine,
// so the hooks may block on broker acknowledgements.
func (r *Resubscriber) OnConnect(client paho.Client) {
	r.mu.Lock()
	restores := append([]func(paho.Client){}, r.restores...)
	r.mu.Unlock()

	for _, fn := range restores {
		fn(client)
	}
	r.logger.Debug("subscriptions restored", "hooks", len(restores))
}

// Connect dials the configured broker and blocks until the connection is
// established, ctx is done or the connect timeout elapses. onConnect hooks
// run after the initial connection and after every automatic reconnect.
func Connect(ctx context.Context, cfg config.MQTTConfig, logger *slog.Logger, onConnect ...paho.OnConnectHandler) (paho.Client, error) {
	log := logger.With("component", "mqtt", "broker", cfg.Broker)

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout()).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("broker connection lost", "error", err)
		}).
		SetOnConnectHandler(func(c paho.Client) {
			log.Info("connected to broker")
			for _, fn := range onConnect {
				fn(c)
			}
		})

	client := paho.NewClient(opts)
	if err := await(ctx, client.Connect(), cfg.ConnectTimeout()); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return client, nil
}

// Disconnect closes client after letting in-flight messages finish.
func Disconnect(client paho.Client) {
	if client != nil && client.IsConnected() {
		client.Disconnect(disconnectQuiesceMS)
	}
}

// await waits for token to complete and returns its error.
func await(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

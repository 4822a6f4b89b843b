package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/sleepwatch/internal/config"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/events"
	"github.com/phrazzld/sleepwatch/internal/schedule"
	"github.com/phrazzld/sleepwatch/internal/sensor"
	"github.com/phrazzld/sleepwatch/internal/session"
)

// Default loop settings
const (
	DefaultEvaluateInterval = 30 * time.Second
	DefaultInboxSize        = 256
)

// Common errors returned by the controller
var (
	ErrTrackingDisabled = errors.New("tracking is disabled")
	ErrNotRunning       = errors.New("tracking controller is not running")
	ErrAlreadyRunning   = errors.New("tracking controller is already running")
)

// Sampler produces synchronized sensor ticks.
type Sampler interface {
	Subscribe(onTick sensor.TickFunc) error
	Unsubscribe() error
	Dropped() int
}

// SessionSink receives every session that ended normally. Submit must not
// block for long; analysis happens elsewhere.
type SessionSink interface {
	Submit(ctx context.Context, session domain.Session) error
}

// Config holds the controller's initial window and loop settings.
type Config struct {
	Window           schedule.Window
	EvaluateInterval time.Duration
	InboxSize        int
}

// ConfigFrom builds a controller config from application settings.
func ConfigFrom(cfg config.TrackingConfig) (Config, error) {
	window, err := schedule.NewWindow(cfg.BedTime, cfg.WakeTime, cfg.Enabled)
	if err != nil {
		return Config{}, fmt.Errorf("sleep window: %w", err)
	}
	return Config{
		Window:           window,
		EvaluateInterval: cfg.EvaluateInterval(),
		InboxSize:        cfg.InboxSize,
	}, nil
}

// Controller drives the Idle/Tracking state machine.
type Controller struct {
	sampler Sampler
	sink    SessionSink
	emitter events.EventEmitter
	clock   Clock
	logger  *slog.Logger

	evaluateInterval time.Duration
	inbox            chan func(ctx context.Context)
	done             chan struct{}
	running          atomic.Bool
	droppedTicks     atomic.Int64

	// device is written by collaborators from any goroutine and read by the
	// loop when an observation is built.
	deviceMu sync.Mutex
	device   domain.DeviceState

	// Loop-owned state.
	window       schedule.Window
	state        State
	log          *session.Log
	sessionGen   uint64
	sessionStart time.Time
	manual       bool
	suppressed   bool
}

// NewController creates a controller. Call Run to start its loop.
func NewController(
	cfg Config,
	sampler Sampler,
	sink SessionSink,
	emitter events.EventEmitter,
	clock Clock,
	logger *slog.Logger,
) (*Controller, error) {
	switch {
	case sampler == nil:
		return nil, errors.New("sampler cannot be nil")
	case sink == nil:
		return nil, errors.New("session sink cannot be nil")
	case emitter == nil:
		return nil, errors.New("event emitter cannot be nil")
	case logger == nil:
		return nil, errors.New("logger cannot be nil")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.EvaluateInterval <= 0 {
		cfg.EvaluateInterval = DefaultEvaluateInterval
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultInboxSize
	}

	return &Controller{
		sampler:          sampler,
		sink:             sink,
		emitter:          emitter,
		clock:            clock,
		logger:           logger.With("component", "tracking_controller"),
		evaluateInterval: cfg.EvaluateInterval,
		inbox:            make(chan func(context.Context), cfg.InboxSize),
		done:             make(chan struct{}),
		window:           cfg.Window,
		state:            StateIdle,
		log:              session.NewLog(),
	}, nil
}

// Run processes the inbox and evaluates the window until ctx is cancelled.
// A session still open at shutdown is discarded.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	c.logger.Info("tracking controller started",
		"window", c.window.String(),
		"evaluate_interval", c.evaluateInterval.String())

	ticker := time.NewTicker(c.evaluateInterval)
	defer ticker.Stop()

	c.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case fn := <-c.inbox:
			fn(ctx)
		case <-ticker.C:
			c.evaluatePeriodic(ctx)
		}
	}
}

// evaluatePeriodic runs the closures already queued before evaluating, so
// ticks that arrived before the window closed still reach the session.
// Only the loop receives from the inbox, so len(inbox) items are present.
func (c *Controller) evaluatePeriodic(ctx context.Context) {
	for n := len(c.inbox); n > 0; n-- {
		fn := <-c.inbox
		fn(ctx)
	}
	c.evaluate(ctx)
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// call runs fn on the loop and waits for it to finish.
func (c *Controller) call(ctx context.Context, fn func(ctx context.Context)) error {
	finished := make(chan struct{})
	wrapped := func(loopCtx context.Context) {
		defer close(finished)
		fn(loopCtx)
	}

	select {
	case c.inbox <- wrapped:
	case <-c.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins a manual session. It is a no-op while tracking. A manual
// session survives evaluations outside the window until Stop is called or a
// scheduled window occurrence that it overlaps ends.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	callErr := c.call(ctx, func(loopCtx context.Context) {
		if !c.window.Enabled {
			err = ErrTrackingDisabled
			return
		}
		if c.state == StateTracking {
			c.logger.Debug("start requested while already tracking")
			return
		}
		c.suppressed = false
		err = c.enter(loopCtx, true)
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Stop ends the running session and submits it for analysis. It is a no-op
// while idle. A scheduled window occurrence stopped this way is not resumed
// until the window next opens.
func (c *Controller) Stop(ctx context.Context) error {
	return c.call(ctx, func(loopCtx context.Context) {
		if c.state != StateTracking {
			c.logger.Debug("stop requested while idle")
			return
		}
		if c.window.IsActive(c.clock.Now()) {
			c.suppressed = true
		}
		c.exit(loopCtx)
	})
}

// SetWindow replaces the bed and wake times and re-evaluates. A running
// session is kept unless the new window no longer contains now, in which
// case it ends normally with analysis.
func (c *Controller) SetWindow(ctx context.Context, bedTime, wakeTime string) error {
	bed, err := schedule.ParseTimeOfDay(bedTime)
	if err != nil {
		return fmt.Errorf("bed time: %w", err)
	}
	wake, err := schedule.ParseTimeOfDay(wakeTime)
	if err != nil {
		return fmt.Errorf("wake time: %w", err)
	}

	return c.call(ctx, func(loopCtx context.Context) {
		c.window.Bed, c.window.Wake = bed, wake
		c.logger.Info("sleep window updated", "window", c.window.String())
		c.evaluate(loopCtx)
	})
}

// SetEnabled turns tracking on or off. Disabling while tracking discards
// the running session without analysis.
func (c *Controller) SetEnabled(ctx context.Context, enabled bool) error {
	return c.call(ctx, func(loopCtx context.Context) {
		if c.window.Enabled == enabled {
			return
		}
		c.window.Enabled = enabled
		c.logger.Info("tracking enablement changed", "enabled", enabled)

		if !enabled && c.state == StateTracking {
			c.discard(loopCtx)
			return
		}
		c.evaluate(loopCtx)
	})
}

// Evaluate checks the window against the clock now.
func (c *Controller) Evaluate(ctx context.Context) error {
	return c.call(ctx, c.evaluate)
}

// SetCharging records the charging flag for future observations.
func (c *Controller) SetCharging(charging bool) {
	c.deviceMu.Lock()
	c.device.Charging = charging
	c.deviceMu.Unlock()
}

// SetInUse records the in-use flag for future observations.
func (c *Controller) SetInUse(inUse bool) {
	c.deviceMu.Lock()
	c.device.InUse = inUse
	c.deviceMu.Unlock()
}

func (c *Controller) deviceState() domain.DeviceState {
	c.deviceMu.Lock()
	defer c.deviceMu.Unlock()
	return c.device
}

// Status returns a snapshot taken on the loop.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.call(ctx, func(context.Context) {
		now := c.clock.Now()
		st = Status{
			State:            c.state,
			Window:           c.window.String(),
			BedTime:          c.window.Bed.String(),
			WakeTime:         c.window.Wake.String(),
			Enabled:          c.window.Enabled,
			WindowActive:     c.window.IsActive(now),
			Manual:           c.manual,
			ObservationCount: c.log.Len(),
			DroppedTicks:     c.droppedTicks.Load(),
			Device:           c.deviceState(),
			Now:              now,
		}
		if c.state == StateTracking {
			started := c.sessionStart
			st.SessionStartedAt = &started
			st.UnpairedReadings = c.sampler.Dropped()
		}
	})
	return st, err
}

// evaluate applies the schedule. Must run on the loop.
func (c *Controller) evaluate(ctx context.Context) {
	active := c.window.IsActive(c.clock.Now())
	if !active {
		c.suppressed = false
	}

	switch c.state {
	case StateIdle:
		if active && !c.suppressed {
			if err := c.enter(ctx, false); err != nil {
				c.logger.Error("failed to start tracking, will retry at next evaluation", "error", err)
			}
		}
	case StateTracking:
		if active {
			// A manual session overlapping the window now ends with it.
			c.manual = false
			return
		}
		if !c.manual {
			c.exit(ctx)
		}
	}
}

// enter moves Idle -> Tracking. Must run on the loop.
func (c *Controller) enter(ctx context.Context, manual bool) error {
	c.log.Reset()
	c.sessionGen++
	gen := c.sessionGen

	if err := c.sampler.Subscribe(func(accel, gyro domain.Vector3) {
		c.postTick(gen, accel, gyro)
	}); err != nil {
		return fmt.Errorf("subscribe sensors: %w", err)
	}

	now := c.clock.Now()
	c.state = StateTracking
	c.sessionStart = now
	c.manual = manual

	c.logger.Info("sleep window entered", "window", c.window.String(), "manual", manual)
	c.emit(ctx, events.TypeWindowEntered, events.WindowPayload{
		At:     now,
		Window: c.window.String(),
		Manual: manual,
	})
	return nil
}

// exit moves Tracking -> Idle and hands the session to the sink. Must run
// on the loop.
func (c *Controller) exit(ctx context.Context) {
	c.teardown()
	now := c.clock.Now()
	observations := c.log.Drain()

	c.logger.Info("sleep window exited",
		"observation_count", len(observations),
		"duration", now.Sub(c.sessionStart).String())
	c.emit(ctx, events.TypeWindowExited, events.WindowPayload{
		At:               now,
		Window:           c.window.String(),
		Manual:           c.manual,
		ObservationCount: len(observations),
	})

	sess := domain.Session{StartedAt: c.sessionStart, EndedAt: now, Observations: observations}
	if sess.EndedAt.Before(sess.StartedAt) {
		sess.EndedAt = sess.StartedAt
	}
	if err := c.sink.Submit(ctx, sess); err != nil {
		c.logger.Error("failed to submit session for analysis", "error", err)
	}
	c.manual = false
}

// discard moves Tracking -> Idle without analysis. Must run on the loop.
func (c *Controller) discard(ctx context.Context) {
	c.teardown()
	count := c.log.Len()
	c.log.Reset()
	c.manual = false

	c.logger.Info("tracking disabled, session discarded", "discarded_count", count)
	c.emit(ctx, events.TypeTrackingDisabled, events.TrackingDisabledPayload{
		At:             c.clock.Now(),
		DiscardedCount: count,
	})
}

func (c *Controller) teardown() {
	c.state = StateIdle
	c.sessionGen++
	if err := c.sampler.Unsubscribe(); err != nil {
		c.logger.Warn("failed to unsubscribe sensors", "error", err)
	}
}

func (c *Controller) shutdown() {
	if c.state == StateTracking {
		count := c.log.Len()
		c.teardown()
		c.log.Reset()
		c.logger.Info("shutting down, partial session discarded", "discarded_count", count)
	}
	c.logger.Info("tracking controller stopped")
}

// postTick forwards a sampler tick to the loop without blocking. The
// observation is stamped with the time and device state at arrival.
func (c *Controller) postTick(gen uint64, accel, gyro domain.Vector3) {
	obs := domain.NewSensorObservation(c.clock.Now(), accel, gyro, c.deviceState())
	fn := func(context.Context) {
		if c.state != StateTracking || c.sessionGen != gen {
			return
		}
		c.log.Append(obs)
	}

	select {
	case c.inbox <- fn:
	default:
		c.droppedTicks.Add(1)
		c.logger.Warn("inbox full, dropping sensor tick")
	}
}

func (c *Controller) emit(ctx context.Context, eventType string, payload interface{}) {
	if err := events.Emit(ctx, c.emitter, eventType, payload); err != nil {
		c.logger.Warn("failed to emit event", "event_type", eventType, "error", err)
	}
}

package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/sleepwatch/internal/domain"
)

// DefaultUpdateInterval is the cadence used when none is configured.
const DefaultUpdateInterval = 10 * time.Second

// Common errors returned by the sampler
var (
	ErrNoProvider = errors.New("sensor provider cannot be nil")
	ErrNoTickFunc = errors.New("tick callback cannot be nil")
)

// TickFunc receives one synchronized tick. It is called from provider
// goroutines and must not block.
type TickFunc func(accel, gyro domain.Vector3)

// Sampler pairs acceleration readings with the most recent angular-velocity
// reading. It is safe for concurrent use.
type Sampler struct {
	provider Provider
	interval time.Duration
	logger   *slog.Logger

	mu sync.Mutex
	// generation invalidates callbacks delivered after Unsubscribe.
	generation uint64
	active     bool
	onTick     TickFunc
	accelSub   Subscription
	gyroSub    Subscription
	lastGyro   domain.Vector3
	haveGyro   bool
	dropped    int
}

// NewSampler creates a sampler that subscribes to provider at interval.
// A non-positive interval falls back to DefaultUpdateInterval.
func NewSampler(provider Provider, interval time.Duration, logger *slog.Logger) (*Sampler, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if interval <= 0 {
		logger.Warn("invalid sample interval specified, using default",
			"specified_interval", interval,
			"default_interval", DefaultUpdateInterval)
		interval = DefaultUpdateInterval
	}

	return &Sampler{
		provider: provider,
		interval: interval,
		logger:   logger.With("component", "sensor_sampler"),
	}, nil
}

// Subscribe starts listening on both streams and forwards synchronized ticks
// to onTick. Calling Subscribe while already subscribed is a no-op.
func (s *Sampler) Subscribe(onTick TickFunc) error {
	if onTick == nil {
		return ErrNoTickFunc
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.logger.Debug("sampler already subscribed")
		return nil
	}
	s.generation++
	gen := s.generation
	s.active = true
	s.onTick = onTick
	s.haveGyro = false
	s.lastGyro = domain.Vector3{}
	s.dropped = 0
	s.mu.Unlock()

	// Provider calls happen outside the lock: a provider may deliver readings
	// on another goroutine before Subscribe returns.
	gyroSub, accelSub, err := s.subscribeStreams(gen)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.active = false
			s.onTick = nil
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.gyroSub = gyroSub
	s.accelSub = accelSub
	s.mu.Unlock()

	s.logger.Info("sensor subscriptions started", "interval", s.interval.String())
	return nil
}

func (s *Sampler) subscribeStreams(gen uint64) (Subscription, Subscription, error) {
	gyro := s.provider.Gyroscope()
	accel := s.provider.Accelerometer()

	if err := gyro.SetUpdateInterval(s.interval); err != nil {
		return nil, nil, fmt.Errorf("set gyroscope update interval: %w", err)
	}
	if err := accel.SetUpdateInterval(s.interval); err != nil {
		return nil, nil, fmt.Errorf("set accelerometer update interval: %w", err)
	}

	gyroSub, err := gyro.Subscribe(func(r Reading) { s.handleGyro(gen, r) })
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe gyroscope: %w", err)
	}

	accelSub, err := accel.Subscribe(func(r Reading) { s.handleAccel(gen, r) })
	if err != nil {
		if removeErr := gyroSub.Remove(); removeErr != nil {
			s.logger.Warn("failed to remove gyroscope subscription after error", "error", removeErr)
		}
		return nil, nil, fmt.Errorf("subscribe accelerometer: %w", err)
	}

	return gyroSub, accelSub, nil
}

// Unsubscribe removes both listeners and forgets the cached gyroscope
// reading. It is safe to call when not subscribed.
func (s *Sampler) Unsubscribe() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.generation++
	accelSub, gyroSub := s.accelSub, s.gyroSub
	s.accelSub, s.gyroSub = nil, nil
	s.onTick = nil
	s.haveGyro = false
	s.lastGyro = domain.Vector3{}
	dropped := s.dropped
	s.mu.Unlock()

	var errs []error
	if accelSub != nil {
		if err := accelSub.Remove(); err != nil {
			errs = append(errs, fmt.Errorf("remove accelerometer subscription: %w", err))
		}
	}
	if gyroSub != nil {
		if err := gyroSub.Remove(); err != nil {
			errs = append(errs, fmt.Errorf("remove gyroscope subscription: %w", err))
		}
	}

	s.logger.Info("sensor subscriptions stopped", "dropped_unsynchronized", dropped)
	return errors.Join(errs...)
}

// Subscribed reports whether listeners are currently active.
func (s *Sampler) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Dropped returns how many acceleration readings of the current subscription
// were discarded because no gyroscope reading had arrived yet.
func (s *Sampler) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Sampler) handleGyro(gen uint64, r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return
	}
	s.lastGyro = FormatSensorData(r, GyroScale)
	s.haveGyro = true
}

func (s *Sampler) handleAccel(gen uint64, r Reading) {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	gyro, ok := s.waitForBothStreams()
	if !ok {
		s.dropped++
		s.mu.Unlock()
		s.logger.Debug("dropping acceleration reading until gyroscope reports")
		return
	}
	accel := FormatSensorData(r, AccelScale)
	onTick := s.onTick
	s.mu.Unlock()

	onTick(accel, gyro)
}

// waitForBothStreams is the synchronization rule: an acceleration reading
// only becomes a tick once this subscription has seen a gyroscope reading.
// Callers must hold s.mu.
func (s *Sampler) waitForBothStreams() (domain.Vector3, bool) {
	return s.lastGyro, s.haveGyro
}

// current reports whether a callback from subscription gen is still live.
// Callers must hold s.mu.
func (s *Sampler) current(gen uint64) bool {
	return s.active && s.generation == gen
}

// Package sensortest provides an in-memory sensor provider for tests.
package sensortest

import (
	"sync"
	"time"

	"github.com/phrazzld/sleepwatch/internal/sensor"
)

// FakeStream is a sensor.Stream whose readings are pushed by the test.
type FakeStream struct {
	mu           sync.Mutex
	handlers     map[int]func(sensor.Reading)
	nextID       int
	interval     time.Duration
	subscribes   int
	removes      int
	SubscribeErr error
	IntervalErr  error
}

// NewFakeStream creates an empty FakeStream.
func NewFakeStream() *FakeStream {
	return &FakeStream{handlers: make(map[int]func(sensor.Reading))}
}

// SetUpdateInterval implements sensor.Stream
func (s *FakeStream) SetUpdateInterval(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IntervalErr != nil {
		return s.IntervalErr
	}
	s.interval = d
	return nil
}

// Subscribe implements sensor.Stream
func (s *FakeStream) Subscribe(handler func(sensor.Reading)) (sensor.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SubscribeErr != nil {
		return nil, s.SubscribeErr
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.subscribes++
	return &fakeSubscription{stream: s, id: id}, nil
}

// Emit delivers a reading to every live handler on the caller's goroutine.
func (s *FakeStream) Emit(x, y, z float64) {
	s.mu.Lock()
	handlers := make([]func(sensor.Reading), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	r := sensor.Reading{X: x, Y: y, Z: z, Timestamp: time.Now()}
	for _, h := range handlers {
		h(r)
	}
}

// Active returns the number of live subscriptions.
func (s *FakeStream) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Subscribes returns how many times Subscribe succeeded.
func (s *FakeStream) Subscribes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes
}

// Removes returns how many subscriptions were removed.
func (s *FakeStream) Removes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removes
}

// Interval returns the last update interval requested.
func (s *FakeStream) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

type fakeSubscription struct {
	stream *FakeStream
	id     int
	once   sync.Once
}

func (f *fakeSubscription) Remove() error {
	f.once.Do(func() {
		f.stream.mu.Lock()
		delete(f.stream.handlers, f.id)
		f.stream.removes++
		f.stream.mu.Unlock()
	})
	return nil
}

// FakeProvider bundles two fake streams.
type FakeProvider struct {
	Accel *FakeStream
	Gyro  *FakeStream
}

// NewFakeProvider creates a provider with two fresh streams.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{Accel: NewFakeStream(), Gyro: NewFakeStream()}
}

// Accelerometer implements sensor.Provider
func (p *FakeProvider) Accelerometer() sensor.Stream { return p.Accel }

// Gyroscope implements sensor.Provider
func (p *FakeProvider) Gyroscope() sensor.Stream { return p.Gyro }

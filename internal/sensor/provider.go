package sensor

import (
	"time"
)

// Reading is one raw 3-axis sample as delivered by a sensor stream.
type Reading struct {
	X         float64
	Y         float64
	Z         float64
	Timestamp time.Time
}

// Subscription is a live listener on a Stream.
type Subscription interface {
	// Remove tears the listener down. Removing twice must be harmless.
	Remove() error
}

// Stream is a single sensor feed. Handlers may be invoked from any goroutine
// and must not block.
type Stream interface {
	// SetUpdateInterval asks the sensor to deliver readings at the given cadence.
	SetUpdateInterval(d time.Duration) error

	// Subscribe registers handler for every future reading.
	Subscribe(handler func(Reading)) (Subscription, error)
}

// Provider exposes the two motion streams the sampler needs.
type Provider interface {
	Accelerometer() Stream
	Gyroscope() Stream
}

package tracking

import (
	"time"

	"github.com/phrazzld/sleepwatch/internal/domain"
)

// State is the controller's tracking state.
type State string

// Possible controller states
const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// Status is a snapshot of the controller.
type Status struct {
	State            State              `json:"state"`
	Window           string             `json:"window"`
	BedTime          string             `json:"bed_time"`
	WakeTime         string             `json:"wake_time"`
	Enabled          bool               `json:"enabled"`
	WindowActive     bool               `json:"window_active"`
	Manual           bool               `json:"manual"`
	SessionStartedAt *time.Time         `json:"session_started_at,omitempty"`
	ObservationCount int                `json:"observation_count"`
	DroppedTicks     int64              `json:"dropped_ticks"`
	UnpairedReadings int                `json:"unpaired_readings"`
	Device           domain.DeviceState `json:"device"`
	Now              time.Time          `json:"now"`
}

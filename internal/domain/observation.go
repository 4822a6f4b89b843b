package domain

import (
	"fmt"
	"math"
	"time"
)

// Vector3 is a 3-axis sensor reading rounded to two decimal places.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewVector3 builds a Vector3, rounding every component to two decimals.
func NewVector3(x, y, z float64) Vector3 {
	return Vector3{X: round2(x), Y: round2(y), Z: round2(z)}
}

// round2 rounds half away from zero at the second decimal.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ActivityState reports whether the device was in use when a sample was taken.
type ActivityState string

// Possible activity state values
const (
	ActivityActive ActivityState = "Active"
	ActivityIdle   ActivityState = "Idle"
)

// DeviceState is the latest state reported by the device-state collaborator.
type DeviceState struct {
	Charging bool `json:"charging"`
	InUse    bool `json:"in_use"`
}

// Activity maps the in-use flag onto the observation state.
func (d DeviceState) Activity() ActivityState {
	if d.InUse {
		return ActivityActive
	}
	return ActivityIdle
}

// Environment holds placeholders for readings this component never measures.
// They are serialized as null so the scoring service knows they are unknown.
type Environment struct {
	Noise       *float64 `json:"noise"`
	Light       *float64 `json:"light"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// SensorObservation is one synchronized sample recorded during a session.
// It is a value type; once appended to a session log it is never modified.
type SensorObservation struct {
	Time     string        `json:"time"`
	Accel    Vector3       `json:"accel"`
	Gyro     Vector3       `json:"gyro"`
	Charging bool          `json:"charging"`
	State    ActivityState `json:"state"`
	Environment
}

// NewSensorObservation stamps a synchronized tick with the wall-clock time
// and the current device state.
func NewSensorObservation(at time.Time, accel, gyro Vector3, device DeviceState) SensorObservation {
	return SensorObservation{
		Time:     ClockHHMM(at),
		Accel:    accel,
		Gyro:     gyro,
		Charging: device.Charging,
		State:    device.Activity(),
	}
}

// ClockHHMM renders the time of day as a four digit "HHMM" string.
func ClockHHMM(t time.Time) string {
	return fmt.Sprintf("%02d%02d", t.Hour(), t.Minute())
}

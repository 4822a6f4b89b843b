package sensor

import "github.com/phrazzld/sleepwatch/internal/domain"

// Scale factors applied before rounding.
const (
	// AccelScale keeps acceleration in the sensor's native unit.
	AccelScale = 1.0

	// GyroScale converts angular velocity to milli-units for compact logging.
	GyroScale = 1000.0
)

// FormatSensorData scales a raw reading and rounds each axis to two decimals.
func FormatSensorData(r Reading, scale float64) domain.Vector3 {
	return domain.NewVector3(r.X*scale, r.Y*scale, r.Z*scale)
}

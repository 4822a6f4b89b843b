package tracking

import "time"

// Clock supplies wall-clock time. Window evaluation uses the hour and minute
// of the returned time in its own location.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time in Location (local time when nil).
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

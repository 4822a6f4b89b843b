// Package schedule decides whether an instant falls inside the nightly sleep
// window. It is a pure function of the configured bed/wake times and the
// wall-clock time it is handed.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of distinct minute-of-day values.
const MinutesPerDay = 24 * 60

// ErrInvalidTimeOfDay is returned when a time of day is not a valid "HH:MM".
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// TimeOfDay is a minute-of-day value in [0, 1439].
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidTimeOfDay, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// At returns the minute of day of t in t's own location.
func At(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// String renders the value as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is the configured nightly interval. Bed may be later than Wake, in
// which case the window wraps past midnight.
type Window struct {
	Bed     TimeOfDay
	Wake    TimeOfDay
	Enabled bool
}

// NewWindow parses bed and wake times into a Window.
func NewWindow(bed, wake string, enabled bool) (Window, error) {
	b, err := ParseTimeOfDay(bed)
	if err != nil {
		return Window{}, fmt.Errorf("bed time: %w", err)
	}
	w, err := ParseTimeOfDay(wake)
	if err != nil {
		return Window{}, fmt.Errorf("wake time: %w", err)
	}
	return Window{Bed: b, Wake: w, Enabled: enabled}, nil
}

// WrapsMidnight reports whether the window crosses midnight.
func (w Window) WrapsMidnight() bool {
	return w.Bed > w.Wake
}

// Empty reports whether the window has zero length. An empty window is never
// active.
func (w Window) Empty() bool {
	return w.Bed == w.Wake
}

// IsActive reports whether now falls inside the window. Both ends are
// inclusive at minute resolution.
func (w Window) IsActive(now time.Time) bool {
	if !w.Enabled || w.Empty() {
		return false
	}
	current := At(now)
	if w.WrapsMidnight() {
		return current >= w.Bed || current <= w.Wake
	}
	return current >= w.Bed && current <= w.Wake
}

// String renders the window as "HH:MM-HH:MM".
func (w Window) String() string {
	s := w.Bed.String() + "-" + w.Wake.String()
	if !w.Enabled {
		s += " (disabled)"
	}
	return s
}

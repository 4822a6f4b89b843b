package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(hour, minute int) time.Time {
	return time.Date(2025, time.April, 1, hour, minute, 30, 0, time.UTC)
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected TimeOfDay
		wantErr  bool
	}{
		{in: "00:00", expected: 0},
		{in: "23:59", expected: 1439},
		{in: "7:05", expected: 425},
		{in: " 22:30 ", expected: 1350},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "1230", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "-1:00", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00:00", TimeOfDay(0).String())
	assert.Equal(t, "06:05", TimeOfDay(365).String())
	assert.Equal(t, "23:59", TimeOfDay(1439).String())
}

func TestNewWindow(t *testing.T) {
	t.Parallel()

	w, err := NewWindow("23:00", "06:00", true)
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(1380), w.Bed)
	assert.Equal(t, TimeOfDay(360), w.Wake)
	assert.True(t, w.WrapsMidnight())
	assert.Equal(t, "23:00-06:00", w.String())

	_, err = NewWindow("25:00", "06:00", true)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
	assert.Contains(t, err.Error(), "bed time")

	_, err = NewWindow("23:00", "6", true)
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
	assert.Contains(t, err.Error(), "wake time")
}

func TestIsActiveSameDayWindow(t *testing.T) {
	t.Parallel()

	w, err := NewWindow("13:00", "15:30", true)
	require.NoError(t, err)

	assert.False(t, w.IsActive(clock(12, 59)), "just before bed time")
	assert.True(t, w.IsActive(clock(13, 0)), "bed time is inclusive")
	assert.True(t, w.IsActive(clock(14, 15)))
	assert.True(t, w.IsActive(clock(15, 30)), "wake time is inclusive")
	assert.False(t, w.IsActive(clock(15, 31)), "just after wake time")
	assert.False(t, w.IsActive(clock(0, 0)))
}

func TestIsActiveOvernightWindow(t *testing.T) {
	t.Parallel()

	w, err := NewWindow("23:00", "06:00", true)
	require.NoError(t, err)

	assert.False(t, w.IsActive(clock(22, 59)))
	assert.True(t, w.IsActive(clock(23, 0)))
	assert.True(t, w.IsActive(clock(23, 30)))
	assert.True(t, w.IsActive(clock(0, 0)))
	assert.True(t, w.IsActive(clock(3, 15)))
	assert.True(t, w.IsActive(clock(6, 0)))
	assert.False(t, w.IsActive(clock(6, 1)))
	assert.False(t, w.IsActive(clock(6, 5)))
	assert.False(t, w.IsActive(clock(12, 0)))
}

func TestIsActiveExhaustive(t *testing.T) {
	t.Parallel()

	configs := [][2]TimeOfDay{{0, 1439}, {60, 120}, {1380, 360}, {1439, 0}, {720, 719}}
	for _, cfg := range configs {
		w := Window{Bed: cfg[0], Wake: cfg[1], Enabled: true}
		for m := 0; m < MinutesPerDay; m++ {
			now := clock(m/60, m%60)
			current := TimeOfDay(m)
			var expected bool
			if w.Bed > w.Wake {
				expected = current >= w.Bed || current <= w.Wake
			} else {
				expected = current >= w.Bed && current <= w.Wake
			}
			require.Equal(t, expected, w.IsActive(now), "window %s at %s", w, current)
		}
	}
}

func TestIsActiveEqualBedAndWakeIsNeverActive(t *testing.T) {
	t.Parallel()

	w, err := NewWindow("22:00", "22:00", true)
	require.NoError(t, err)
	assert.True(t, w.Empty())

	for m := 0; m < MinutesPerDay; m++ {
		require.False(t, w.IsActive(clock(m/60, m%60)), "minute %d", m)
	}
}

func TestIsActiveDisabled(t *testing.T) {
	t.Parallel()

	w, err := NewWindow("00:00", "23:59", false)
	require.NoError(t, err)

	for _, now := range []time.Time{clock(0, 0), clock(12, 0), clock(23, 59)} {
		assert.False(t, w.IsActive(now))
	}
	assert.Equal(t, "00:00-23:59 (disabled)", w.String())
}

func TestIsActiveUsesLocationOfNow(t *testing.T) {
	t.Parallel()

	w, err := NewWindow("23:00", "06:00", true)
	require.NoError(t, err)

	tokyo := time.FixedZone("JST", 9*60*60)
	// 15:00 UTC is 00:00 in Tokyo.
	utc := time.Date(2025, time.April, 1, 15, 0, 0, 0, time.UTC)
	assert.False(t, w.IsActive(utc))
	assert.True(t, w.IsActive(utc.In(tokyo)))
}

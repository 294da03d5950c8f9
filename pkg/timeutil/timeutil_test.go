package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEndOfDay(t *testing.T) {
	// 23:30 in UTC+5 is 18:30 UTC the same calendar day.
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2026, 4, 10, 23, 30, 0, 0, loc)

	start := StartOfDay(ts)
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), start)

	end := EndOfDay(ts)
	assert.Equal(t, time.Date(2026, 4, 10, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), end)
}

func TestDayKeyRoundTrip(t *testing.T) {
	ts := time.Date(2026, 4, 10, 15, 4, 5, 0, time.UTC)
	key := DayKey(ts)
	assert.Equal(t, "2026-04-10", key)

	parsed, err := ParseDayKey(key)
	require.NoError(t, err)
	assert.Equal(t, StartOfDay(ts), parsed)

	_, err = ParseDayKey("10/04/2026")
	assert.Error(t, err)
}

func TestIsSameDay(t *testing.T) {
	a := time.Date(2026, 4, 10, 0, 0, 1, 0, time.UTC)
	b := time.Date(2026, 4, 10, 23, 59, 59, 0, time.UTC)
	assert.True(t, IsSameDay(a, b))
	assert.False(t, IsSameDay(a, b.Add(time.Second)))
}

func TestIsNextDay(t *testing.T) {
	a := time.Date(2026, 4, 10, 22, 0, 0, 0, time.UTC)

	assert.True(t, IsNextDay(a, time.Date(2026, 4, 11, 1, 0, 0, 0, time.UTC)))
	assert.False(t, IsNextDay(a, a.Add(time.Hour)), "same day does not advance a streak")
	assert.False(t, IsNextDay(a, time.Date(2026, 4, 12, 1, 0, 0, 0, time.UTC)), "a gap day resets")

	// Month boundary.
	assert.True(t, IsNextDay(
		time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 4, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 4, 11, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysBetween(a, b), "whole-day difference, not 24h difference")
	assert.Equal(t, 1, DaysBetween(b, a), "order does not matter")
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestLastNDays(t *testing.T) {
	ref := time.Date(2026, 4, 10, 18, 30, 0, 0, time.UTC)

	days := LastNDays(ref, 7)
	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC), days[0], "oldest first")
	assert.Equal(t, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), days[6], "ends at ref's day")

	assert.Nil(t, LastNDays(ref, 0))
	assert.Nil(t, LastNDays(ref, -3))
}

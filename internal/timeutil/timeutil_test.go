package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDayRangeSpansRequestedDays(t *testing.T) {
	now := time.Date(2025, time.June, 7, 14, 30, 0, 0, time.UTC)
	r, err := NewDayRange(7, now, time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", r.StartDate())
	require.Equal(t, "2025-06-07", r.EndDate())
	require.Equal(t, 7, r.Days())
}

func TestNewDayRangeRejectsNonPositiveDays(t *testing.T) {
	_, err := NewDayRange(0, time.Now(), time.UTC)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestEachDayEnumeratesEveryCalendarDay(t *testing.T) {
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	r, err := NewDayRange(3, now, time.UTC)
	require.NoError(t, err)

	var days []string
	r.EachDay(func(day time.Time) {
		days = append(days, day.Format("2006-01-02"))
	})
	require.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, days)
}

func TestDayRangeHonorsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 01:30 UTC on June 8 is still June 7 in New York.
	now := time.Date(2025, time.June, 8, 1, 30, 0, 0, time.UTC)
	r, err := NewDayRange(1, now, loc)
	require.NoError(t, err)
	require.Equal(t, "2025-06-07", r.EndDate())
}

func TestDayRangeCountsCalendarDaysAcrossDSTTransitions(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Spring forward (March 8 2026): the 30-day window is only 29 days and
	// 23 hours of wall time. Days() must agree with what EachDay yields.
	r, err := NewDayRange(30, time.Date(2026, time.March, 20, 12, 0, 0, 0, ny), ny)
	require.NoError(t, err)
	require.Equal(t, "2026-02-19", r.StartDate())
	require.Equal(t, 30, r.Days())

	enumerated := 0
	r.EachDay(func(time.Time) { enumerated++ })
	require.Equal(t, 30, enumerated)

	// Fall back (November 1 2026): 30 days and 1 hour of wall time.
	r, err = NewDayRange(30, time.Date(2026, time.November, 20, 12, 0, 0, 0, ny), ny)
	require.NoError(t, err)
	require.Equal(t, 30, r.Days())

	enumerated = 0
	r.EachDay(func(time.Time) { enumerated++ })
	require.Equal(t, 30, enumerated)
}

func TestContains(t *testing.T) {
	now := time.Date(2025, time.June, 7, 12, 0, 0, 0, time.UTC)
	r, err := NewDayRange(7, now, time.UTC)
	require.NoError(t, err)
	require.True(t, r.Contains(time.Date(2025, time.June, 1, 23, 59, 0, 0, time.UTC)))
	require.False(t, r.Contains(time.Date(2025, time.May, 31, 12, 0, 0, 0, time.UTC)))
}

func TestContainsDate(t *testing.T) {
	now := time.Date(2025, time.June, 7, 12, 0, 0, 0, time.UTC)
	r, err := NewDayRange(7, now, time.UTC)
	require.NoError(t, err)
	require.True(t, r.ContainsDate("2025-06-01"))
	require.True(t, r.ContainsDate("2025-06-07"))
	require.False(t, r.ContainsDate("2025-05-31"))
	require.False(t, r.ContainsDate("2025-06-08"))
}

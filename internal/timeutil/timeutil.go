package timeutil

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("invalid day range")

const dateLayout = "2006-01-02"

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// TruncateToDay normalizes the timestamp to midnight in the provided zone.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayRange is an inclusive span of calendar days anchored to a reporting zone.
type DayRange struct {
	start time.Time
	end   time.Time
	loc   *time.Location
}

// NewDayRange builds the inclusive range of the most recent `days` calendar
// days ending on the day containing `now`.
func NewDayRange(days int, now time.Time, loc *time.Location) (DayRange, error) {
	if days <= 0 {
		return DayRange{}, ErrInvalidRange
	}
	loc = EnsureLocation(loc)
	end := TruncateToDay(now, loc)
	start := end.AddDate(0, 0, -(days - 1))
	return DayRange{start: start, end: end, loc: loc}, nil
}

// Start returns midnight of the first day in the range.
func (r DayRange) Start() time.Time { return r.start }

// End returns midnight of the last day in the range.
func (r DayRange) End() time.Time { return r.end }

// Days returns the inclusive day count. The span is measured in calendar
// days, not elapsed hours; DST transitions inside the range must not change
// the count.
func (r DayRange) Days() int {
	start := time.Date(r.start.Year(), r.start.Month(), r.start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.end.Year(), r.end.Month(), r.end.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// Location returns the reporting timezone for the range.
func (r DayRange) Location() *time.Location { return EnsureLocation(r.loc) }

// StartDate returns the first day formatted as a calendar date.
func (r DayRange) StartDate() string { return r.start.Format(dateLayout) }

// EndDate returns the last day formatted as a calendar date.
func (r DayRange) EndDate() string { return r.end.Format(dateLayout) }

// EachDay yields midnight for every calendar day in the range, ascending.
func (r DayRange) EachDay(fn func(day time.Time)) {
	for day := r.start; !day.After(r.end); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

// Contains reports whether the timestamp falls on a day within the range.
func (r DayRange) Contains(ts time.Time) bool {
	day := TruncateToDay(ts, r.loc)
	return !day.Before(r.start) && !day.After(r.end)
}

// ContainsDate reports whether a formatted calendar date (2006-01-02) falls
// within the range. Use this for DATE-valued data, which carries no zone and
// must not be converted through one.
func (r DayRange) ContainsDate(date string) bool {
	return date >= r.StartDate() && date <= r.EndDate()
}

package service

import "time"

// DateLayout is the calendar-date format accepted and produced by the API.
const DateLayout = "2006-01-02"

// StartOfDay truncates t to 00:00:00.000 in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay is 23:59:59.999 of the calendar day of t in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// ParseDate reads a YYYY-MM-DD date as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, loc)
}

// DayAnchors are the calendar boundaries derived from one rollover instant.
type DayAnchors struct {
	Yesterday time.Time
	Today     time.Time
	Tomorrow  time.Time
}

// Anchors computes today, yesterday and tomorrow for now in loc. Calendar
// arithmetic is used so DST changes do not shift the boundaries.
func Anchors(now time.Time, loc *time.Location) DayAnchors {
	today := StartOfDay(now, loc)
	return DayAnchors{
		Yesterday: today.AddDate(0, 0, -1),
		Today:     today,
		Tomorrow:  today.AddDate(0, 0, 1),
	}
}

// Package cycletime derives temporal engineering metrics from a pull request's
// review and timeline history: time to first review, rework, waiting to
// deploy, and end-to-end cycle time.
//
// Every function here is pure. A metric that cannot be computed from the
// available history is reported as absent (ok == false), never as zero.
package cycletime

import "time"

const secondsPerDay = 24 * 60 * 60

// Calendar counts business days (Monday through Friday) using the calendar
// dates that timestamps fall on in Location. Holidays are not considered.
type Calendar struct {
	Location *time.Location
}

// UTC is the calendar used by the package-level metric functions.
var UTC = Calendar{Location: time.UTC}

// NewCalendar returns a calendar that reads dates in loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Location: loc}
}

// BusinessDaysBetween returns the signed number of business days from earlier
// to later using UTC calendar dates.
func BusinessDaysBetween(later, earlier time.Time) int {
	return UTC.BusinessDaysBetween(later, earlier)
}

// BusinessDaysBetween returns the number of weekdays in the half-open date
// range [earlier, later). Time of day is ignored. The result is negative when
// later precedes earlier, and BusinessDaysBetween(a, b) == -BusinessDaysBetween(b, a).
func (c Calendar) BusinessDaysBetween(later, earlier time.Time) int {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	from := civilDay(earlier, loc)
	to := civilDay(later, loc)
	if to < from {
		return -countWeekdays(to, from)
	}
	return countWeekdays(from, to)
}

// civilDay numbers the calendar date of t in loc as days since 1970-01-01.
func civilDay(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// countWeekdays counts Monday-Friday days in [from, to). from must not exceed to.
func countWeekdays(from, to int64) int {
	weeks := (to - from) / 7
	count := weeks * 5

	// At most six leftover days.
	for day := from + weeks*7; day < to; day++ {
		if !isWeekend(day) {
			count++
		}
	}
	return int(count)
}

func isWeekend(day int64) bool {
	switch weekdayOf(day) {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// weekdayOf returns the weekday of a civil day number. Day 0 was a Thursday.
func weekdayOf(day int64) time.Weekday {
	w := (day + int64(time.Thursday)) % 7
	if w < 0 {
		w += 7
	}
	return time.Weekday(w)
}

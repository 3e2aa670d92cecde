package domain

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange is a canonical inclusive reporting window. Start carries
// T00:00:00 and End T23:59:59 so both boundary days are covered
// regardless of the precision of stored timestamps.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NormalizeDateRange turns optional YYYY-MM-DD start/end strings into a
// DateRange. Missing or malformed inputs fall back to defaults rather
// than erroring: start defaults to the first day of the current
// calendar month, end to today. An inverted range is swapped.
func NormalizeDateRange(start, end string, now time.Time) DateRange {
	now = now.UTC()

	startDay := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(start), time.UTC); err == nil {
		startDay = parsed
	}

	endDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(end), time.UTC); err == nil {
		endDay = parsed
	}

	if endDay.Before(startDay) {
		startDay, endDay = endDay, startDay
	}

	return DateRange{
		Start: startDay,
		End:   time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
	}
}

// NormalizeYear parses a year string for the production grid. Invalid
// or out-of-range input falls back to the current year.
func NormalizeYear(raw string, now time.Time) int {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year < 2000 || year > now.Year()+1 {
		return now.Year()
	}
	return year
}

// YearRange is the inclusive window covering an entire calendar year.
func YearRange(year int) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
	}
}

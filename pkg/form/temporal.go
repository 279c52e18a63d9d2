package form

import (
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// dateFormats are tried in order when a string is coerced to a date.
var dateFormats = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDate parses an ISO 8601 date or timestamp.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses an ISO 8601 date (YYYY-MM-DD) or RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	t, ok := parseDate(s)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// dayOf truncates t to midnight UTC of its own calendar day.
// Calendar arithmetic runs on UTC days so DST shifts never skew a day count.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wholeYears returns the completed years from birth to today, one less when
// today's month/day precedes the birth month/day. Never negative.
func wholeYears(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// daysUntil returns the ceiling of the day distance from today's UTC
// midnight to the event instant. Date-only events land on exact day
// boundaries; timestamps with an offset are compared as instants.
func daysUntil(event, today time.Time) int {
	start := dayOf(today)
	return int(math.Ceil(event.UTC().Sub(start).Hours() / 24))
}

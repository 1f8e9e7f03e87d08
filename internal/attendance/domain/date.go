package domain

import (
	"time"

	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// Date layouts
const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02-01-2006"
	MonthLayout   = "2006-01"
)

// CivilDate drops the time of day, keeping the calendar date as seen in t's
// own location. The result is midnight UTC so that civil dates compare with ==.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD key into a civil date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.BadRequest("invalid date " + s + ", expected YYYY-MM-DD")
	}
	return t, nil
}

// FormatDate renders the machine-sortable date key
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsWeekend reports whether the civil date is a Saturday or Sunday
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// EachDay calls fn for every civil date in [from, to], in order.
func EachDay(from, to time.Time, fn func(day time.Time)) {
	for d := CivilDate(from); !d.After(CivilDate(to)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// DaysInclusive counts the civil dates in [from, to]; zero when from > to.
func DaysInclusive(from, to time.Time) int {
	from, to = CivilDate(from), CivilDate(to)
	if from.After(to) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// MonthBounds returns the first and last day of the month containing t
func MonthBounds(t time.Time) (first, last time.Time) {
	y, m, _ := t.Date()
	first = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned for text that is not a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// Date is a civil calendar date with no time-of-day and no location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// FromTime returns the calendar fields of t as seen in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse accepts YYYY-MM-DD. An RFC 3339 timestamp is also accepted and
// truncated to its own calendar day, so a bound such as
// 2024-06-15T23:59:59+05:30 still means June 15.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the zero-padded YYYY-MM-DD form from d's own fields.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// Valid reports whether d names a real day.
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= MonthOf(d).Days()
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Day - o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// AddDays moves d by n days across month and year boundaries.
func (d Date) AddDays(n int) Date {
	return FromTime(d.time().AddDate(0, 0, n))
}

// Weekday of d.
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// Month identifies a visible month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(d Date) Month { return Month{Year: d.Year, Month: d.Month} }

// Add shifts m by delta months.
func (m Month) Add(delta int) Month {
	t := time.Date(m.Year, m.Month, 1, 12, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Days in m.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday is the weekday of the 1st.
func (m Month) FirstWeekday() time.Weekday {
	return time.Date(m.Year, m.Month, 1, 12, 0, 0, 0, time.UTC).Weekday()
}

// Date returns the given day of m. ok is false when day is outside the month.
func (m Month) Date(day int) (Date, bool) {
	if day < 1 || day > m.Days() {
		return Date{}, false
	}
	return Date{Year: m.Year, Month: m.Month, Day: day}, true
}

func (m Month) String() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

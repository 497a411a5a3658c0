package reminder

import (
	"fmt"
	"time"
)

// Date is a calendar day in the bot's location. The zero value means "unset".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in tz.
func DateOf(t time.Time, tz *time.Location) Date {
	y, m, d := t.In(tz).Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses the YYYY-MM-DD form produced by String.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// After reports whether d is a later calendar day than o.
func (d Date) After(o Date) bool { return o.Before(d) }

// Midnight returns the first instant of d in tz. On days where midnight is
// skipped by a DST change Go normalises to the first valid instant.
func (d Date) Midnight(tz *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, tz)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC), time.UTC)
}

// LastDayOfMonth returns the day number of the last day of d's month.
func (d Date) LastDayOfMonth() int {
	return time.Date(d.Year, d.Month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// DaysUntilMonthEnd is 0 on the last day of the month.
func (d Date) DaysUntilMonthEnd() int {
	return d.LastDayOfMonth() - d.Day
}

// MonthKey returns the rent month d belongs to.
func (d Date) MonthKey() MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

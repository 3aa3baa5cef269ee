// Package civil provides a calendar date type with no time-of-day and no
// location. Itinerary dates are days on a wall calendar, not instants, so two
// machines in different time zones must agree on every comparison and every
// range this package produces.
package civil

import (
	"encoding/json"
	"fmt"
	"time"
)

// layout is the ISO 8601 calendar date format used on the wire and in the database.
const layout = "2006-01-02"

// Date is a year/month/day triple. The zero value is not a valid calendar
// date; use IsZero to detect it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the normalized date for the given components, so New(2026, 1, 32)
// is 2026-02-01.
func New(year int, month time.Month, day int) Date {
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Of returns the calendar date of t as seen in t's own location.
// A pgtype.Date or a time parsed from "2006-01-02" is always UTC, so the
// result matches the stored date exactly.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse parses a "2006-01-02" string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("civil.Parse: %w", err)
	}
	return Of(t), nil
}

// MustParse is Parse for literals in tests and tables. It panics on bad input.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String returns the date as "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns midnight UTC on d. Never convert the result to local time.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Of(d.Time().AddDate(0, 0, n))
}

// DaysSince returns the number of calendar days from s to d (negative if d is before s).
func (d Date) DaysSince(s Date) int {
	// Both operands are UTC midnights, so the difference is an exact multiple of 24h.
	return int(d.Time().Sub(s.Time()).Hours() / 24)
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
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
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// Within reports whether d lies in the inclusive range [start, end].
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

// Range returns every date in the inclusive range [start, end] in ascending
// order. An inverted range yields an empty, non-nil slice.
func Range(start, end Date) []Date {
	n := end.DaysSince(start) + 1
	if n <= 0 {
		return []Date{}
	}
	out := make([]Date, n)
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}

// Nights returns the half-open range [start, end): every night slept between
// arriving on start and leaving on end.
func Nights(start, end Date) []Date {
	if !start.Before(end) {
		return []Date{}
	}
	return Range(start, end.AddDays(-1))
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes d as a "2006-01-02" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "2006-01-02" JSON string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("civil.Date: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

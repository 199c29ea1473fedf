package costing

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date
// =============================================================================

// Date is a calendar date normalized to UTC midnight. All Dates are built
// through the constructors below, which makes the zero-location invariant
// hold and lets Date act as a map key.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// DateOf truncates any time.Time to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Comparison
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }
func (d Date) IsZero() bool       { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time.AddDate(0, 0, n)) }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is an inclusive [Start, End] range.
type DateRange struct {
	Start Date
	End   Date
}

func (r DateRange) Valid() bool { return !r.End.Before(r.Start) }

// Contains reports whether d falls inside the range, inclusive on both ends.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string { return r.Start.String() + ".." + r.End.String() }

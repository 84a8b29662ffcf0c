package ring

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used by the API and CSV exports.
const DateLayout = "2006-01-02"

// Unit is the length of a date window.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

// ParseUnit accepts day, week, month or year in any case.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return u, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

// ParseDate parses a YYYY-MM-DD date, or an RFC3339 timestamp truncated to its day.
// The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(ts), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Day returns the calendar day of t as midnight UTC, keeping t's wall-clock date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window is a half-open date interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
	Unit  Unit
}

// Resolve returns the window that starts on start and spans exactly one unit.
func Resolve(start time.Time, unit Unit) (Window, error) {
	if _, err := ParseUnit(string(unit)); err != nil {
		return Window{}, err
	}
	start = Day(start)
	return Window{Start: start, End: add(start, unit, 1), Unit: unit}, nil
}

// ResolveString parses both arguments and resolves the window.
func ResolveString(start, unit string) (Window, error) {
	d, err := ParseDate(start)
	if err != nil {
		return Window{}, err
	}
	u, err := ParseUnit(unit)
	if err != nil {
		return Window{}, err
	}
	return Resolve(d, u)
}

// ResolveTrailing returns the window that reaches back one unit from anchor and
// includes anchor itself: [anchor - 1 unit, anchor + 1 day).
func ResolveTrailing(anchor time.Time, unit Unit) (Window, error) {
	if _, err := ParseUnit(string(unit)); err != nil {
		return Window{}, err
	}
	anchor = Day(anchor)
	return Window{Start: add(anchor, unit, -1), End: anchor.AddDate(0, 0, 1), Unit: unit}, nil
}

// NewWindow builds an explicit window. end is exclusive and must be after start.
func NewWindow(start, end time.Time) (Window, error) {
	start, end = Day(start), Day(end)
	if !end.After(start) {
		return Window{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidDate, end.Format(DateLayout), start.Format(DateLayout))
	}
	return Window{Start: start, End: end}, nil
}

// Next returns the window immediately following w.
func (w Window) Next() Window {
	if w.Unit == "" {
		span := w.End.Sub(w.Start)
		return Window{Start: w.End, End: w.End.Add(span)}
	}
	return Window{Start: w.End, End: add(w.End, w.Unit, 1), Unit: w.Unit}
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(DateLayout), w.End.Format(DateLayout))
}

func add(d time.Time, unit Unit, n int) time.Time {
	switch unit {
	case UnitDay:
		return d.AddDate(0, 0, n)
	case UnitWeek:
		return d.AddDate(0, 0, 7*n)
	case UnitMonth:
		return addMonths(d, n)
	case UnitYear:
		return addMonths(d, 12*n)
	}
	return d
}

// addMonths clamps the day to the end of the target month instead of letting
// time.AddDate roll Jan 31 over into March.
func addMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

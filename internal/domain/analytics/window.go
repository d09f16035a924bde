// Package analytics holds the pure aggregation functions that turn a set of
// rating records into the family dashboard views.  Nothing in this package
// performs I/O; every result is a function of its inputs and is never
// persisted.
package analytics

import (
	"strings"
	"time"
)

// Range is a symbolic reporting period.
type Range string

const (
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
	RangeYear    Range = "year"
)

// DefaultRange is used for unrecognised tokens.
const DefaultRange = RangeMonth

// ParseRange maps a token to a Range.  Unknown or empty tokens silently fall
// back to DefaultRange.
func ParseRange(token string) Range {
	switch Range(strings.ToLower(strings.TrimSpace(token))) {
	case RangeWeek:
		return RangeWeek
	case RangeMonth:
		return RangeMonth
	case RangeQuarter:
		return RangeQuarter
	case RangeYear:
		return RangeYear
	default:
		return DefaultRange
	}
}

// IsKnownRange reports whether token names a Range without falling back.
func IsKnownRange(token string) bool {
	switch Range(strings.ToLower(strings.TrimSpace(token))) {
	case RangeWeek, RangeMonth, RangeQuarter, RangeYear:
		return true
	}
	return false
}

// shift moves t back by one period of r using calendar arithmetic.
func (r Range) shift(t time.Time) time.Time {
	switch r {
	case RangeWeek:
		return t.AddDate(0, 0, -7)
	case RangeQuarter:
		return t.AddDate(0, -3, 0)
	case RangeYear:
		return t.AddDate(-1, 0, 0)
	default:
		return t.AddDate(0, -1, 0)
	}
}

// Window is a concrete [Start, End) interval produced from a Range.
type Window struct {
	Range Range     `json:"range"`
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// ResolveWindow converts token into a window ending at now and starting one
// calendar period earlier.  now is used as given, in its own location.
func ResolveWindow(token string, now time.Time) Window {
	r := ParseRange(token)
	return Window{Range: r, Start: r.shift(now), End: now}
}

// Previous returns the window of the same range immediately preceding w.
func (w Window) Previous() Window {
	return Window{Range: w.Range, Start: w.Range.shift(w.Start), End: w.Start}
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartISO returns Start formatted as RFC 3339 with millisecond precision.
func (w Window) StartISO() string { return w.Start.Format(isoLayout) }

// EndISO returns End formatted as RFC 3339 with millisecond precision.
func (w Window) EndISO() string { return w.End.Format(isoLayout) }

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

//Personal.AI order the ending

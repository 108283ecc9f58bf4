package comp

import (
	"fmt"
	"time"
)

// =============================================================================
// EVALUATION PERIOD - Calendar bucketing for sustained-performance review
// =============================================================================

// Granularity selects the fixed-length calendar bucket used by the
// performance engine to group shifts.
type Granularity string

const (
	GranularityMonth   Granularity = "month"   // calendar month
	GranularityQuarter Granularity = "quarter" // calendar quarter (Jan-Mar, ...)
	GranularityYear    Granularity = "year"    // calendar year
)

// Valid reports whether the granularity is one of the supported calendar
// buckets.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityMonth, GranularityQuarter, GranularityYear:
		return true
	}
	return false
}

// Period identifies one evaluation bucket on the calendar. It is a
// comparable value and is used directly as a grouping key.
//
// Index is the month (1-12) for monthly periods, the quarter (1-4) for
// quarterly periods, and 0 for yearly periods.
type Period struct {
	Granularity Granularity
	Year        int
	Index       int
}

// PeriodOf returns the period containing the given instant.
func (g Granularity) PeriodOf(t time.Time) Period {
	t = t.UTC()
	switch g {
	case GranularityQuarter:
		return Period{Granularity: g, Year: t.Year(), Index: (int(t.Month())-1)/3 + 1}
	case GranularityYear:
		return Period{Granularity: g, Year: t.Year()}
	default:
		return Period{Granularity: GranularityMonth, Year: t.Year(), Index: int(t.Month())}
	}
}

// Start returns the first instant of the period (midnight UTC).
func (p Period) Start() time.Time {
	switch p.Granularity {
	case GranularityQuarter:
		return time.Date(p.Year, time.Month((p.Index-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	case GranularityYear:
		return time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(p.Year, time.Month(p.Index), 1, 0, 0, 0, 0, time.UTC)
	}
}

// End returns the first instant of the following period, so a period
// covers [Start, End).
func (p Period) End() time.Time {
	switch p.Granularity {
	case GranularityQuarter:
		return p.Start().AddDate(0, 3, 0)
	case GranularityYear:
		return p.Start().AddDate(1, 0, 0)
	default:
		return p.Start().AddDate(0, 1, 0)
	}
}

// Before orders periods of the same granularity chronologically.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Index < other.Index
}

func (p Period) String() string {
	switch p.Granularity {
	case GranularityQuarter:
		return fmt.Sprintf("%dQ%d", p.Year, p.Index)
	case GranularityYear:
		return fmt.Sprintf("%d", p.Year)
	default:
		return fmt.Sprintf("%d-%02d", p.Year, p.Index)
	}
}

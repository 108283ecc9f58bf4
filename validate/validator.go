/*
Package validate implements shift-record integrity checks.

PURPOSE:
  Independently audits the same shift records the compensation pipeline
  consumes, plus the externally sourced schedule, and produces a
  structured issue list. Issues are findings, not errors: they are
  collected and returned, never raised, and they do not feed back into
  pay calculation.

CHECKS (run in this order, outputs concatenated, no deduplication):
  1. Time validity     - start not on a whole-hour boundary; duration
                         below the minimum XOR above the maximum
  2. Overlap           - per physician, consecutive shifts where the
                         earlier end is strictly after the later start
  3. Early start       - a before-threshold start with no immediately
                         preceding shift ending on the same calendar date
  4. Schedule mismatch - actual vs. scheduled shifts outer-joined on
                         (date, physician): missing, unscheduled, and
                         start/end time discrepancies

A shift may legitimately collect several issues of different types.
Overlap and early-start checks run on the actual side only; scheduled
entries are examined only by the mismatch check.

SEE ALSO:
  - comp/types.go: Shift and ScheduledShift inputs
*/
package validate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medshift/comp-engine/comp"
)

// =============================================================================
// ISSUES
// =============================================================================

type IssueType string

const (
	NonHourlyStart     IssueType = "non_hourly_start"
	ShortShift         IssueType = "short_shift"
	LongShift          IssueType = "long_shift"
	OverlappingShift   IssueType = "overlapping_shift"
	EarlyStart         IssueType = "early_start"
	MissingActualShift IssueType = "missing_actual_shift"
	UnscheduledShift   IssueType = "unscheduled_shift"
	StartTimeMismatch  IssueType = "start_time_mismatch"
	EndTimeMismatch    IssueType = "end_time_mismatch"
)

// Issue is one detected anomaly. ShiftID is empty when the issue
// references a schedule entry with no actual counterpart.
type Issue struct {
	ShiftID     comp.ShiftID `json:"shift_id,omitempty"`
	Type        IssueType    `json:"issue_type"`
	Description string       `json:"description"`
}

// =============================================================================
// VALIDATOR
// =============================================================================

// TimeOfDay is a wall-clock threshold (e.g. 05:00) independent of date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Config holds the validator's tunable rules.
type Config struct {
	MinShiftHours       decimal.Decimal
	MaxShiftHours       decimal.Decimal
	EarlyStartThreshold TimeOfDay
}

// Validator runs the integrity checks. Construct with New; the zero
// value is not usable.
type Validator struct {
	cfg Config
}

// New validates the configuration and returns a validator.
func New(cfg Config) (*Validator, error) {
	if cfg.MinShiftHours.IsNegative() {
		return nil, &comp.ConfigurationError{Parameter: "min_shift_hours", Reason: "must not be negative"}
	}
	if !cfg.MaxShiftHours.GreaterThan(cfg.MinShiftHours) {
		return nil, &comp.ConfigurationError{Parameter: "max_shift_hours", Reason: "must exceed min_shift_hours"}
	}
	if cfg.EarlyStartThreshold.Hour < 0 || cfg.EarlyStartThreshold.Hour > 23 ||
		cfg.EarlyStartThreshold.Minute < 0 || cfg.EarlyStartThreshold.Minute > 59 {
		return nil, &comp.ConfigurationError{Parameter: "early_start_threshold", Reason: "not a valid time of day"}
	}
	return &Validator{cfg: cfg}, nil
}

// ValidateAll runs every check and concatenates the results in check
// order: time validity, overlap, early start, schedule mismatch.
func (v *Validator) ValidateAll(actual []comp.Shift, scheduled []comp.ScheduledShift) []Issue {
	var issues []Issue
	issues = append(issues, v.ValidateShiftTimes(actual)...)
	issues = append(issues, v.CheckOverlappingShifts(actual)...)
	issues = append(issues, v.ValidateEarlyStarts(actual)...)
	issues = append(issues, v.ValidateAgainstSchedule(actual, scheduled)...)
	return issues
}

// =============================================================================
// CHECK 1: TIME VALIDITY
// =============================================================================

// ValidateShiftTimes flags shifts starting off the hour and shifts whose
// duration falls below the minimum or above the maximum. Short and long
// are mutually exclusive for one shift.
func (v *Validator) ValidateShiftTimes(shifts []comp.Shift) []Issue {
	var issues []Issue
	for _, s := range shifts {
		if s.Start.Minute() != 0 {
			issues = append(issues, Issue{
				ShiftID: s.ID,
				Type:    NonHourlyStart,
				Description: fmt.Sprintf("Shift starts at %s instead of on the hour",
					s.Start.Format("15:04")),
			})
		}

		hours := s.Hours()
		switch {
		case hours.LessThan(v.cfg.MinShiftHours):
			issues = append(issues, Issue{
				ShiftID: s.ID,
				Type:    ShortShift,
				Description: fmt.Sprintf("Shift duration (%s hours) is below minimum (%s hours)",
					hours.StringFixed(1), v.cfg.MinShiftHours.StringFixed(1)),
			})
		case hours.GreaterThan(v.cfg.MaxShiftHours):
			issues = append(issues, Issue{
				ShiftID: s.ID,
				Type:    LongShift,
				Description: fmt.Sprintf("Shift duration (%s hours) exceeds maximum (%s hours)",
					hours.StringFixed(1), v.cfg.MaxShiftHours.StringFixed(1)),
			})
		}
	}
	return issues
}

// =============================================================================
// CHECK 2: OVERLAP
// =============================================================================

// CheckOverlappingShifts flags, per physician, every shift whose start
// falls strictly before the previous shift's end. A shift ending exactly
// when the next begins is not an overlap.
func (v *Validator) CheckOverlappingShifts(shifts []comp.Shift) []Issue {
	var issues []Issue
	for _, seq := range byPhysician(shifts) {
		for i := 0; i+1 < len(seq); i++ {
			current, next := seq[i], seq[i+1]
			if current.End.After(next.Start) {
				issues = append(issues, Issue{
					ShiftID: next.ID,
					Type:    OverlappingShift,
					Description: fmt.Sprintf("Shift overlaps with previous shift (ends at %s)",
						current.End.Format("2006-01-02 15:04")),
				})
			}
		}
	}
	return issues
}

// =============================================================================
// CHECK 3: EARLY START
// =============================================================================

// ValidateEarlyStarts flags shifts starting before the early-start
// threshold with no immediately preceding shift ending on the same
// calendar date. The first shift of a physician's sorted sequence never
// has a protecting predecessor.
func (v *Validator) ValidateEarlyStarts(shifts []comp.Shift) []Issue {
	var issues []Issue
	for _, seq := range byPhysician(shifts) {
		for i, s := range seq {
			startOfDay := s.Start.Hour()*60 + s.Start.Minute()
			if startOfDay >= v.cfg.EarlyStartThreshold.minutes() {
				continue
			}
			if i == 0 || !sameDate(seq[i-1].End, s.Start) {
				issues = append(issues, Issue{
					ShiftID: s.ID,
					Type:    EarlyStart,
					Description: fmt.Sprintf("Shift starts at %s without a preceding shift",
						s.Start.Format("15:04")),
				})
			}
		}
	}
	return issues
}

// =============================================================================
// CHECK 4: SCHEDULE MISMATCH
// =============================================================================

// scheduleKey joins actual and scheduled shifts.
type scheduleKey struct {
	Date        time.Time
	PhysicianID comp.PhysicianID
}

// ValidateAgainstSchedule outer-joins actual shifts against the external
// schedule on (date, physician). Schedule entries with no actual
// counterpart, actual shifts with no schedule counterpart, and start/end
// time discrepancies each produce their own issue row; a pair with both
// times wrong produces two rows.
//
// When a (date, physician) key carries several shifts on both sides,
// the sides are paired in start-time order and leftovers flagged as
// missing or unscheduled.
func (v *Validator) ValidateAgainstSchedule(actual []comp.Shift, scheduled []comp.ScheduledShift) []Issue {
	actualByKey := make(map[scheduleKey][]comp.Shift)
	scheduledByKey := make(map[scheduleKey][]comp.ScheduledShift)
	var keys []scheduleKey
	seen := make(map[scheduleKey]struct{})

	addKey := func(k scheduleKey) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, s := range actual {
		k := scheduleKey{s.Date(), s.PhysicianID}
		actualByKey[k] = append(actualByKey[k], s)
		addKey(k)
	}
	for _, s := range scheduled {
		k := scheduleKey{dateOf(s.Date), s.PhysicianID}
		scheduledByKey[k] = append(scheduledByKey[k], s)
		addKey(k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Date.Equal(keys[j].Date) {
			return keys[i].Date.Before(keys[j].Date)
		}
		return keys[i].PhysicianID < keys[j].PhysicianID
	})

	var issues []Issue
	for _, k := range keys {
		acts := actualByKey[k]
		scheds := scheduledByKey[k]
		sort.Slice(acts, func(i, j int) bool { return acts[i].Start.Before(acts[j].Start) })
		sort.Slice(scheds, func(i, j int) bool { return scheds[i].Start.Before(scheds[j].Start) })

		n := len(acts)
		if len(scheds) < n {
			n = len(scheds)
		}

		for i := 0; i < n; i++ {
			issues = append(issues, comparePair(acts[i], scheds[i])...)
		}
		for _, s := range scheds[n:] {
			issues = append(issues, Issue{
				Type: MissingActualShift,
				Description: fmt.Sprintf("Scheduled shift for physician %s on %s has no corresponding actual shift",
					s.PhysicianID, dateOf(s.Date).Format("2006-01-02")),
			})
		}
		for _, a := range acts[n:] {
			issues = append(issues, Issue{
				ShiftID:     a.ID,
				Type:        UnscheduledShift,
				Description: "Actual shift was not scheduled in Amion",
			})
		}
	}
	return issues
}

func comparePair(a comp.Shift, s comp.ScheduledShift) []Issue {
	var issues []Issue
	if !a.Start.Equal(s.Start) {
		issues = append(issues, Issue{
			ShiftID: a.ID,
			Type:    StartTimeMismatch,
			Description: fmt.Sprintf("Actual start time (%s) differs from scheduled (%s)",
				a.Start.Format("15:04"), s.Start.Format("15:04")),
		})
	}
	if !a.End.Equal(s.End) {
		issues = append(issues, Issue{
			ShiftID: a.ID,
			Type:    EndTimeMismatch,
			Description: fmt.Sprintf("Actual end time (%s) differs from scheduled (%s)",
				a.End.Format("15:04"), s.End.Format("15:04")),
		})
	}
	return issues
}

// =============================================================================
// HELPERS
// =============================================================================

// byPhysician groups shifts by physician and sorts each sequence by
// start time (end time, then id, break ties for determinism). Physician
// order is sorted as well.
func byPhysician(shifts []comp.Shift) [][]comp.Shift {
	grouped := make(map[comp.PhysicianID][]comp.Shift)
	var ids []comp.PhysicianID
	for _, s := range shifts {
		if _, ok := grouped[s.PhysicianID]; !ok {
			ids = append(ids, s.PhysicianID)
		}
		grouped[s.PhysicianID] = append(grouped[s.PhysicianID], s)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([][]comp.Shift, 0, len(ids))
	for _, id := range ids {
		seq := grouped[id]
		sort.Slice(seq, func(i, j int) bool {
			if !seq[i].Start.Equal(seq[j].Start) {
				return seq[i].Start.Before(seq[j].Start)
			}
			if !seq[i].End.Equal(seq[j].End) {
				return seq[i].End.Before(seq[j].End)
			}
			return seq[i].ID < seq[j].ID
		})
		out = append(out, seq)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

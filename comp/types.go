/*
Package comp implements the compensation engines for the ED physician
compensation system.

PURPOSE:
  Computes payroll-ready compensation from worked shifts and billing
  (wRVU) records. The package is a pure in-memory computation layer:
  shift records and billing records go in, per-shift pay, per-period
  performance summaries, and a physician-level compensation report
  come out. No I/O, no persistence, no logging.

PIPELINE:
  Shift Pay     -> base pay + shift-type differential per shift
  Productivity  -> shifts left-joined to billing, per-shift wRVU rate,
                   productivity percentage, tiered productivity bonus
  Performance   -> per (physician, evaluation period) mean productivity
                   and sustained-performance bonus
  Report        -> date-windowed one-row-per-physician summary

KEY CONCEPTS IN THIS FILE (types.go):
  - Shift: one worked interval for one physician (immutable input)
  - BillingRecord: aggregated wRVUs keyed by (shift, physician)
  - ScheduledShift: the external roster's expected shift
  - ShiftPay / ShiftProductivity / PeriodSummary / ReportRow: derived rows

DESIGN PRINCIPLES:
  1. Precision: all pay and ratio arithmetic uses decimal.Decimal
  2. Immutability: inputs are consumed read-only; outputs are snapshots
  3. Determinism: identical inputs always yield identical outputs
  4. Errors are errors, validation findings are data (see validate package)

SEE ALSO:
  - errors.go: Error taxonomy (malformed input, join ambiguity, ...)
  - period.go: Evaluation-period calendar bucketing
  - calculator.go: Engine construction and configuration
*/
package comp

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ShiftID string
type PhysicianID string

// ShiftType tags a shift for differential pay (e.g. "night", "weekend",
// "holiday"). The empty string means a regular shift with no differential.
// The set is open: any tag absent from the differential table simply earns
// no differential.
type ShiftType string

// =============================================================================
// INPUT RECORDS
// =============================================================================

// Shift is one worked interval for one physician, as recorded by
// timekeeping. Immutable once loaded into the pipeline.
type Shift struct {
	ID          ShiftID
	PhysicianID PhysicianID
	Start       time.Time
	End         time.Time
	Type        ShiftType
}

// Hours returns the exact elapsed duration in hours as a decimal
// (seconds / 3600, no rounding). Fractional hours are preserved exactly
// for any whole-second shift length.
func (s Shift) Hours() decimal.Decimal {
	seconds := s.End.Sub(s.Start) / time.Second
	return decimal.NewFromInt(int64(seconds)).Div(decimal.NewFromInt(3600))
}

// Date returns the calendar date of the shift start (midnight UTC).
func (s Shift) Date() time.Time {
	y, m, d := s.Start.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate reports whether the shift is well-formed enough to enter the
// pipeline. A malformed shift fails the record; it is never silently
// defaulted.
func (s Shift) Validate() error {
	switch {
	case s.ID == "":
		return &MalformedShiftError{ShiftID: s.ID, Field: "shift_id", Reason: "missing shift identifier"}
	case s.PhysicianID == "":
		return &MalformedShiftError{ShiftID: s.ID, Field: "physician_id", Reason: "missing physician identifier"}
	case s.Start.IsZero():
		return &MalformedShiftError{ShiftID: s.ID, Field: "start_time", Reason: "missing or unparseable start time"}
	case s.End.IsZero():
		return &MalformedShiftError{ShiftID: s.ID, Field: "end_time", Reason: "missing or unparseable end time"}
	case !s.End.After(s.Start):
		return &MalformedShiftError{ShiftID: s.ID, Field: "end_time", Reason: "end time is not after start time"}
	}
	return nil
}

// BillingRecord is the aggregated wRVU total billed against one shift.
// Billing rows join to shifts one-to-one on (ShiftID, PhysicianID).
type BillingRecord struct {
	ShiftID     ShiftID
	PhysicianID PhysicianID
	WRVU        decimal.Decimal
}

// ScheduledShift is the third-party roster's expected shift for a
// physician on a date. It may have no corresponding actual Shift, and
// vice versa.
type ScheduledShift struct {
	Date        time.Time // calendar date, midnight UTC
	PhysicianID PhysicianID
	Start       time.Time
	End         time.Time
	Type        ShiftType
}

// =============================================================================
// DERIVED ROWS
// =============================================================================

// ShiftPay is the base and differential pay computed for one shift.
type ShiftPay struct {
	ShiftID         ShiftID
	BasePay         decimal.Decimal
	DifferentialPay decimal.Decimal
	TotalPay        decimal.Decimal
}

// ShiftProductivity is one row of the productivity engine's output:
// the shift's pay joined with its billing and productivity metrics.
//
// HasBilling is false when the left join found no billing row for the
// shift. Such rows carry zero wRVU, have no defined productivity
// percentage, earn no productivity bonus, and are excluded from
// period-level productivity means.
type ShiftProductivity struct {
	ShiftID     ShiftID
	PhysicianID PhysicianID
	Start       time.Time
	Hours       decimal.Decimal

	HasBilling      bool
	WRVU            decimal.Decimal
	WRVUsPerHour    decimal.Decimal
	ProductivityPct decimal.Decimal

	BasePay           decimal.Decimal
	DifferentialPay   decimal.Decimal
	TotalPay          decimal.Decimal
	ProductivityBonus decimal.Decimal
}

// PeriodSummary is one row of the performance engine's output: one
// (physician, evaluation period) group.
//
// MeanDefined is false when no shift in the group carried billing, in
// which case the mean productivity is undefined and no performance
// bonus is earned.
type PeriodSummary struct {
	PhysicianID PhysicianID
	Period      Period

	MeanDefined      bool
	MeanProductivity decimal.Decimal
	TotalPay         decimal.Decimal
	PerformanceBonus decimal.Decimal
}

// ReportRow is one physician's line in the period-bounded compensation
// report.
//
// AvgDefined is false when the physician's summed shift hours are zero;
// the average wRVU rate is then undefined and must not be read.
type ReportRow struct {
	PhysicianID       PhysicianID
	TotalPay          decimal.Decimal
	ProductivityBonus decimal.Decimal
	PerformanceBonus  decimal.Decimal
	TotalCompensation decimal.Decimal
	ShiftHours        decimal.Decimal
	WRVU              decimal.Decimal

	AvgDefined      bool
	AvgWRVUsPerHour decimal.Decimal
}

// RunResult bundles the outputs of one full pipeline run over one input
// snapshot. Recomputed from scratch on every run; never persisted by
// this package.
type RunResult struct {
	Productivity []ShiftProductivity
	Performance  []PeriodSummary
}

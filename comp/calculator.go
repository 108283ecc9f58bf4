/*
calculator.go - Engine construction and the shift pay engine

PURPOSE:
  Defines the compensation plan (rates, differentials, targets,
  thresholds), validates it once at construction, and implements the
  first pipeline stage: base + differential pay per shift.

PLAN PARAMETERS:
  BaseRate:             hourly rate applied to every worked hour
  ShiftDifferentials:   per-hour supplement by shift-type tag; a tag
                        absent from the table earns no differential
  WRVUTarget:           target wRVUs per hour (productivity denominator)
  PerformanceThreshold: mean productivity percentage required for the
                        sustained-performance bonus
  EvaluationPeriod:     calendar bucket for performance grouping

BONUS TIERS (fixed by the compensation agreement):
  Productivity, per shift, additive:
    >= 100% of target -> +10% of total pay
    >= 120% of target -> a further +5% of total pay
  Performance, per (physician, period), single tier:
    mean >= threshold -> +15% of the period's summed total pay

FAIL FAST:
  NewCalculator rejects non-positive rates and targets, negative
  differentials and thresholds, and unknown granularities. Nothing is
  validated lazily at first use.

SEE ALSO:
  - productivity.go: Second stage (join + metrics + tiered bonus)
  - performance.go: Third stage (period grouping + sustained bonus)
  - report.go: Final stage (windowed physician report)
*/
package comp

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// BONUS RULE CONSTANTS
// =============================================================================

var (
	productivityTier1Pct = decimal.NewFromInt(100) // percentage floor for +10%
	productivityTier2Pct = decimal.NewFromInt(120) // percentage floor for extra +5%

	productivityTier1Rate = decimal.NewFromFloat(0.10)
	productivityTier2Rate = decimal.NewFromFloat(0.05)
	performanceBonusRate  = decimal.NewFromFloat(0.15)

	hundred = decimal.NewFromInt(100)
)

// =============================================================================
// COMPENSATION PLAN
// =============================================================================

// Plan holds the compensation parameters supplied at construction.
type Plan struct {
	BaseRate             decimal.Decimal
	ShiftDifferentials   map[ShiftType]decimal.Decimal
	WRVUTarget           decimal.Decimal
	PerformanceThreshold decimal.Decimal
	EvaluationPeriod     Granularity
}

// Validate checks the plan parameters. Returns a *ConfigurationError on
// the first violation.
func (p Plan) Validate() error {
	if !p.BaseRate.IsPositive() {
		return &ConfigurationError{Parameter: "base_rate", Reason: "must be positive"}
	}
	if !p.WRVUTarget.IsPositive() {
		return &ConfigurationError{Parameter: "wrvu_target", Reason: "must be positive"}
	}
	if p.PerformanceThreshold.IsNegative() {
		return &ConfigurationError{Parameter: "performance_threshold", Reason: "must not be negative"}
	}
	for tag, rate := range p.ShiftDifferentials {
		if rate.IsNegative() {
			return &ConfigurationError{
				Parameter: "shift_differentials." + string(tag),
				Reason:    "must not be negative",
			}
		}
	}
	if !p.EvaluationPeriod.Valid() {
		return &ConfigurationError{Parameter: "evaluation_period", Reason: "unknown granularity"}
	}
	return nil
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator runs the compensation pipeline for one plan. It holds no
// mutable state: every run is a pure function of its inputs.
type Calculator struct {
	plan Plan
}

// NewCalculator validates the plan and returns a calculator. An empty
// differential table is valid (no shift earns a differential).
func NewCalculator(plan Plan) (*Calculator, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if plan.ShiftDifferentials == nil {
		plan.ShiftDifferentials = map[ShiftType]decimal.Decimal{}
	}
	return &Calculator{plan: plan}, nil
}

// Plan returns the plan the calculator was constructed with.
func (c *Calculator) Plan() Plan { return c.plan }

// =============================================================================
// SHIFT PAY ENGINE
// =============================================================================

// ShiftPay computes base and differential pay for a single shift.
//
//	base pay         = duration_hours * base_rate
//	differential pay = duration_hours * differential_rate (0 if the
//	                   shift's type is absent from the table)
//	total pay        = base + differential
//
// Duration is the exact elapsed time between end and start; fractional
// hours are preserved. A shift with missing timestamps or end <= start
// fails with a *MalformedShiftError.
func (c *Calculator) ShiftPay(s Shift) (ShiftPay, error) {
	if err := s.Validate(); err != nil {
		return ShiftPay{}, err
	}

	hours := s.Hours()
	base := hours.Mul(c.plan.BaseRate)

	differential := decimal.Zero
	if rate, ok := c.plan.ShiftDifferentials[s.Type]; ok {
		differential = hours.Mul(rate)
	}

	return ShiftPay{
		ShiftID:         s.ID,
		BasePay:         base,
		DifferentialPay: differential,
		TotalPay:        base.Add(differential),
	}, nil
}

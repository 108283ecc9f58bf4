/*
productivity.go - Productivity engine: join, per-shift metrics, tiered bonus

PURPOSE:
  Second pipeline stage. Left-joins shifts to aggregated billing on
  (shift_id, physician_id), computes per-shift productivity, and applies
  the additive two-tier productivity bonus.

JOIN SEMANTICS:
  Left join: every shift produces exactly one output row. A shift with
  no billing row keeps HasBilling=false and earns no productivity bonus.
  Duplicate keys on either side are a one-to-one violation and abort the
  stage with a JoinAmbiguityError - the join is never fanned out.

METRICS:
  wrvus_per_hour          = wrvu / shift_hours
  productivity_percentage = wrvus_per_hour / wrvu_target * 100

  A non-positive shift duration makes the division undefined. The stage
  fails for that row with a DivisionUndefinedError instead of producing
  NaN or infinity.

SEE ALSO:
  - calculator.go: Shift pay joined into each row
  - performance.go: Consumes these rows
*/
package comp

import (
	"github.com/shopspring/decimal"
)

// billingKey is the composite join key between shifts and billing.
type billingKey struct {
	ShiftID     ShiftID
	PhysicianID PhysicianID
}

// Productivity left-joins shifts to billing and returns one row per
// shift carrying pay, wRVU metrics, and the productivity bonus. Rows
// are returned in input shift order.
func (c *Calculator) Productivity(shifts []Shift, billing []BillingRecord) ([]ShiftProductivity, error) {
	byKey := make(map[billingKey]BillingRecord, len(billing))
	for _, b := range billing {
		key := billingKey{b.ShiftID, b.PhysicianID}
		if _, dup := byKey[key]; dup {
			return nil, &JoinAmbiguityError{Relation: "billing", ShiftID: b.ShiftID, PhysicianID: b.PhysicianID}
		}
		byKey[key] = b
	}

	seen := make(map[billingKey]struct{}, len(shifts))
	rows := make([]ShiftProductivity, 0, len(shifts))
	for _, s := range shifts {
		pay, err := c.ShiftPay(s)
		if err != nil {
			return nil, err
		}

		key := billingKey{s.ID, s.PhysicianID}
		if _, dup := seen[key]; dup {
			return nil, &JoinAmbiguityError{Relation: "shift", ShiftID: s.ID, PhysicianID: s.PhysicianID}
		}
		seen[key] = struct{}{}

		hours := s.Hours()
		if !hours.IsPositive() {
			return nil, &DivisionUndefinedError{ShiftID: s.ID, PhysicianID: s.PhysicianID, Denominator: "shift_hours"}
		}

		row := ShiftProductivity{
			ShiftID:         s.ID,
			PhysicianID:     s.PhysicianID,
			Start:           s.Start,
			Hours:           hours,
			BasePay:         pay.BasePay,
			DifferentialPay: pay.DifferentialPay,
			TotalPay:        pay.TotalPay,
		}

		if b, ok := byKey[key]; ok {
			row.HasBilling = true
			row.WRVU = b.WRVU
			row.WRVUsPerHour = b.WRVU.Div(hours)
			row.ProductivityPct = row.WRVUsPerHour.Div(c.plan.WRVUTarget).Mul(hundred)
			row.ProductivityBonus = c.productivityBonus(row.ProductivityPct, row.TotalPay)
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// productivityBonus applies the additive tiers: 10% of total pay at or
// above 100% of target, a further 5% at or above 120%. Below 100% the
// bonus is zero.
func (c *Calculator) productivityBonus(pct, totalPay decimal.Decimal) decimal.Decimal {
	bonus := decimal.Zero
	if pct.GreaterThanOrEqual(productivityTier1Pct) {
		bonus = bonus.Add(totalPay.Mul(productivityTier1Rate))
	}
	if pct.GreaterThanOrEqual(productivityTier2Pct) {
		bonus = bonus.Add(totalPay.Mul(productivityTier2Rate))
	}
	return bonus
}

/*
performance.go - Performance engine: period grouping and sustained bonus

PURPOSE:
  Third pipeline stage. Buckets productivity rows into evaluation
  periods by shift start time, aggregates per (physician, period), and
  applies the single-tier sustained-performance bonus.

AGGREGATION:
  mean productivity = mean of ProductivityPct over rows WITH billing
  total pay         = sum of TotalPay over ALL rows in the group

  A group whose every shift lacks billing has an undefined mean
  (MeanDefined=false) and earns no bonus. The mean is never coerced
  to zero.

BONUS RULE (single tier, unlike the per-shift scheme):
  mean productivity >= performance threshold
    -> bonus = 15% of the group's summed total pay
  otherwise 0. There is no additional tier above the floor.

ORDERING:
  Output is sorted by physician, then by period, so identical inputs
  yield identical output.

SEE ALSO:
  - period.go: Granularity and Period
  - report.go: Joins these summaries into the physician report
*/
package comp

import (
	"sort"

	"github.com/shopspring/decimal"
)

type performanceKey struct {
	PhysicianID PhysicianID
	Period      Period
}

// Performance groups productivity rows by (physician, evaluation period)
// and returns one summary per group.
func (c *Calculator) Performance(rows []ShiftProductivity) []PeriodSummary {
	type group struct {
		pctSum   decimal.Decimal
		pctCount int64
		totalPay decimal.Decimal
	}

	groups := make(map[performanceKey]*group)
	var keys []performanceKey
	for _, row := range rows {
		key := performanceKey{row.PhysicianID, c.plan.EvaluationPeriod.PeriodOf(row.Start)}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			keys = append(keys, key)
		}
		g.totalPay = g.totalPay.Add(row.TotalPay)
		if row.HasBilling {
			g.pctSum = g.pctSum.Add(row.ProductivityPct)
			g.pctCount++
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PhysicianID != keys[j].PhysicianID {
			return keys[i].PhysicianID < keys[j].PhysicianID
		}
		return keys[i].Period.Before(keys[j].Period)
	})

	summaries := make([]PeriodSummary, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		s := PeriodSummary{
			PhysicianID: key.PhysicianID,
			Period:      key.Period,
			TotalPay:    g.totalPay,
		}
		if g.pctCount > 0 {
			s.MeanDefined = true
			s.MeanProductivity = g.pctSum.Div(decimal.NewFromInt(g.pctCount))
			if s.MeanProductivity.GreaterThanOrEqual(c.plan.PerformanceThreshold) {
				s.PerformanceBonus = g.totalPay.Mul(performanceBonusRate)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

/*
report.go - Compensation orchestrator and physician report

PURPOSE:
  Final pipeline stage. Run sequences the pay, productivity, and
  performance engines over one input snapshot; Report reduces a run's
  output to one row per physician over a caller-supplied date window.

WINDOW SEMANTICS:
  A shift row is in the window when its start timestamp falls within
  [start, end], inclusive on both ends. A period summary is in the
  window when the period's start falls within [start, end].

PERFORMANCE JOIN:
  The per-physician performance bonus is left-joined into the report by
  physician id. The join is one-to-one: a window is expected to cover at
  most one evaluation period per physician. A window spanning several
  periods for the same physician would silently fan the join out, so it
  aborts with a JoinAmbiguityError instead - callers report per
  evaluation window. A physician with shift rows but no period summary
  in the window earns a zero performance bonus.

SEE ALSO:
  - calculator.go, productivity.go, performance.go: The staged engines
*/
package comp

import (
	"sort"
	"time"
)

// Run executes the full computation over one snapshot of shifts and
// billing: shift pay, productivity metrics and bonus, then period
// performance. A failing stage aborts the run and surfaces the
// originating error.
func (c *Calculator) Run(shifts []Shift, billing []BillingRecord) (*RunResult, error) {
	rows, err := c.Productivity(shifts, billing)
	if err != nil {
		return nil, err
	}
	return &RunResult{
		Productivity: rows,
		Performance:  c.Performance(rows),
	}, nil
}

// Report produces the period-bounded compensation report for a run:
// one row per physician whose shifts start within [start, end], with
// summed pay, bonuses, hours, and wRVUs, plus the window's performance
// bonus and average wRVU rate.
func (c *Calculator) Report(result *RunResult, start, end time.Time) ([]ReportRow, error) {
	inWindow := func(t time.Time) bool {
		return !t.Before(start) && !t.After(end)
	}

	byPhysician := make(map[PhysicianID]*ReportRow)
	var order []PhysicianID
	for _, row := range result.Productivity {
		if !inWindow(row.Start) {
			continue
		}
		r, ok := byPhysician[row.PhysicianID]
		if !ok {
			r = &ReportRow{PhysicianID: row.PhysicianID}
			byPhysician[row.PhysicianID] = r
			order = append(order, row.PhysicianID)
		}
		r.TotalPay = r.TotalPay.Add(row.TotalPay)
		r.ProductivityBonus = r.ProductivityBonus.Add(row.ProductivityBonus)
		r.ShiftHours = r.ShiftHours.Add(row.Hours)
		if row.HasBilling {
			r.WRVU = r.WRVU.Add(row.WRVU)
		}
	}

	joined := make(map[PhysicianID]bool, len(byPhysician))
	for _, summary := range result.Performance {
		if !inWindow(summary.Period.Start()) {
			continue
		}
		r, ok := byPhysician[summary.PhysicianID]
		if !ok {
			continue
		}
		if joined[summary.PhysicianID] {
			return nil, &JoinAmbiguityError{Relation: "performance", PhysicianID: summary.PhysicianID}
		}
		joined[summary.PhysicianID] = true
		r.PerformanceBonus = summary.PerformanceBonus
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	report := make([]ReportRow, 0, len(order))
	for _, id := range order {
		r := byPhysician[id]
		r.TotalCompensation = r.TotalPay.Add(r.ProductivityBonus).Add(r.PerformanceBonus)
		if r.ShiftHours.IsPositive() {
			r.AvgDefined = true
			r.AvgWRVUsPerHour = r.WRVU.Div(r.ShiftHours)
		}
		report = append(report, *r)
	}
	return report, nil
}

package comp_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medshift/comp-engine/comp"
)

// =============================================================================
// PERIOD BUCKETING
// =============================================================================

func TestGranularity_PeriodOf(t *testing.T) {
	march15 := at(2026, time.March, 15, 9, 30)

	month := comp.GranularityMonth.PeriodOf(march15)
	if month.Year != 2026 || month.Index != 3 {
		t.Errorf("month period: expected 2026-03, got %v", month)
	}
	if !month.Start().Equal(at(2026, time.March, 1, 0, 0)) {
		t.Errorf("month start: got %v", month.Start())
	}
	if !month.End().Equal(at(2026, time.April, 1, 0, 0)) {
		t.Errorf("month end: got %v", month.End())
	}

	quarter := comp.GranularityQuarter.PeriodOf(march15)
	if quarter.Year != 2026 || quarter.Index != 1 {
		t.Errorf("quarter period: expected 2026Q1, got %v", quarter)
	}
	if !quarter.End().Equal(at(2026, time.April, 1, 0, 0)) {
		t.Errorf("quarter end: got %v", quarter.End())
	}

	year := comp.GranularityYear.PeriodOf(march15)
	if year.Year != 2026 {
		t.Errorf("year period: got %v", year)
	}
}

// =============================================================================
// GROUPING AND AGGREGATION
// =============================================================================

func TestPerformance_GroupsByPhysicianAndPeriod(t *testing.T) {
	// GIVEN: One physician with shifts in March and April, another in March
	// WHEN: Aggregating monthly performance
	// THEN: Three groups, sorted by physician then period

	calc := newTestCalculator(t)
	shifts := []comp.Shift{
		shift("s1", "dr-b", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0), ""),
		shift("s2", "dr-a", at(2026, time.March, 3, 8, 0), at(2026, time.March, 3, 16, 0), ""),
		shift("s3", "dr-a", at(2026, time.April, 6, 8, 0), at(2026, time.April, 6, 16, 0), ""),
	}
	billing := []comp.BillingRecord{
		wrvu("s1", "dr-b", 20),
		wrvu("s2", "dr-a", 20),
		wrvu("s3", "dr-a", 20),
	}
	rows, err := calc.Productivity(shifts, billing)
	if err != nil {
		t.Fatalf("Productivity failed: %v", err)
	}

	summaries := calc.Performance(rows)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(summaries))
	}
	want := []struct {
		physician comp.PhysicianID
		month     int
	}{
		{"dr-a", 3}, {"dr-a", 4}, {"dr-b", 3},
	}
	for i, w := range want {
		if summaries[i].PhysicianID != w.physician || summaries[i].Period.Index != w.month {
			t.Errorf("group %d: expected %s month %d, got %s %v",
				i, w.physician, w.month, summaries[i].PhysicianID, summaries[i].Period)
		}
	}
}

func TestPerformance_MeanAndSum(t *testing.T) {
	// GIVEN: Two shifts in one month at 110% and 75% productivity
	// WHEN: Aggregating monthly performance
	// THEN: Mean is 92.5, total pay is the sum of both shifts

	calc := newTestCalculator(t)
	shifts := []comp.Shift{
		shift("s1", "dr-a", at(2026, time.March, 2, 22, 0), at(2026, time.March, 3, 6, 0), "night"),
		shift("s2", "dr-a", at(2026, time.March, 10, 8, 0), at(2026, time.March, 10, 16, 0), ""),
	}
	billing := []comp.BillingRecord{
		wrvu("s1", "dr-a", 22), // 2.75/h -> 110%
		wrvu("s2", "dr-a", 15), // 1.875/h -> 75%
	}
	rows, err := calc.Productivity(shifts, billing)
	if err != nil {
		t.Fatalf("Productivity failed: %v", err)
	}

	summaries := calc.Performance(rows)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 group, got %d", len(summaries))
	}
	s := summaries[0]
	if !s.MeanDefined {
		t.Fatal("mean should be defined")
	}
	if !s.MeanProductivity.Equal(decimal.NewFromFloat(92.5)) {
		t.Errorf("mean: expected 92.5, got %v", s.MeanProductivity)
	}
	if !s.TotalPay.Equal(dec(3600)) {
		t.Errorf("total pay: expected 3600, got %v", s.TotalPay)
	}
}

// =============================================================================
// BONUS RULE
// =============================================================================

func TestPerformanceBonus_BinaryAtThreshold(t *testing.T) {
	// GIVEN: Groups with mean productivity just below, exactly at, and far
	//        above the 90% threshold
	// WHEN: Aggregating performance
	// THEN: Bonus is 0 below, exactly 15% of summed pay at and above, with
	//       no additional tier

	calc := newTestCalculator(t)
	// 8h day shift, total pay 1600; 20 wRVU = 100%.
	cases := []struct {
		name      string
		wrvuTotal float64
		bonus     decimal.Decimal
	}{
		{"below threshold", 17.8, decimal.Zero}, // 89%
		{"exactly at threshold", 18, dec(240)},  // 90% -> 15% of 1600
		{"far above threshold", 30, dec(240)},   // 150%, still 15%
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shifts := []comp.Shift{
				shift("s1", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0), ""),
			}
			rows, err := calc.Productivity(shifts, []comp.BillingRecord{wrvu("s1", "dr-a", tc.wrvuTotal)})
			if err != nil {
				t.Fatalf("Productivity failed: %v", err)
			}
			summaries := calc.Performance(rows)
			if !summaries[0].PerformanceBonus.Equal(tc.bonus) {
				t.Errorf("bonus: expected %v, got %v (mean %v)",
					tc.bonus, summaries[0].PerformanceBonus, summaries[0].MeanProductivity)
			}
		})
	}
}

func TestPerformance_AllUnbilledGroupHasUndefinedMean(t *testing.T) {
	// GIVEN: A group whose only shift has no billing
	// WHEN: Aggregating performance
	// THEN: The mean is undefined and no bonus is earned; pay still sums

	calc := newTestCalculator(t)
	shifts := []comp.Shift{
		shift("s1", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0), ""),
	}
	rows, err := calc.Productivity(shifts, nil)
	if err != nil {
		t.Fatalf("Productivity failed: %v", err)
	}
	summaries := calc.Performance(rows)
	s := summaries[0]
	if s.MeanDefined {
		t.Error("mean should be undefined with no billed shifts")
	}
	if !s.PerformanceBonus.IsZero() {
		t.Errorf("bonus should be zero, got %v", s.PerformanceBonus)
	}
	if !s.TotalPay.Equal(dec(1600)) {
		t.Errorf("total pay: expected 1600, got %v", s.TotalPay)
	}
}

package comp_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medshift/comp-engine/comp"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testPlan() comp.Plan {
	return comp.Plan{
		BaseRate: dec(200),
		ShiftDifferentials: map[comp.ShiftType]decimal.Decimal{
			"night":   dec(50),
			"weekend": dec(25),
			"holiday": dec(75),
		},
		WRVUTarget:           decimal.NewFromFloat(2.5),
		PerformanceThreshold: dec(90),
		EvaluationPeriod:     comp.GranularityMonth,
	}
}

func newTestCalculator(t *testing.T) *comp.Calculator {
	t.Helper()
	calc, err := comp.NewCalculator(testPlan())
	if err != nil {
		t.Fatalf("NewCalculator failed: %v", err)
	}
	return calc
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func shift(id, physician string, start, end time.Time, shiftType comp.ShiftType) comp.Shift {
	return comp.Shift{
		ID:          comp.ShiftID(id),
		PhysicianID: comp.PhysicianID(physician),
		Start:       start,
		End:         end,
		Type:        shiftType,
	}
}

func wrvu(shiftID, physician string, total float64) comp.BillingRecord {
	return comp.BillingRecord{
		ShiftID:     comp.ShiftID(shiftID),
		PhysicianID: comp.PhysicianID(physician),
		WRVU:        decimal.NewFromFloat(total),
	}
}

// =============================================================================
// CONSTRUCTION / FAIL FAST
// =============================================================================

func TestNewCalculator_RejectsBadParameters(t *testing.T) {
	// GIVEN: Plans with one invalid parameter each
	// WHEN: Constructing the calculator
	// THEN: Construction fails fast with a configuration error

	cases := []struct {
		name   string
		mutate func(*comp.Plan)
	}{
		{"zero base rate", func(p *comp.Plan) { p.BaseRate = decimal.Zero }},
		{"negative base rate", func(p *comp.Plan) { p.BaseRate = dec(-10) }},
		{"zero wrvu target", func(p *comp.Plan) { p.WRVUTarget = decimal.Zero }},
		{"negative threshold", func(p *comp.Plan) { p.PerformanceThreshold = dec(-1) }},
		{"negative differential", func(p *comp.Plan) {
			p.ShiftDifferentials = map[comp.ShiftType]decimal.Decimal{"night": dec(-5)}
		}},
		{"unknown granularity", func(p *comp.Plan) { p.EvaluationPeriod = "fortnight" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := testPlan()
			tc.mutate(&plan)
			_, err := comp.NewCalculator(plan)
			if !errors.Is(err, comp.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestNewCalculator_EmptyDifferentialTableIsValid(t *testing.T) {
	plan := testPlan()
	plan.ShiftDifferentials = nil
	if _, err := comp.NewCalculator(plan); err != nil {
		t.Errorf("empty differential table should be valid, got %v", err)
	}
}

// =============================================================================
// SHIFT PAY ENGINE
// =============================================================================

func TestShiftPay_BasePlusDifferential(t *testing.T) {
	// GIVEN: An 8-hour night shift at base 200 with night differential 50
	// WHEN: Computing shift pay
	// THEN: base=1600, differential=400, total=2000

	calc := newTestCalculator(t)
	s := shift("s1", "dr-a", at(2026, time.March, 2, 22, 0), at(2026, time.March, 3, 6, 0), "night")

	pay, err := calc.ShiftPay(s)
	if err != nil {
		t.Fatalf("ShiftPay failed: %v", err)
	}
	if !pay.BasePay.Equal(dec(1600)) {
		t.Errorf("base pay: expected 1600, got %v", pay.BasePay)
	}
	if !pay.DifferentialPay.Equal(dec(400)) {
		t.Errorf("differential pay: expected 400, got %v", pay.DifferentialPay)
	}
	if !pay.TotalPay.Equal(dec(2000)) {
		t.Errorf("total pay: expected 2000, got %v", pay.TotalPay)
	}
	if !pay.TotalPay.Equal(pay.BasePay.Add(pay.DifferentialPay)) {
		t.Error("total pay must equal base + differential exactly")
	}
}

func TestShiftPay_FractionalHoursExact(t *testing.T) {
	// GIVEN: An 8.5-hour shift at base 200
	// WHEN: Computing shift pay
	// THEN: base pay is exactly 1700, no rounding

	calc := newTestCalculator(t)
	s := shift("s1", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 30), "")

	pay, err := calc.ShiftPay(s)
	if err != nil {
		t.Fatalf("ShiftPay failed: %v", err)
	}
	if !pay.BasePay.Equal(dec(1700)) {
		t.Errorf("base pay: expected exactly 1700, got %v", pay.BasePay)
	}
	if !s.Hours().Equal(decimal.NewFromFloat(8.5)) {
		t.Errorf("hours: expected 8.5, got %v", s.Hours())
	}
}

func TestShiftPay_UnknownOrMissingTagEarnsNoDifferential(t *testing.T) {
	calc := newTestCalculator(t)

	for _, tag := range []comp.ShiftType{"", "swing", "oncall"} {
		s := shift("s1", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0), tag)
		pay, err := calc.ShiftPay(s)
		if err != nil {
			t.Fatalf("ShiftPay(%q) failed: %v", tag, err)
		}
		if !pay.DifferentialPay.IsZero() {
			t.Errorf("tag %q: expected zero differential, got %v", tag, pay.DifferentialPay)
		}
	}
}

func TestShiftPay_MalformedShiftsFail(t *testing.T) {
	// GIVEN: Shifts with missing or inverted timestamps
	// WHEN: Computing shift pay
	// THEN: Each fails with a malformed-shift error, never a silent default

	calc := newTestCalculator(t)
	noon := at(2026, time.March, 2, 12, 0)

	cases := []struct {
		name string
		s    comp.Shift
	}{
		{"missing shift id", shift("", "dr-a", noon, noon.Add(8*time.Hour), "")},
		{"missing physician id", shift("s1", "", noon, noon.Add(8*time.Hour), "")},
		{"zero start", shift("s1", "dr-a", time.Time{}, noon, "")},
		{"zero end", shift("s1", "dr-a", noon, time.Time{}, "")},
		{"end equals start", shift("s1", "dr-a", noon, noon, "")},
		{"end before start", shift("s1", "dr-a", noon, noon.Add(-time.Hour), "")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.ShiftPay(tc.s)
			if !errors.Is(err, comp.ErrMalformedShift) {
				t.Errorf("expected malformed shift error, got %v", err)
			}
			var detail *comp.MalformedShiftError
			if !errors.As(err, &detail) {
				t.Errorf("expected *MalformedShiftError, got %T", err)
			}
		})
	}
}

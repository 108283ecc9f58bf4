package validate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/validate"
)

func testValidator(t *testing.T) *validate.Validator {
	t.Helper()
	v, err := validate.New(validate.Config{
		MinShiftHours:       decimal.NewFromInt(4),
		MaxShiftHours:       decimal.NewFromInt(12),
		EarlyStartThreshold: validate.TimeOfDay{Hour: 5},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return v
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func shift(id, physician string, start, end time.Time) comp.Shift {
	return comp.Shift{
		ID:          comp.ShiftID(id),
		PhysicianID: comp.PhysicianID(physician),
		Start:       start,
		End:         end,
	}
}

func types(issues []validate.Issue) []validate.IssueType {
	out := make([]validate.IssueType, len(issues))
	for i, issue := range issues {
		out[i] = issue.Type
	}
	return out
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNew_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  validate.Config
	}{
		{
			"negative minimum",
			validate.Config{MinShiftHours: decimal.NewFromInt(-1), MaxShiftHours: decimal.NewFromInt(12)},
		},
		{
			"maximum not above minimum",
			validate.Config{MinShiftHours: decimal.NewFromInt(8), MaxShiftHours: decimal.NewFromInt(8)},
		},
		{
			"invalid threshold",
			validate.Config{
				MinShiftHours:       decimal.NewFromInt(4),
				MaxShiftHours:       decimal.NewFromInt(12),
				EarlyStartThreshold: validate.TimeOfDay{Hour: 24},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := validate.New(tc.cfg); !errors.Is(err, comp.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

// =============================================================================
// TIME VALIDITY
// =============================================================================

func TestValidateShiftTimes(t *testing.T) {
	v := testValidator(t)

	// GIVEN: A clean shift, an off-hour start, a 2h shift, and a 14h shift
	shifts := []comp.Shift{
		shift("ok", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0)),
		shift("offhour", "dr-a", at(2026, time.March, 3, 8, 15), at(2026, time.March, 3, 16, 15)),
		shift("short", "dr-a", at(2026, time.March, 4, 8, 0), at(2026, time.March, 4, 10, 0)),
		shift("long", "dr-a", at(2026, time.March, 5, 8, 0), at(2026, time.March, 5, 22, 0)),
	}
	issues := v.ValidateShiftTimes(shifts)

	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(issues), issues)
	}
	if issues[0].Type != validate.NonHourlyStart || issues[0].ShiftID != "offhour" {
		t.Errorf("issue 0: got %+v", issues[0])
	}
	if issues[0].Description != "Shift starts at 08:15 instead of on the hour" {
		t.Errorf("issue 0 description: %q", issues[0].Description)
	}
	if issues[1].Type != validate.ShortShift || issues[1].ShiftID != "short" {
		t.Errorf("issue 1: got %+v", issues[1])
	}
	if issues[1].Description != "Shift duration (2.0 hours) is below minimum (4.0 hours)" {
		t.Errorf("issue 1 description: %q", issues[1].Description)
	}
	if issues[2].Type != validate.LongShift || issues[2].ShiftID != "long" {
		t.Errorf("issue 2: got %+v", issues[2])
	}
	if issues[2].Description != "Shift duration (14.0 hours) exceeds maximum (12.0 hours)" {
		t.Errorf("issue 2 description: %q", issues[2].Description)
	}
}

func TestValidateShiftTimes_BoundaryDurationsAreClean(t *testing.T) {
	v := testValidator(t)
	shifts := []comp.Shift{
		shift("min", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 12, 0)),
		shift("max", "dr-a", at(2026, time.March, 3, 8, 0), at(2026, time.March, 3, 20, 0)),
	}
	if issues := v.ValidateShiftTimes(shifts); len(issues) != 0 {
		t.Errorf("boundary durations should pass, got %v", issues)
	}
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestCheckOverlappingShifts(t *testing.T) {
	v := testValidator(t)

	// GIVEN: dr-a works 08:00-17:00 then 16:00-24:00 (one hour overlap);
	//        dr-b works back-to-back shifts touching at 16:00
	shifts := []comp.Shift{
		shift("a2", "dr-a", at(2026, time.March, 2, 16, 0), at(2026, time.March, 3, 0, 0)),
		shift("a1", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 17, 0)),
		shift("b1", "dr-b", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0)),
		shift("b2", "dr-b", at(2026, time.March, 2, 16, 0), at(2026, time.March, 3, 0, 0)),
	}
	issues := v.CheckOverlappingShifts(shifts)

	// THEN: Only the later of dr-a's shifts is flagged
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if issues[0].ShiftID != "a2" || issues[0].Type != validate.OverlappingShift {
		t.Errorf("got %+v", issues[0])
	}
	if issues[0].Description != "Shift overlaps with previous shift (ends at 2026-03-02 17:00)" {
		t.Errorf("description: %q", issues[0].Description)
	}
}

// =============================================================================
// EARLY START
// =============================================================================

func TestValidateEarlyStarts(t *testing.T) {
	v := testValidator(t)

	// GIVEN: dr-a starts cold at 04:00; dr-b's 04:00 start follows an
	//        overnight shift ending earlier that same date; dr-c's prior
	//        shift ended the day before
	shifts := []comp.Shift{
		shift("a1", "dr-a", at(2026, time.March, 2, 4, 0), at(2026, time.March, 2, 12, 0)),
		shift("b0", "dr-b", at(2026, time.March, 1, 18, 0), at(2026, time.March, 2, 2, 0)),
		shift("b1", "dr-b", at(2026, time.March, 2, 4, 0), at(2026, time.March, 2, 12, 0)),
		shift("c0", "dr-c", at(2026, time.March, 1, 8, 0), at(2026, time.March, 1, 16, 0)),
		shift("c1", "dr-c", at(2026, time.March, 2, 4, 0), at(2026, time.March, 2, 12, 0)),
	}
	issues := v.ValidateEarlyStarts(shifts)

	// THEN: dr-a and dr-c are flagged, dr-b is protected
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(issues), issues)
	}
	if issues[0].ShiftID != "a1" || issues[1].ShiftID != "c1" {
		t.Errorf("got %v and %v", issues[0], issues[1])
	}
	if issues[0].Description != "Shift starts at 04:00 without a preceding shift" {
		t.Errorf("description: %q", issues[0].Description)
	}
}

func TestValidateEarlyStarts_ThresholdIsExclusive(t *testing.T) {
	v := testValidator(t)
	shifts := []comp.Shift{
		shift("at", "dr-a", at(2026, time.March, 2, 5, 0), at(2026, time.March, 2, 13, 0)),
	}
	if issues := v.ValidateEarlyStarts(shifts); len(issues) != 0 {
		t.Errorf("a start exactly at the threshold should pass, got %v", issues)
	}
}

// =============================================================================
// SCHEDULE MISMATCH
// =============================================================================

func TestValidateAgainstSchedule(t *testing.T) {
	v := testValidator(t)

	// GIVEN: One matching pair, one pair with a late start, one schedule
	//        entry never worked, and one actual shift never scheduled
	actual := []comp.Shift{
		shift("match", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0)),
		shift("late", "dr-b", at(2026, time.March, 2, 9, 0), at(2026, time.March, 2, 16, 0)),
		shift("extra", "dr-a", at(2026, time.March, 4, 8, 0), at(2026, time.March, 4, 16, 0)),
	}
	scheduled := []comp.ScheduledShift{
		{Date: at(2026, time.March, 2, 0, 0), PhysicianID: "dr-a",
			Start: at(2026, time.March, 2, 8, 0), End: at(2026, time.March, 2, 16, 0)},
		{Date: at(2026, time.March, 2, 0, 0), PhysicianID: "dr-b",
			Start: at(2026, time.March, 2, 8, 0), End: at(2026, time.March, 2, 16, 0)},
		{Date: at(2026, time.March, 3, 0, 0), PhysicianID: "dr-a",
			Start: at(2026, time.March, 3, 8, 0), End: at(2026, time.March, 3, 16, 0)},
	}
	issues := v.ValidateAgainstSchedule(actual, scheduled)

	want := []validate.IssueType{
		validate.StartTimeMismatch,  // dr-b march 2
		validate.MissingActualShift, // dr-a march 3
		validate.UnscheduledShift,   // dr-a march 4
	}
	got := types(issues)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v (%v)", want, got, issues)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v (%v)", want, got, issues)
		}
	}

	if issues[0].ShiftID != "late" ||
		issues[0].Description != "Actual start time (09:00) differs from scheduled (08:00)" {
		t.Errorf("start mismatch: %+v", issues[0])
	}
	if issues[1].ShiftID != "" ||
		issues[1].Description != "Scheduled shift for physician dr-a on 2026-03-03 has no corresponding actual shift" {
		t.Errorf("missing actual: %+v", issues[1])
	}
	if issues[2].ShiftID != "extra" ||
		issues[2].Description != "Actual shift was not scheduled in Amion" {
		t.Errorf("unscheduled: %+v", issues[2])
	}
}

func TestValidateAgainstSchedule_BothTimesWrongGivesTwoIssues(t *testing.T) {
	v := testValidator(t)
	actual := []comp.Shift{
		shift("s1", "dr-a", at(2026, time.March, 2, 9, 0), at(2026, time.March, 2, 18, 0)),
	}
	scheduled := []comp.ScheduledShift{
		{Date: at(2026, time.March, 2, 0, 0), PhysicianID: "dr-a",
			Start: at(2026, time.March, 2, 8, 0), End: at(2026, time.March, 2, 16, 0)},
	}
	issues := v.ValidateAgainstSchedule(actual, scheduled)
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(issues), issues)
	}
	if issues[0].Type != validate.StartTimeMismatch || issues[1].Type != validate.EndTimeMismatch {
		t.Errorf("got %v", types(issues))
	}
	if issues[1].Description != "Actual end time (18:00) differs from scheduled (16:00)" {
		t.Errorf("end mismatch description: %q", issues[1].Description)
	}
}

func TestValidateAgainstSchedule_EndOnlyMismatchGivesOneIssue(t *testing.T) {
	v := testValidator(t)
	actual := []comp.Shift{
		shift("s1", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 18, 0)),
	}
	scheduled := []comp.ScheduledShift{
		{Date: at(2026, time.March, 2, 0, 0), PhysicianID: "dr-a",
			Start: at(2026, time.March, 2, 8, 0), End: at(2026, time.March, 2, 16, 0)},
	}
	issues := v.ValidateAgainstSchedule(actual, scheduled)
	if len(issues) != 1 || issues[0].Type != validate.EndTimeMismatch {
		t.Fatalf("expected a single end mismatch, got %v", issues)
	}
}

func TestValidateAgainstSchedule_PairsMultipleShiftsByStartOrder(t *testing.T) {
	v := testValidator(t)

	// GIVEN: Two actual and two scheduled shifts for the same physician
	//        and date, supplied out of order, all times agreeing
	actual := []comp.Shift{
		shift("pm", "dr-a", at(2026, time.March, 2, 16, 0), at(2026, time.March, 3, 0, 0)),
		shift("am", "dr-a", at(2026, time.March, 2, 8, 0), at(2026, time.March, 2, 16, 0)),
	}
	scheduled := []comp.ScheduledShift{
		{Date: at(2026, time.March, 2, 0, 0), PhysicianID: "dr-a",
			Start: at(2026, time.March, 2, 8, 0), End: at(2026, time.March, 2, 16, 0)},
		{Date: at(2026, time.March, 2, 0, 0), PhysicianID: "dr-a",
			Start: at(2026, time.March, 2, 16, 0), End: at(2026, time.March, 3, 0, 0)},
	}
	if issues := v.ValidateAgainstSchedule(actual, scheduled); len(issues) != 0 {
		t.Errorf("matching pairs should produce no issues, got %v", issues)
	}
}

// =============================================================================
// FULL SWEEP
// =============================================================================

func TestValidateAll_ConcatenatesInCheckOrder(t *testing.T) {
	v := testValidator(t)

	// GIVEN: One shift violating the hour rule and the minimum duration,
	//        starting early, and absent from the schedule
	actual := []comp.Shift{
		shift("s1", "dr-a", at(2026, time.March, 2, 3, 30), at(2026, time.March, 2, 5, 30)),
	}
	issues := v.ValidateAll(actual, nil)

	want := []validate.IssueType{
		validate.NonHourlyStart,
		validate.ShortShift,
		validate.EarlyStart,
		validate.UnscheduledShift,
	}
	got := types(issues)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

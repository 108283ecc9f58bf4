package amion

import (
	"fmt"
	"time"

	"github.com/medshift/comp-engine/comp"
)

// rawShift is one shift element's data attributes as found on the page.
type rawShift struct {
	PhysicianID string `json:"physician_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ShiftType   string `json:"shift_type"`
}

// toScheduledShift anchors the element's wall-clock times onto the
// calendar day being scraped. An end time at or before the start time
// means the shift runs past midnight and ends on the following day.
func (r rawShift) toScheduledShift(day time.Time) (comp.ScheduledShift, error) {
	if r.PhysicianID == "" {
		return comp.ScheduledShift{}, fmt.Errorf("shift element missing physician id")
	}
	start, err := onDay(day, r.StartTime)
	if err != nil {
		return comp.ScheduledShift{}, fmt.Errorf("physician %s: start time: %w", r.PhysicianID, err)
	}
	end, err := onDay(day, r.EndTime)
	if err != nil {
		return comp.ScheduledShift{}, fmt.Errorf("physician %s: end time: %w", r.PhysicianID, err)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return comp.ScheduledShift{
		Date:        dateOnly(day),
		PhysicianID: comp.PhysicianID(r.PhysicianID),
		Start:       start,
		End:         end,
		Type:        comp.ShiftType(r.ShiftType),
	}, nil
}

// onDay parses an "HH:MM" wall-clock string onto the given calendar day
// (UTC).
func onDay(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a HH:MM time", clock)
	}
	d := dateOnly(day)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package scheduler decides whether an invocation should run and keeps
// the record of schedule slots that already fired.
package scheduler

import (
	"fmt"
	"time"

	"jobdigest-engine/internal/config"
)

const manualSlot = "manual"

// Decision is the outcome of one Check. SlotKey is what the caller marks
// fired once the gated work has succeeded.
type Decision struct {
	Eligible bool
	SlotKey  string
	Reason   string
}

type target struct{ hour, minute int }

// Slots checks "now" against the configured run times.
type Slots struct {
	targets   []target
	tolerance time.Duration
	loc       *time.Location
	force     bool
}

func NewSlots(s config.Schedule) (Slots, error) {
	loc, err := s.Location()
	if err != nil {
		return Slots{}, fmt.Errorf("schedule timezone %q: %w", s.Timezone, err)
	}
	out := Slots{
		tolerance: time.Duration(s.ToleranceMinutes) * time.Minute,
		loc:       loc,
		force:     s.Force,
	}
	for _, rt := range s.RunTimes {
		h, m, err := config.ParseRunTime(rt)
		if err != nil {
			return Slots{}, err
		}
		out.targets = append(out.targets, target{h, m})
	}
	return out, nil
}

// WithForce returns a copy that is always eligible.
func (s Slots) WithForce(force bool) Slots {
	s.force = s.force || force
	return s
}

// Check returns the first target within tolerance of now, on now's date
// in the configured zone, whose slot has not fired. Without targets, or
// when forced, it is always eligible under the day's manual slot. Check
// never marks anything.
func (s Slots) Check(now time.Time, fired *RunState) Decision {
	local := now.In(s.loc)
	date := local.Format("2006-01-02")

	if s.force {
		return Decision{Eligible: true, SlotKey: date + "-" + manualSlot, Reason: "forced"}
	}
	if len(s.targets) == 0 {
		return Decision{Eligible: true, SlotKey: date + "-" + manualSlot, Reason: "no run times configured"}
	}

	reason := "outside every run window"
	for _, t := range s.targets {
		at := time.Date(local.Year(), local.Month(), local.Day(), t.hour, t.minute, 0, 0, s.loc)
		delta := local.Sub(at)
		if delta < 0 {
			delta = -delta
		}
		if delta > s.tolerance {
			continue
		}
		key := fmt.Sprintf("%s-%02d:%02d", date, t.hour, t.minute)
		if fired.Fired(key) {
			reason = "slot " + key + " already fired"
			continue
		}
		return Decision{Eligible: true, SlotKey: key, Reason: "inside run window"}
	}
	return Decision{Reason: reason}
}

package appointment

import "time"

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps covers the three cases (start inside, end inside, enclosing)
// with a single comparison. Back-to-back ranges do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SlotQuery struct {
	Day      time.Time // any instant of the day, in the business location
	Duration time.Duration
	Step     time.Duration

	// Slots starting before NotBefore are dropped.
	NotBefore time.Time

	Busy []TimeRange
}

// GenerateSlots walks the opening window of q.Day and returns every slot of
// q.Duration that avoids the break and every busy range.
func (s Schedule) GenerateSlots(q SlotQuery) []TimeSlot {
	slots := []TimeSlot{}

	if q.Duration <= 0 {
		return slots
	}
	step := q.Step
	if step <= 0 {
		step = q.Duration
	}

	day := q.Day.In(s.loc)
	window, ok := s.window(day)
	if !ok {
		return slots
	}

	for cur := window.open; !cur.Add(q.Duration).After(window.close); cur = cur.Add(step) {
		slot := TimeRange{Start: cur, End: cur.Add(q.Duration)}

		if cur.Before(q.NotBefore) {
			continue
		}

		if window.hasBreak && slot.Overlaps(window.brk) {
			continue
		}

		conflict := false
		for _, b := range q.Busy {
			if slot.Overlaps(b) {
				conflict = true
				break
			}
		}

		if !conflict {
			slots = append(slots, TimeSlot{
				Start: slot.Start.Format("15:04"),
				End:   slot.End.Format("15:04"),
			})
		}
	}

	return slots
}

package appointment

import (
	"fmt"
	"time"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
	"github.com/BruksfildServices01/calendrier-rdv/internal/validators"
)

// Schedule is the weekly opening schedule evaluated in the business location.
type Schedule struct {
	days map[time.Weekday]models.BusinessHours
	loc  *time.Location
}

func NewSchedule(hours []models.BusinessHours, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}

	days := make(map[time.Weekday]models.BusinessHours, len(hours))
	for _, h := range hours {
		days[time.Weekday(h.Weekday)] = h
	}
	return Schedule{days: days, loc: loc}
}

func (s Schedule) Location() *time.Location {
	return s.loc
}

type dayWindow struct {
	open     time.Time
	close    time.Time
	brk      TimeRange
	hasBreak bool
}

// window resolves the opening hours of day. ok is false when the business
// is closed that day or the row is unusable.
func (s Schedule) window(day time.Time) (w dayWindow, ok bool) {
	h, found := s.days[day.Weekday()]
	if !found || !h.Active {
		return w, false
	}

	var err error
	if w.open, err = timezone.At(day, h.OpenTime); err != nil {
		return w, false
	}
	if w.close, err = timezone.At(day, h.CloseTime); err != nil {
		return w, false
	}

	if h.HasBreak() {
		bs, errS := timezone.At(day, h.BreakStart)
		be, errE := timezone.At(day, h.BreakEnd)
		if errS == nil && errE == nil {
			w.brk = TimeRange{Start: bs, End: be}
			w.hasBreak = true
		}
	}

	return w, true
}

// ValidateBusinessRules runs every check independently and returns all
// field messages at once. An empty result means the interval is bookable
// as far as opening hours are concerned.
func (s Schedule) ValidateBusinessRules(start, end time.Time) validators.Result {
	r := validators.Result{}

	start = start.In(s.loc)
	end = end.In(s.loc)

	h, found := s.days[start.Weekday()]
	if !found || !h.Active {
		r.Add("date", "Bookings are not accepted on this day.")
	}

	if found {
		if open, err := timezone.At(start, h.OpenTime); err == nil && start.Before(open) {
			r.Add("start_time", fmt.Sprintf("Start time must be at or after %s.", h.OpenTime))
		}
		if closing, err := timezone.At(start, h.CloseTime); err == nil && end.After(closing) {
			r.Add("end_time", fmt.Sprintf("End time must be at or before %s.", h.CloseTime))
		}

		if h.HasBreak() {
			bs, errS := timezone.At(start, h.BreakStart)
			be, errE := timezone.At(start, h.BreakEnd)
			if errS == nil && errE == nil && (TimeRange{Start: start, End: end}).Overlaps(TimeRange{Start: bs, End: be}) {
				r.Add("start_time", fmt.Sprintf("Appointments cannot overlap the break (%s-%s).", h.BreakStart, h.BreakEnd))
			}
		}
	}

	if !timezone.StartOfDay(start).Equal(timezone.StartOfDay(end)) {
		r.Add("end_time", "Appointment must end on the day it starts.")
	}

	return r
}

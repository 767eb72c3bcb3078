package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
	"github.com/BruksfildServices01/calendrier-rdv/internal/validators"
)

// DefaultHours builds the seven weekday rows from a single open/close window
// and the set of working days.
func DefaultHours(openHM, closeHM string, days []time.Weekday) []models.BusinessHours {
	working := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		working[d] = true
	}

	out := make([]models.BusinessHours, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out = append(out, models.BusinessHours{
			Weekday:   int(d),
			OpenTime:  openHM,
			CloseTime: closeHM,
			Active:    working[d],
		})
	}
	return out
}

// ValidateHours checks a weekly schedule submitted by an admin.
func ValidateHours(hours []models.BusinessHours) validators.Result {
	r := validators.Result{}
	seen := map[int]bool{}

	for i, h := range hours {
		field := fmt.Sprintf("days[%d]", i)

		if h.Weekday < 0 || h.Weekday > 6 {
			r.Add(field, "Weekday must be between 0 and 6.")
			continue
		}
		if seen[h.Weekday] {
			r.Add(field, "Weekday is listed twice.")
			continue
		}
		seen[h.Weekday] = true

		if !h.Active {
			continue
		}

		open, errOpen := time.Parse(timezone.HourLayout, h.OpenTime)
		closing, errClose := time.Parse(timezone.HourLayout, h.CloseTime)
		if errOpen != nil || errClose != nil {
			r.Add(field, "Open and close times must use HH:MM.")
			continue
		}
		if !open.Before(closing) {
			r.Add(field, "Open time must be before close time.")
			continue
		}

		if h.BreakStart == "" && h.BreakEnd == "" {
			continue
		}
		bs, errBs := time.Parse(timezone.HourLayout, h.BreakStart)
		be, errBe := time.Parse(timezone.HourLayout, h.BreakEnd)
		if errBs != nil || errBe != nil {
			r.Add(field, "Break times must use HH:MM.")
			continue
		}
		if !bs.Before(be) || bs.Before(open) || be.After(closing) {
			r.Add(field, "Break must fall inside opening hours.")
		}
	}

	return r
}

// SortHours orders rows by weekday, Sunday first.
func SortHours(hours []models.BusinessHours) {
	sort.Slice(hours, func(i, j int) bool { return hours[i].Weekday < hours[j].Weekday })
}

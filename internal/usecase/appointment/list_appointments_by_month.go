package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/dto"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
)

type CalendarInput struct {
	Year       int
	Month      int
	ProviderID uint
}

// Calendar returns the month grouped per day, every day present.
type Calendar struct {
	repo   domain.Repository
	policy BookingPolicy
}

func NewCalendar(repo domain.Repository, policy BookingPolicy) *Calendar {
	return &Calendar{repo: repo, policy: policy}
}

func (uc *Calendar) Execute(ctx context.Context, in CalendarInput) ([]dto.CalendarDay, error) {
	if in.Month < 1 || in.Month > 12 || in.Year < 1970 {
		return nil, domain.ErrInvalidDateTime
	}

	loc := uc.policy.location()
	start := time.Date(in.Year, time.Month(in.Month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	aps, err := uc.repo.ListAppointments(ctx, domain.ListFilter{
		From:       start,
		To:         end,
		ProviderID: in.ProviderID,
	})
	if err != nil {
		return nil, err
	}

	days := []dto.CalendarDay{}
	index := map[string]int{}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(timezone.DateLayout)
		index[key] = len(days)
		days = append(days, dto.CalendarDay{Date: key, Appointments: []dto.AppointmentListDTO{}})
	}

	for _, item := range dto.NewAppointmentList(aps) {
		i, ok := index[item.StartTime.In(loc).Format(timezone.DateLayout)]
		if !ok {
			continue
		}
		days[i].Appointments = append(days[i].Appointments, item)
		days[i].Count++
	}

	return days, nil
}

package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/dto"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
)

type ListAppointmentsByDateInput struct {
	Date       string
	ProviderID uint
	Status     domain.Status
}

type ListAppointmentsByDate struct {
	repo   domain.Repository
	policy BookingPolicy
}

func NewListAppointmentsByDate(repo domain.Repository, policy BookingPolicy) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{repo: repo, policy: policy}
}

// Today is the current date in the business location.
func (uc *ListAppointmentsByDate) Today() string {
	return uc.policy.now().Format(timezone.DateLayout)
}

func (uc *ListAppointmentsByDate) Execute(ctx context.Context, in ListAppointmentsByDateInput) ([]dto.AppointmentListDTO, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	day, err := timezone.ParseDate(in.Date, uc.policy.location())
	if err != nil {
		return nil, domain.ErrInvalidDateTime
	}

	aps, err := uc.repo.ListAppointments(ctx, domain.ListFilter{
		From:       day,
		To:         day.AddDate(0, 0, 1),
		ProviderID: in.ProviderID,
		Status:     in.Status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewAppointmentList(aps), nil
}

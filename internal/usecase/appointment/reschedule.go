package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
)

type RescheduleInput struct {
	ID   uint
	Date string
	Time string

	// ProviderID moves the appointment to another provider when set.
	ProviderID *uint

	ActorID *uint
}

type RescheduleAppointment struct {
	deps
}

func NewRescheduleAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	policy BookingPolicy,
	log *zap.Logger,
) *RescheduleAppointment {
	return &RescheduleAppointment{deps{
		repo:   repo,
		audit:  audit,
		policy: policy,
		log:    log,
	}}
}

func (uc *RescheduleAppointment) Execute(ctx context.Context, in RescheduleInput) (*models.Appointment, error) {
	ap, err := uc.repo.GetAppointment(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	start, err := timezone.ParseDateTime(in.Date, in.Time, uc.policy.location())
	if err != nil {
		return nil, domain.ErrInvalidDateTime
	}
	end := start.Add(ap.EndTime.Sub(ap.StartTime))

	providerID := ap.ProviderID
	if in.ProviderID != nil && *in.ProviderID != ap.ProviderID {
		provider, err := uc.repo.GetProvider(ctx, *in.ProviderID)
		if err != nil {
			return nil, err
		}
		if !provider.Active {
			return nil, domain.ErrProviderInactive
		}
		if !provider.Offers(ap.ServiceID) {
			return nil, domain.ErrServiceNotOffered
		}
		providerID = provider.ID
	}

	schedule, err := uc.schedule(ctx)
	if err != nil {
		return nil, err
	}
	if err := schedule.ValidateBusinessRules(start, end).Err(); err != nil {
		return nil, err
	}

	oldStart := ap.StartTime
	if err := domain.Move(ap, providerID, start, end); err != nil {
		return nil, err
	}

	if err := uc.repo.RescheduleIfAvailable(ctx, ap); err != nil {
		return nil, err
	}

	uc.record(in.ActorID, "appointment_rescheduled", ap, map[string]any{
		"from":        oldStart.Format(time.RFC3339),
		"to":          start.Format(time.RFC3339),
		"provider_id": providerID,
	})

	return uc.repo.GetAppointment(ctx, ap.ID)
}

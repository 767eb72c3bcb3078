package appointment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/notification"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
	"github.com/BruksfildServices01/calendrier-rdv/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	ServiceID  uint
	ProviderID uint

	Date string // YYYY-MM-DD
	Time string // HH:MM

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string

	// ActorID is set when an admin books on behalf of a customer.
	ActorID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	deps
}

func NewCreateBooking(
	repo domain.Repository,
	notifier Notifier,
	audit *audit.Dispatcher,
	policy BookingPolicy,
	log *zap.Logger,
) *CreateBooking {
	return &CreateBooking{deps{
		repo:     repo,
		notifier: notifier,
		audit:    audit,
		policy:   policy,
		log:      log,
	}}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(ctx context.Context, in CreateBookingInput) (*models.Appointment, error) {

	// --------------------------------------------------
	// 1. Contact + date/time, reported together
	// --------------------------------------------------
	fields := validators.ValidateContact(validators.Contact{
		Name:  in.CustomerName,
		Email: in.CustomerEmail,
		Phone: in.CustomerPhone,
	}, uc.policy.CheckEmailDomain)

	loc := uc.policy.location()

	if _, err := timezone.ParseDate(in.Date, loc); err != nil {
		fields.Add("date", "Date must be YYYY-MM-DD.")
	}
	if _, err := time.Parse(timezone.HourLayout, in.Time); err != nil {
		fields.Add("start_time", "Time must be HH:MM.")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	start, err := timezone.ParseDateTime(in.Date, in.Time, loc)
	if err != nil {
		return nil, domain.ErrInvalidDateTime
	}

	// --------------------------------------------------
	// 2. Minimum notice
	// --------------------------------------------------
	if start.Before(uc.policy.earliestStart()) {
		return nil, domain.ErrTooSoon
	}

	// --------------------------------------------------
	// 3. Service / provider
	// --------------------------------------------------
	service, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.Active {
		return nil, domain.ErrServiceInactive
	}

	provider, err := uc.repo.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.Active {
		return nil, domain.ErrProviderInactive
	}
	if !provider.Offers(service.ID) {
		return nil, domain.ErrServiceNotOffered
	}

	end := start.Add(time.Duration(service.DurationMin) * time.Minute)

	// --------------------------------------------------
	// 4. Business hours
	// --------------------------------------------------
	schedule, err := uc.schedule(ctx)
	if err != nil {
		return nil, err
	}
	if err := schedule.ValidateBusinessRules(start, end).Err(); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5. Check-and-insert
	// --------------------------------------------------
	ap, err := domain.NewAppointment(domain.NewAppointmentParams{
		ServiceID:     service.ID,
		ProviderID:    provider.ID,
		Start:         start,
		End:           end,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		Notes:         in.Notes,
		Price:         service.Price,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.repo.CreateIfAvailable(ctx, ap); err != nil {
		if errors.Is(err, domain.ErrTimeConflict) {
			uc.record(in.ActorID, "appointment_conflict", nil, map[string]any{
				"provider_id": provider.ID,
				"start":       start.Format(time.RFC3339),
				"end":         end.Format(time.RFC3339),
			})
		}
		return nil, err
	}

	ap.Service = *service
	ap.Provider = *provider
	ap.Provider.Services = nil

	// --------------------------------------------------
	// 6. Notifications + audit
	// --------------------------------------------------
	uc.notify(ctx, notification.TemplateBookingReceived, ap.CustomerEmail, ap)
	uc.notify(ctx, notification.TemplateAdminNewBooking, uc.policy.AdminEmail, ap)

	uc.record(in.ActorID, "appointment_created", ap, map[string]any{
		"provider_id": provider.ID,
		"service_id":  service.ID,
	})

	return ap, nil
}

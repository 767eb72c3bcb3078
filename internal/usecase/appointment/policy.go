package appointment

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/notification"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
)

// BookingPolicy holds the settings shared by every booking use case.
type BookingPolicy struct {
	Location     *time.Location
	MinAdvance   time.Duration
	SlotInterval time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time

	CheckEmailDomain bool

	// AdminEmail receives admin_new_booking. Empty disables it.
	AdminEmail string
}

func (p BookingPolicy) location() *time.Location {
	if p.Location == nil {
		return timezone.Location(timezone.DefaultTimezone)
	}
	return p.Location
}

func (p BookingPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now().In(p.location())
	}
	return time.Now().In(p.location())
}

// earliestStart is the first instant a customer may still book.
func (p BookingPolicy) earliestStart() time.Time {
	return p.now().Add(p.MinAdvance)
}

// Notifier queues a message for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, msg notification.Message) error
}

// deps is embedded by the use cases that load, notify and audit.
type deps struct {
	repo     domain.Repository
	notifier Notifier
	audit    *audit.Dispatcher
	policy   BookingPolicy
	log      *zap.Logger
}

func (d deps) schedule(ctx context.Context) (domain.Schedule, error) {
	hours, err := d.repo.ListBusinessHours(ctx)
	if err != nil {
		return domain.Schedule{}, err
	}
	return domain.NewSchedule(hours, d.policy.location()), nil
}

// notify never fails the caller: the booking is already stored.
func (d deps) notify(ctx context.Context, template, recipient string, ap *models.Appointment) {
	if d.notifier == nil || recipient == "" {
		return
	}

	msg := notification.Message{
		Template:      template,
		Recipient:     recipient,
		Data:          messageData(ap, d.policy.location()),
		AppointmentID: &ap.ID,
	}
	if err := d.notifier.Enqueue(ctx, msg); err != nil {
		d.log.Error("enqueue notification failed",
			zap.String("template", template),
			zap.Uint("appointment_id", ap.ID),
			zap.Error(err),
		)
	}
}

func (d deps) record(userID *uint, action string, ap *models.Appointment, meta map[string]any) {
	ev := audit.Event{
		UserID:   userID,
		Action:   action,
		Entity:   "appointment",
		Metadata: meta,
	}
	if ap != nil && ap.ID != 0 {
		id := ap.ID
		ev.EntityID = &id
	}
	d.audit.Dispatch(ev)
}

func messageData(ap *models.Appointment, loc *time.Location) map[string]string {
	start := ap.StartTime.In(loc)
	return map[string]string{
		"AppointmentID": strconv.FormatUint(uint64(ap.ID), 10),
		"CustomerName":  ap.CustomerName,
		"CustomerEmail": ap.CustomerEmail,
		"CustomerPhone": ap.CustomerPhone,
		"ServiceName":   ap.Service.Name,
		"ProviderName":  ap.Provider.Name,
		"Date":          start.Format(timezone.DateLayout),
		"Time":          start.Format(timezone.HourLayout),
		"EndTime":       ap.EndTime.In(loc).Format(timezone.HourLayout),
		"CancelToken":   ap.CancelToken,
		"Notes":         ap.Notes,
	}
}

package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/calendrier-rdv/internal/audit"
	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/notification"
)

type transitionFunc func(ap *models.Appointment, now time.Time) error

// transition applies one state machine move and persists it only if no
// other writer changed the status in between.
type transition struct {
	deps
	apply    transitionFunc
	action   string
	template string // empty: no customer notification
}

func newTransition(
	repo domain.Repository,
	notifier Notifier,
	audit *audit.Dispatcher,
	policy BookingPolicy,
	log *zap.Logger,
	apply transitionFunc,
	action string,
	template string,
) transition {
	return transition{
		deps: deps{
			repo:     repo,
			notifier: notifier,
			audit:    audit,
			policy:   policy,
			log:      log,
		},
		apply:    apply,
		action:   action,
		template: template,
	}
}

func (t transition) run(ctx context.Context, ap *models.Appointment, actorID *uint) (*models.Appointment, error) {
	from := domain.Status(ap.Status)

	if err := t.apply(ap, t.policy.now()); err != nil {
		return nil, err
	}

	if err := t.repo.SaveTransition(ctx, ap, from); err != nil {
		return nil, err
	}

	if t.template != "" {
		t.notify(ctx, t.template, ap.CustomerEmail, ap)
	}

	t.record(actorID, t.action, ap, map[string]any{
		"from": string(from),
		"to":   ap.Status,
	})

	return ap, nil
}

// ======================================================
// Admin transitions
// ======================================================

type ConfirmAppointment struct{ transition }

func NewConfirmAppointment(repo domain.Repository, notifier Notifier, audit *audit.Dispatcher, policy BookingPolicy, log *zap.Logger) *ConfirmAppointment {
	return &ConfirmAppointment{newTransition(repo, notifier, audit, policy, log,
		domain.Confirm, "appointment_confirmed", notification.TemplateBookingConfirmed)}
}

func (uc *ConfirmAppointment) Execute(ctx context.Context, actorID *uint, id uint) (*models.Appointment, error) {
	ap, err := uc.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.run(ctx, ap, actorID)
}

type CancelAppointment struct{ transition }

func NewCancelAppointment(repo domain.Repository, notifier Notifier, audit *audit.Dispatcher, policy BookingPolicy, log *zap.Logger) *CancelAppointment {
	return &CancelAppointment{newTransition(repo, notifier, audit, policy, log,
		domain.Cancel, "appointment_cancelled", notification.TemplateBookingCancelled)}
}

func (uc *CancelAppointment) Execute(ctx context.Context, actorID *uint, id uint) (*models.Appointment, error) {
	ap, err := uc.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.run(ctx, ap, actorID)
}

type CompleteAppointment struct{ transition }

func NewCompleteAppointment(repo domain.Repository, audit *audit.Dispatcher, policy BookingPolicy, log *zap.Logger) *CompleteAppointment {
	return &CompleteAppointment{newTransition(repo, nil, audit, policy, log,
		domain.Complete, "appointment_completed", "")}
}

func (uc *CompleteAppointment) Execute(ctx context.Context, actorID *uint, id uint) (*models.Appointment, error) {
	ap, err := uc.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.run(ctx, ap, actorID)
}

// ======================================================
// Public cancellation
// ======================================================

// CancelByToken lets a customer cancel with the token mailed at booking.
type CancelByToken struct{ transition }

func NewCancelByToken(repo domain.Repository, notifier Notifier, audit *audit.Dispatcher, policy BookingPolicy, log *zap.Logger) *CancelByToken {
	return &CancelByToken{newTransition(repo, notifier, audit, policy, log,
		domain.Cancel, "appointment_cancelled_by_customer", notification.TemplateBookingCancelled)}
}

func (uc *CancelByToken) Execute(ctx context.Context, token string) (*models.Appointment, error) {
	ap, err := uc.repo.GetAppointmentByCancelToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return uc.run(ctx, ap, nil)
}

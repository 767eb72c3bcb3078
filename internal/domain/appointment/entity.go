package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

const (
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

type NewAppointmentParams struct {
	ServiceID  uint
	ProviderID uint
	Start      time.Time
	End        time.Time

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string

	Price float64
}

// NewAppointment is the only constructor of a bookable appointment.
// The interval must be non-empty: end strictly after start.
func NewAppointment(p NewAppointmentParams) (*models.Appointment, error) {
	if !p.End.After(p.Start) {
		return nil, ErrInvalidInterval
	}

	return &models.Appointment{
		ServiceID:     p.ServiceID,
		ProviderID:    p.ProviderID,
		StartTime:     p.Start,
		EndTime:       p.End,
		Status:        string(InitialStatus()),
		CustomerName:  strings.TrimSpace(p.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(p.CustomerEmail)),
		CustomerPhone: strings.TrimSpace(p.CustomerPhone),
		Notes:         strings.TrimSpace(p.Notes),
		Price:         p.Price,
		PaymentStatus: PaymentUnpaid,
		CancelToken:   uuid.NewString(),
	}, nil
}

// ===============================
// Domain Actions
// ===============================

func Confirm(ap *models.Appointment, now time.Time) error {
	if err := CanTransition(Status(ap.Status), StatusConfirmed); err != nil {
		return err
	}

	ap.Status = string(StatusConfirmed)
	ap.ConfirmedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanTransition(Status(ap.Status), StatusCancelled); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanTransition(Status(ap.Status), StatusCompleted); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// Move changes the interval of a live appointment.
func Move(ap *models.Appointment, providerID uint, start, end time.Time) error {
	if !Status(ap.Status).Live() {
		return ErrInvalidTransition
	}
	if !end.After(start) {
		return ErrInvalidInterval
	}

	ap.ProviderID = providerID
	ap.StartTime = start
	ap.EndTime = end
	return nil
}

func RangeOf(ap *models.Appointment) TimeRange {
	return TimeRange{Start: ap.StartTime, End: ap.EndTime}
}

package notification

import (
	"context"
	"errors"
)

const (
	TemplateBookingReceived  = "booking_received"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateAdminNewBooking  = "admin_new_booking"
)

var (
	ErrUnknownTemplate = errors.New("unknown notification template")
	ErrNoRecipient     = errors.New("notification has no recipient")
)

// Message is one email to deliver: a template name plus the values it renders.
type Message struct {
	Template      string            `json:"template"`
	Recipient     string            `json:"recipient"`
	Data          map[string]string `json:"data"`
	AppointmentID *uint             `json:"appointment_id,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

package dto

import (
	"time"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type AppointmentListDTO struct {
	ID            uint      `json:"id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	ServiceName   string    `json:"service_name"`
	ProviderID    uint      `json:"provider_id"`
	ProviderName  string    `json:"provider_name"`
	PaymentStatus string    `json:"payment_status"`
}

func NewAppointmentList(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AppointmentListDTO{
			ID:            ap.ID,
			StartTime:     ap.StartTime,
			EndTime:       ap.EndTime,
			Status:        ap.Status,
			CustomerName:  ap.CustomerName,
			CustomerEmail: ap.CustomerEmail,
			ServiceName:   ap.Service.Name,
			ProviderID:    ap.ProviderID,
			ProviderName:  ap.Provider.Name,
			PaymentStatus: ap.PaymentStatus,
		})
	}
	return out
}

// CalendarDay groups the appointments starting on one local date.
type CalendarDay struct {
	Date         string               `json:"date"`
	Count        int                  `json:"count"`
	Appointments []AppointmentListDTO `json:"appointments"`
}

package appointment

import "github.com/BruksfildServices01/calendrier-rdv/internal/httperr"

var (
	ErrInvalidInterval     = httperr.ErrBusiness("invalid_interval")
	ErrInvalidDateTime     = httperr.ErrBusiness("invalid_date_or_time")
	ErrTimeConflict        = httperr.ErrBusiness("time_conflict")
	ErrInvalidTransition   = httperr.ErrBusiness("invalid_transition")
	ErrAppointmentNotFound = httperr.ErrBusiness("appointment_not_found")
	ErrProviderInactive    = httperr.ErrBusiness("provider_inactive")
	ErrServiceInactive     = httperr.ErrBusiness("service_inactive")
	ErrServiceNotOffered   = httperr.ErrBusiness("service_not_offered")
	ErrTooSoon             = httperr.ErrBusiness("too_soon")
	ErrInvalidStatus       = httperr.ErrBusiness("invalid_status")
)

package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type ListFilter struct {
	From       time.Time
	To         time.Time
	ProviderID uint
	Status     Status
}

type Repository interface {
	catalog.Reader

	// -------- Availability --------

	// CountOverlapping counts live appointments of the provider intersecting
	// [start, end), ignoring excludeID when set.
	CountOverlapping(
		ctx context.Context,
		providerID uint,
		start time.Time,
		end time.Time,
		excludeID *uint,
	) (int64, error)

	// ListBusy returns live appointments of the provider intersecting [from, to).
	ListBusy(
		ctx context.Context,
		providerID uint,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)

	// -------- Appointment (create / move) --------

	// CreateIfAvailable checks availability and inserts in one atomic step.
	// Returns ErrTimeConflict when the slot is taken.
	CreateIfAvailable(ctx context.Context, ap *models.Appointment) error

	// RescheduleIfAvailable saves the new interval of ap under the same
	// guarantee, ignoring ap itself in the overlap check.
	RescheduleIfAvailable(ctx context.Context, ap *models.Appointment) error

	// -------- Appointment (state change) --------
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)

	GetAppointmentByCancelToken(ctx context.Context, token string) (*models.Appointment, error)

	// SaveTransition persists ap only if its stored status is still from.
	// Returns ErrInvalidTransition when another writer got there first.
	SaveTransition(ctx context.Context, ap *models.Appointment, from Status) error

	DeleteAppointment(ctx context.Context, id uint) error

	// -------- Listing --------
	ListAppointments(ctx context.Context, f ListFilter) ([]models.Appointment, error)
}

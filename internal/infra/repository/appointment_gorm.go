package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type AppointmentGormRepository struct {
	*CatalogGormRepository
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{
		CatalogGormRepository: NewCatalogGormRepository(db),
		db:                    db,
	}
}

// Live appointments of a provider intersecting [start, end).
func overlapping(tx *gorm.DB, providerID uint, start, end time.Time, excludeID *uint) *gorm.DB {
	q := tx.Model(&models.Appointment{}).
		Where(
			"provider_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			providerID,
			string(domain.StatusCancelled),
			end,
			start,
		)

	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	return q
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *AppointmentGormRepository) CountOverlapping(
	ctx context.Context,
	providerID uint,
	start time.Time,
	end time.Time,
	excludeID *uint,
) (int64, error) {

	var count int64
	if err := overlapping(r.db.WithContext(ctx), providerID, start, end, excludeID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *AppointmentGormRepository) ListBusy(
	ctx context.Context,
	providerID uint,
	from time.Time,
	to time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := overlapping(r.db.WithContext(ctx), providerID, from, to, nil).
		Select("id", "start_time", "end_time").
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

// --------------------------------------------------
// Appointment (create / move)
// --------------------------------------------------

// lockProvider serializes writers of one provider for the rest of tx.
func lockProvider(tx *gorm.DB, providerID uint) error {
	var p models.Provider
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "active").
		First(&p, providerID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.ErrProviderNotFound
	}
	if err != nil {
		return err
	}
	if !p.Active {
		return domain.ErrProviderInactive
	}
	return nil
}

func (r *AppointmentGormRepository) writeIfAvailable(
	ctx context.Context,
	ap *models.Appointment,
	write func(tx *gorm.DB) error,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProvider(tx, ap.ProviderID); err != nil {
			return err
		}

		var exclude *uint
		if ap.ID != 0 {
			exclude = &ap.ID
		}

		var count int64
		if err := overlapping(tx, ap.ProviderID, ap.StartTime, ap.EndTime, exclude).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrTimeConflict
		}

		return write(tx)
	})

	// The exclusion constraint catches anything the lock did not.
	if httperr.IsExclusionConflict(err) {
		return domain.ErrTimeConflict
	}
	return err
}

func (r *AppointmentGormRepository) CreateIfAvailable(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.writeIfAvailable(ctx, ap, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(ap).Error
	})
}

func (r *AppointmentGormRepository) RescheduleIfAvailable(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.writeIfAvailable(ctx, ap, func(tx *gorm.DB) error {
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status IN ?", ap.ID, []string{
				string(domain.StatusPending),
				string(domain.StatusConfirmed),
			}).
			Updates(map[string]any{
				"provider_id": ap.ProviderID,
				"start_time":  ap.StartTime,
				"end_time":    ap.EndTime,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Provider").
		First(&ap, id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) GetAppointmentByCancelToken(
	ctx context.Context,
	token string,
) (*models.Appointment, error) {

	var ap models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Provider").
		Where("cancel_token = ?", token).
		First(&ap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) SaveTransition(
	ctx context.Context,
	ap *models.Appointment,
	from domain.Status,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", ap.ID, string(from)).
		Updates(map[string]any{
			"status":       ap.Status,
			"confirmed_at": ap.ConfirmedAt,
			"cancelled_at": ap.CancelledAt,
			"completed_at": ap.CompletedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *AppointmentGormRepository) DeleteAppointment(
	ctx context.Context,
	id uint,
) error {

	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointments(
	ctx context.Context,
	f domain.ListFilter,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Provider").
		Where("start_time >= ? AND start_time < ?", f.From, f.To)

	if f.ProviderID != 0 {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}

	return apps, nil
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)

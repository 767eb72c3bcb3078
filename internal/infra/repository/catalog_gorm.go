package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type CatalogGormRepository struct {
	db *gorm.DB
}

func NewCatalogGormRepository(db *gorm.DB) *CatalogGormRepository {
	return &CatalogGormRepository{db: db}
}

// --------------------------------------------------
// Services
// --------------------------------------------------

func (r *CatalogGormRepository) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CatalogGormRepository) ListServices(ctx context.Context, f catalog.ServiceFilter) ([]models.Service, error) {
	q := r.db.WithContext(ctx).Model(&models.Service{})

	if category := strings.ToLower(strings.TrimSpace(f.Category)); category != "" {
		q = q.Where("LOWER(category) = ?", category)
	}

	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}

	if query := strings.ToLower(strings.TrimSpace(f.Query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var services []models.Service
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *CatalogGormRepository) CreateService(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *CatalogGormRepository) UpdateService(ctx context.Context, s *models.Service) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *CatalogGormRepository) DeleteService(ctx context.Context, id uint) (bool, error) {
	var s models.Service
	return r.deleteOrDeactivate(ctx, &s, id, "service_id = ?", catalog.ErrServiceNotFound, func(tx *gorm.DB) error {
		return tx.Exec("DELETE FROM provider_services WHERE service_id = ?", id).Error
	})
}

// deleteOrDeactivate removes row unless appointments still reference it, in
// which case it is only deactivated so past bookings stay resolvable.
func (r *CatalogGormRepository) deleteOrDeactivate(
	ctx context.Context,
	row any,
	id uint,
	refWhere string,
	notFound error,
	unlink func(tx *gorm.DB) error,
) (bool, error) {

	deactivated := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound
			}
			return err
		}

		var refs int64
		if err := tx.Model(&models.Appointment{}).Where(refWhere, id).Count(&refs).Error; err != nil {
			return err
		}

		if refs > 0 {
			deactivated = true
			return tx.Model(row).Update("active", false).Error
		}

		if err := unlink(tx); err != nil {
			return err
		}
		return tx.Delete(row).Error
	})

	return deactivated, err
}

// --------------------------------------------------
// Providers
// --------------------------------------------------

func (r *CatalogGormRepository) GetProvider(ctx context.Context, id uint) (*models.Provider, error) {
	var p models.Provider
	err := r.db.WithContext(ctx).Preload("Services").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CatalogGormRepository) ListProviders(ctx context.Context, f catalog.ProviderFilter) ([]models.Provider, error) {
	q := r.db.WithContext(ctx).Model(&models.Provider{}).Preload("Services")

	if f.Active != nil {
		q = q.Where("providers.active = ?", *f.Active)
	}

	if f.ServiceID != 0 {
		q = q.Joins("JOIN provider_services ps ON ps.provider_id = providers.id").
			Where("ps.service_id = ?", f.ServiceID)
	}

	var providers []models.Provider
	if err := q.Order("providers.id ASC").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *CatalogGormRepository) CreateProvider(ctx context.Context, p *models.Provider) error {
	return r.db.WithContext(ctx).Omit("Services.*").Create(p).Error
}

func (r *CatalogGormRepository) UpdateProvider(ctx context.Context, p *models.Provider) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *CatalogGormRepository) DeleteProvider(ctx context.Context, id uint) (bool, error) {
	var p models.Provider
	return r.deleteOrDeactivate(ctx, &p, id, "provider_id = ?", catalog.ErrProviderNotFound, func(tx *gorm.DB) error {
		return tx.Exec("DELETE FROM provider_services WHERE provider_id = ?", id).Error
	})
}

func (r *CatalogGormRepository) SetProviderServices(
	ctx context.Context,
	providerID uint,
	serviceIDs []uint,
) (*models.Provider, error) {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Provider
		if err := tx.First(&p, providerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrProviderNotFound
			}
			return err
		}

		services := []models.Service{}
		if len(serviceIDs) > 0 {
			if err := tx.Where("id IN ?", serviceIDs).Find(&services).Error; err != nil {
				return err
			}
			if len(services) != len(uniqueIDs(serviceIDs)) {
				return catalog.ErrServiceNotFound
			}
		}

		return tx.Model(&p).Association("Services").Replace(services)
	})
	if err != nil {
		return nil, err
	}

	return r.GetProvider(ctx, providerID)
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// --------------------------------------------------
// Business hours
// --------------------------------------------------

func (r *CatalogGormRepository) ListBusinessHours(ctx context.Context) ([]models.BusinessHours, error) {
	var hours []models.BusinessHours
	if err := r.db.WithContext(ctx).Order("weekday ASC").Find(&hours).Error; err != nil {
		return nil, err
	}
	return hours, nil
}

func (r *CatalogGormRepository) ReplaceBusinessHours(ctx context.Context, hours []models.BusinessHours) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.BusinessHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		return tx.Create(&hours).Error
	})
}

// Compile-time check
var _ catalog.Repository = (*CatalogGormRepository)(nil)

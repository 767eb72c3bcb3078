package catalog

import (
	"context"

	"github.com/BruksfildServices01/calendrier-rdv/internal/httperr"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

var (
	ErrServiceNotFound  = httperr.ErrBusiness("service_not_found")
	ErrProviderNotFound = httperr.ErrBusiness("provider_not_found")
)

type ServiceFilter struct {
	Category string
	Active   *bool
	Query    string
}

type ProviderFilter struct {
	Active    *bool
	ServiceID uint
}

// Reader is the read side needed by booking and availability.
type Reader interface {
	GetService(ctx context.Context, id uint) (*models.Service, error)

	// GetProvider loads the provider with its offered services.
	GetProvider(ctx context.Context, id uint) (*models.Provider, error)

	ListBusinessHours(ctx context.Context) ([]models.BusinessHours, error)
}

type Repository interface {
	Reader

	// -------- Services --------
	ListServices(ctx context.Context, f ServiceFilter) ([]models.Service, error)
	CreateService(ctx context.Context, s *models.Service) error
	UpdateService(ctx context.Context, s *models.Service) error

	// DeleteService removes the service, or only deactivates it when any
	// appointment still references it. The bool reports deactivation.
	DeleteService(ctx context.Context, id uint) (bool, error)

	// -------- Providers --------
	ListProviders(ctx context.Context, f ProviderFilter) ([]models.Provider, error)
	CreateProvider(ctx context.Context, p *models.Provider) error
	UpdateProvider(ctx context.Context, p *models.Provider) error
	DeleteProvider(ctx context.Context, id uint) (bool, error)
	SetProviderServices(ctx context.Context, providerID uint, serviceIDs []uint) (*models.Provider, error)

	// -------- Business hours --------
	ReplaceBusinessHours(ctx context.Context, hours []models.BusinessHours) error
}

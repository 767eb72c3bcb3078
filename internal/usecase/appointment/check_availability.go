package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
)

type CheckAvailabilityInput struct {
	ProviderID uint
	Start      time.Time
	End        time.Time

	// ExcludeID ignores one appointment, used when moving it.
	ExcludeID *uint
}

// CheckAvailability answers whether the provider is free on [Start, End).
// It never writes.
type CheckAvailability struct {
	repo domain.Repository
}

func NewCheckAvailability(repo domain.Repository) *CheckAvailability {
	return &CheckAvailability{repo: repo}
}

func (uc *CheckAvailability) Execute(ctx context.Context, in CheckAvailabilityInput) (bool, error) {
	if !in.Start.Before(in.End) {
		return false, domain.ErrInvalidInterval
	}

	provider, err := uc.repo.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return false, err
	}
	if !provider.Active {
		return false, domain.ErrProviderInactive
	}

	n, err := uc.repo.CountOverlapping(ctx, in.ProviderID, in.Start, in.End, in.ExcludeID)
	if err != nil {
		return false, err
	}

	return n == 0, nil
}

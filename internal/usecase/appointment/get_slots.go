package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/timezone"
)

type GetSlotsInput struct {
	ServiceID  uint
	ProviderID uint
	Date       string // YYYY-MM-DD
}

type GetSlots struct {
	repo   domain.Repository
	policy BookingPolicy
}

func NewGetSlots(repo domain.Repository, policy BookingPolicy) *GetSlots {
	return &GetSlots{repo: repo, policy: policy}
}

func (uc *GetSlots) Execute(ctx context.Context, in GetSlotsInput) ([]domain.TimeSlot, error) {
	loc := uc.policy.location()

	day, err := timezone.ParseDate(in.Date, loc)
	if err != nil {
		return nil, domain.ErrInvalidDateTime
	}

	service, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.Active {
		return nil, domain.ErrServiceInactive
	}

	provider, err := uc.repo.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.Active {
		return nil, domain.ErrProviderInactive
	}
	if !provider.Offers(service.ID) {
		return nil, domain.ErrServiceNotOffered
	}

	hours, err := uc.repo.ListBusinessHours(ctx)
	if err != nil {
		return nil, err
	}
	schedule := domain.NewSchedule(hours, loc)

	busy, err := uc.repo.ListBusy(ctx, provider.ID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	ranges := make([]domain.TimeRange, 0, len(busy))
	for i := range busy {
		ranges = append(ranges, domain.RangeOf(&busy[i]))
	}

	return schedule.GenerateSlots(domain.SlotQuery{
		Day:       day,
		Duration:  time.Duration(service.DurationMin) * time.Minute,
		Step:      uc.policy.SlotInterval,
		NotBefore: uc.policy.earliestStart(),
		Busy:      ranges,
	}), nil
}

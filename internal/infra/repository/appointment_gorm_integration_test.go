//go:build integration

package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/calendrier-rdv/internal/db"
	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/infra/repository"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

// Run with:
//
//	RDV_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/infra/repository/

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("RDV_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("RDV_TEST_DATABASE_URL not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

type fixture struct {
	repo     *repository.AppointmentGormRepository
	service  models.Service
	provider models.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := openTestDB(t)
	ctx := context.Background()
	repo := repository.NewAppointmentGormRepository(gdb)

	svc := models.Service{Name: "Consultation " + uuid.NewString()[:8], DurationMin: 30, Active: true}
	require.NoError(t, repo.CreateService(ctx, &svc))
	p := models.Provider{Name: "Dr " + uuid.NewString()[:8], Active: true}
	require.NoError(t, repo.CreateProvider(ctx, &p))

	t.Cleanup(func() {
		gdb.Where("provider_id = ?", p.ID).Delete(&models.Appointment{})
		gdb.Delete(&models.Provider{}, p.ID)
		gdb.Delete(&models.Service{}, svc.ID)
	})

	return &fixture{repo: repo, service: svc, provider: p}
}

func (f *fixture) appointment(start time.Time) *models.Appointment {
	return &models.Appointment{
		ServiceID:     f.service.ID,
		ProviderID:    f.provider.ID,
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		Status:        string(domain.StatusPending),
		CustomerName:  "Alice Durand",
		CustomerEmail: "alice@example.com",
		CancelToken:   uuid.NewString(),
	}
}

func TestCreateIfAvailable_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2030, 6, 15, 8, 0, 0, 0, time.UTC)

	const writers = 8
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.repo.CreateIfAvailable(ctx, f.appointment(start))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrTimeConflict)
	}
	assert.Equal(t, 1, won)

	n, err := f.repo.CountOverlapping(ctx, f.provider.ID, start, start.Add(30*time.Minute), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateIfAvailable_CancelledFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2030, 6, 15, 9, 0, 0, 0, time.UTC)

	first := f.appointment(start)
	first.Status = string(domain.StatusCancelled)
	require.NoError(t, f.repo.CreateIfAvailable(ctx, first))

	require.NoError(t, f.repo.CreateIfAvailable(ctx, f.appointment(start.Add(15*time.Minute))))
	assert.ErrorIs(t, f.repo.CreateIfAvailable(ctx, f.appointment(start)), domain.ErrTimeConflict)

	// touching intervals do not overlap
	assert.NoError(t, f.repo.CreateIfAvailable(ctx, f.appointment(start.Add(45*time.Minute))))
}

func TestRescheduleIfAvailable_ExcludesItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2030, 6, 15, 14, 0, 0, 0, time.UTC)

	ap := f.appointment(start)
	require.NoError(t, f.repo.CreateIfAvailable(ctx, ap))
	other := f.appointment(start.Add(time.Hour))
	require.NoError(t, f.repo.CreateIfAvailable(ctx, other))

	ap.StartTime = start.Add(15 * time.Minute)
	ap.EndTime = ap.StartTime.Add(30 * time.Minute)
	require.NoError(t, f.repo.RescheduleIfAvailable(ctx, ap))

	ap.StartTime = start.Add(time.Hour)
	ap.EndTime = ap.StartTime.Add(30 * time.Minute)
	assert.ErrorIs(t, f.repo.RescheduleIfAvailable(ctx, ap), domain.ErrTimeConflict)
}

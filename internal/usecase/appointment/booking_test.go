package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/infra/memory/memtest"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
	"github.com/BruksfildServices01/calendrier-rdv/internal/notification"
	"github.com/BruksfildServices01/calendrier-rdv/internal/validators"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
	err  error
}

func (f *fakeNotifier) Enqueue(_ context.Context, msg notification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeNotifier) sent() []notification.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification.Message(nil), f.msgs...)
}

type fixture struct {
	store    *memtest.Store
	service  models.Service
	provider models.Provider
	notifier *fakeNotifier
	policy   BookingPolicy
}

var allWeek = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

func paris(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return loc
}

func newFixture(t *testing.T, days []time.Weekday) *fixture {
	t.Helper()
	ctx := context.Background()
	loc := paris(t)

	store := memtest.NewStore()

	svc := models.Service{Name: "Consultation", DurationMin: 30, Price: 40, Active: true}
	require.NoError(t, store.CreateService(ctx, &svc))

	p := models.Provider{Name: "Dr Martin", Active: true, Services: []models.Service{svc}}
	require.NoError(t, store.CreateProvider(ctx, &p))

	require.NoError(t, store.ReplaceBusinessHours(ctx, catalog.DefaultHours("08:00", "20:00", days)))

	now := time.Date(2025, 6, 10, 8, 0, 0, 0, loc)

	return &fixture{
		store:    store,
		service:  svc,
		provider: p,
		notifier: &fakeNotifier{},
		policy: BookingPolicy{
			Location:     loc,
			MinAdvance:   2 * time.Hour,
			SlotInterval: 30 * time.Minute,
			Now:          func() time.Time { return now },
			AdminEmail:   "admin@example.com",
		},
	}
}

func (f *fixture) createBooking() *CreateBooking {
	return NewCreateBooking(f.store, f.notifier, nil, f.policy, zap.NewNop())
}

func (f *fixture) input(date, hm string) CreateBookingInput {
	return CreateBookingInput{
		ServiceID:     f.service.ID,
		ProviderID:    f.provider.ID,
		Date:          date,
		Time:          hm,
		CustomerName:  "Alice Durand",
		CustomerEmail: "Alice@Example.com",
		CustomerPhone: "+33 6 12 34 56 78",
	}
}

// seed stores an appointment directly, bypassing the booking rules.
func (f *fixture) seed(t *testing.T, start, end time.Time, status domain.Status) *models.Appointment {
	t.Helper()
	ap, err := domain.NewAppointment(domain.NewAppointmentParams{
		ServiceID:     f.service.ID,
		ProviderID:    f.provider.ID,
		Start:         start,
		End:           end,
		CustomerName:  "Bob",
		CustomerEmail: "bob@example.com",
	})
	require.NoError(t, err)
	ap.Status = string(status)
	require.NoError(t, f.store.CreateIfAvailable(context.Background(), ap))
	return ap
}

// ======================================================
// Availability
// ======================================================

func TestCheckAvailability_BoundaryCases(t *testing.T) {
	f := newFixture(t, allWeek)
	loc := f.policy.Location
	at := func(h, m int) time.Time { return time.Date(2025, 6, 16, h, m, 0, 0, loc) }

	f.seed(t, at(10, 0), at(11, 0), domain.StatusConfirmed)

	uc := NewCheckAvailability(f.store)
	ctx := context.Background()

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"overlapping end", at(10, 30), at(11, 30), false},
		{"back to back after", at(11, 0), at(12, 0), true},
		{"back to back before", at(9, 0), at(10, 0), true},
		{"enclosing", at(9, 0), at(12, 0), false},
		{"inside", at(10, 15), at(10, 45), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := uc.Execute(ctx, CheckAvailabilityInput{ProviderID: f.provider.ID, Start: tc.start, End: tc.end})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestCheckAvailability_Idempotent(t *testing.T) {
	f := newFixture(t, allWeek)
	loc := f.policy.Location
	f.seed(t, time.Date(2025, 6, 16, 10, 0, 0, 0, loc), time.Date(2025, 6, 16, 11, 0, 0, 0, loc), domain.StatusPending)

	uc := NewCheckAvailability(f.store)
	in := CheckAvailabilityInput{
		ProviderID: f.provider.ID,
		Start:      time.Date(2025, 6, 16, 10, 30, 0, 0, loc),
		End:        time.Date(2025, 6, 16, 11, 30, 0, 0, loc),
	}

	first, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := uc.Execute(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestCheckAvailability_IgnoresCancelledAndExcluded(t *testing.T) {
	f := newFixture(t, allWeek)
	loc := f.policy.Location
	start := time.Date(2025, 6, 16, 10, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	f.seed(t, start, end, domain.StatusCancelled)
	live := f.seed(t, start, end, domain.StatusPending)

	uc := NewCheckAvailability(f.store)

	ok, err := uc.Execute(context.Background(), CheckAvailabilityInput{ProviderID: f.provider.ID, Start: start, End: end})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = uc.Execute(context.Background(), CheckAvailabilityInput{ProviderID: f.provider.ID, Start: start, End: end, ExcludeID: &live.ID})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckAvailability_Preconditions(t *testing.T) {
	f := newFixture(t, allWeek)
	uc := NewCheckAvailability(f.store)
	ctx := context.Background()
	now := time.Date(2025, 6, 16, 10, 0, 0, 0, f.policy.Location)

	_, err := uc.Execute(ctx, CheckAvailabilityInput{ProviderID: f.provider.ID, Start: now, End: now})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)

	_, err = uc.Execute(ctx, CheckAvailabilityInput{ProviderID: 999, Start: now, End: now.Add(time.Hour)})
	assert.ErrorIs(t, err, catalog.ErrProviderNotFound)

	p := f.provider
	p.Active = false
	require.NoError(t, f.store.UpdateProvider(ctx, &p))

	_, err = uc.Execute(ctx, CheckAvailabilityInput{ProviderID: f.provider.ID, Start: now, End: now.Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrProviderInactive)
}

func TestGetSlots_SkipsBusyAndTooSoon(t *testing.T) {
	f := newFixture(t, allWeek)
	loc := f.policy.Location
	f.seed(t, time.Date(2025, 6, 16, 10, 0, 0, 0, loc), time.Date(2025, 6, 16, 10, 30, 0, 0, loc), domain.StatusPending)

	uc := NewGetSlots(f.store, f.policy)
	slots, err := uc.Execute(context.Background(), GetSlotsInput{
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Date:       "2025-06-16",
	})
	require.NoError(t, err)

	assert.Len(t, slots, 23)
	assert.Equal(t, "08:00", slots[0].Start)
	assert.NotContains(t, slots, domain.TimeSlot{Start: "10:00", End: "10:30"})
	assert.Contains(t, slots, domain.TimeSlot{Start: "10:30", End: "11:00"})

	// same day as the clock: nothing before 10:00
	slots, err = uc.Execute(context.Background(), GetSlotsInput{
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Date:       "2025-06-10",
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, "10:00", slots[0].Start)
}

func TestGetSlots_InvalidDate(t *testing.T) {
	f := newFixture(t, allWeek)
	_, err := NewGetSlots(f.store, f.policy).Execute(context.Background(), GetSlotsInput{
		ServiceID:  f.service.ID,
		ProviderID: f.provider.ID,
		Date:       "16/06/2025",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDateTime)
}

// ======================================================
// Booking
// ======================================================

func TestCreateBooking_EndToEnd(t *testing.T) {
	f := newFixture(t, allWeek)
	loc := f.policy.Location

	ap, err := f.createBooking().Execute(context.Background(), f.input("2025-06-15", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusPending), ap.Status)
	assert.True(t, ap.EndTime.Equal(time.Date(2025, 6, 15, 10, 30, 0, 0, loc)))
	assert.Equal(t, "alice@example.com", ap.CustomerEmail)
	assert.Equal(t, 40.0, ap.Price)
	assert.NotEmpty(t, ap.CancelToken)

	msgs := f.notifier.sent()
	require.Len(t, msgs, 2)
	assert.Equal(t, notification.TemplateBookingReceived, msgs[0].Template)
	assert.Equal(t, "alice@example.com", msgs[0].Recipient)
	assert.Equal(t, "Consultation", msgs[0].Data["ServiceName"])
	assert.Equal(t, "10:00", msgs[0].Data["Time"])
	assert.Equal(t, notification.TemplateAdminNewBooking, msgs[1].Template)
	assert.Equal(t, "admin@example.com", msgs[1].Recipient)
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t, allWeek)
	uc := f.createBooking()

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), f.input("2025-06-16", "14:00"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrTimeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)

	live := 0
	for _, ap := range f.store.All() {
		if domain.Status(ap.Status).Live() {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func TestCreateBooking_AggregatesFieldErrors(t *testing.T) {
	f := newFixture(t, allWeek)
	in := f.input("2025-13-40", "10:00")
	in.CustomerName = ""
	in.CustomerEmail = "not-an-email"

	_, err := f.createBooking().Execute(context.Background(), in)

	var verr *validators.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "customer_name")
	assert.Contains(t, verr.Fields, "customer_email")
	assert.Contains(t, verr.Fields, "date")
	assert.Empty(t, f.notifier.sent())
}

func TestCreateBooking_TooSoon(t *testing.T) {
	f := newFixture(t, allWeek)
	_, err := f.createBooking().Execute(context.Background(), f.input("2025-06-10", "09:00"))
	assert.ErrorIs(t, err, domain.ErrTooSoon)
}

func TestCreateBooking_OutsideBusinessHours(t *testing.T) {
	f := newFixture(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday})

	_, err := f.createBooking().Execute(context.Background(), f.input("2025-06-15", "10:00"))
	var verr *validators.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "date")

	_, err = f.createBooking().Execute(context.Background(), f.input("2025-06-16", "19:45"))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "end_time")
}

func TestCreateBooking_ServiceNotOffered(t *testing.T) {
	f := newFixture(t, allWeek)
	other := models.Service{Name: "Other", DurationMin: 15, Active: true}
	require.NoError(t, f.store.CreateService(context.Background(), &other))

	in := f.input("2025-06-16", "10:00")
	in.ServiceID = other.ID

	_, err := f.createBooking().Execute(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrServiceNotOffered)
}

func TestCreateBooking_NotifierFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t, allWeek)
	f.notifier.err = errors.New("redis down")

	ap, err := f.createBooking().Execute(context.Background(), f.input("2025-06-16", "10:00"))
	require.NoError(t, err)
	assert.NotZero(t, ap.ID)
}

// ======================================================
// Transitions
// ======================================================

func TestTransitions_FromCancelledRejected(t *testing.T) {
	f := newFixture(t, allWeek)
	ctx := context.Background()
	log := zap.NewNop()

	ap, err := f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	require.NoError(t, err)

	_, err = NewCancelAppointment(f.store, f.notifier, nil, f.policy, log).Execute(ctx, nil, ap.ID)
	require.NoError(t, err)

	_, err = NewConfirmAppointment(f.store, f.notifier, nil, f.policy, log).Execute(ctx, nil, ap.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = NewCompleteAppointment(f.store, nil, f.policy, log).Execute(ctx, nil, ap.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = NewCancelAppointment(f.store, f.notifier, nil, f.policy, log).Execute(ctx, nil, ap.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.store.GetAppointment(ctx, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), stored.Status)
	assert.NotNil(t, stored.CancelledAt)
}

func TestTransitions_ConfirmThenComplete(t *testing.T) {
	f := newFixture(t, allWeek)
	ctx := context.Background()
	log := zap.NewNop()

	ap, err := f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	require.NoError(t, err)

	confirmed, err := NewConfirmAppointment(f.store, f.notifier, nil, f.policy, log).Execute(ctx, nil, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), confirmed.Status)

	msgs := f.notifier.sent()
	assert.Equal(t, notification.TemplateBookingConfirmed, msgs[len(msgs)-1].Template)

	done, err := NewCompleteAppointment(f.store, nil, f.policy, log).Execute(ctx, nil, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
}

func TestCancelByToken_FreesSlot(t *testing.T) {
	f := newFixture(t, allWeek)
	ctx := context.Background()

	ap, err := f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	require.NoError(t, err)

	_, err = NewCancelByToken(f.store, f.notifier, nil, f.policy, zap.NewNop()).Execute(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)

	cancelled, err := NewCancelByToken(f.store, f.notifier, nil, f.policy, zap.NewNop()).Execute(ctx, ap.CancelToken)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), cancelled.Status)

	msgs := f.notifier.sent()
	assert.Equal(t, notification.TemplateBookingCancelled, msgs[len(msgs)-1].Template)

	_, err = f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	assert.NoError(t, err)
}

// ======================================================
// Reschedule / delete / listings
// ======================================================

func TestReschedule(t *testing.T) {
	f := newFixture(t, allWeek)
	ctx := context.Background()
	loc := f.policy.Location

	first, err := f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	require.NoError(t, err)
	_, err = f.createBooking().Execute(ctx, f.input("2025-06-16", "11:00"))
	require.NoError(t, err)

	uc := NewRescheduleAppointment(f.store, nil, f.policy, zap.NewNop())

	_, err = uc.Execute(ctx, RescheduleInput{ID: first.ID, Date: "2025-06-16", Time: "11:15"})
	assert.ErrorIs(t, err, domain.ErrTimeConflict)

	// overlapping only itself
	moved, err := uc.Execute(ctx, RescheduleInput{ID: first.ID, Date: "2025-06-16", Time: "10:15"})
	require.NoError(t, err)
	assert.True(t, moved.StartTime.Equal(time.Date(2025, 6, 16, 10, 15, 0, 0, loc)))
	assert.True(t, moved.EndTime.Equal(time.Date(2025, 6, 16, 10, 45, 0, 0, loc)))

	_, err = uc.Execute(ctx, RescheduleInput{ID: first.ID, Date: "2025-06-16", Time: "07:00"})
	var verr *validators.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteAppointment(t *testing.T) {
	f := newFixture(t, allWeek)
	ctx := context.Background()

	ap, err := f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	require.NoError(t, err)

	uc := NewDeleteAppointment(f.store, nil)
	require.NoError(t, uc.Execute(ctx, nil, ap.ID))
	assert.ErrorIs(t, uc.Execute(ctx, nil, ap.ID), domain.ErrAppointmentNotFound)
}

func TestListings(t *testing.T) {
	f := newFixture(t, allWeek)
	ctx := context.Background()

	_, err := f.createBooking().Execute(ctx, f.input("2025-06-16", "10:00"))
	require.NoError(t, err)
	_, err = f.createBooking().Execute(ctx, f.input("2025-06-16", "09:00"))
	require.NoError(t, err)
	_, err = f.createBooking().Execute(ctx, f.input("2025-06-20", "09:00"))
	require.NoError(t, err)

	day, err := NewListAppointmentsByDate(f.store, f.policy).Execute(ctx, ListAppointmentsByDateInput{Date: "2025-06-16"})
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "Consultation", day[0].ServiceName)
	assert.True(t, day[0].StartTime.Before(day[1].StartTime))

	_, err = NewListAppointmentsByDate(f.store, f.policy).Execute(ctx, ListAppointmentsByDateInput{Date: "2025-06-16", Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	month, err := NewCalendar(f.store, f.policy).Execute(ctx, CalendarInput{Year: 2025, Month: 6})
	require.NoError(t, err)
	require.Len(t, month, 30)
	assert.Equal(t, "2025-06-16", month[15].Date)
	assert.Equal(t, 2, month[15].Count)
	assert.Equal(t, 1, month[19].Count)
	assert.Equal(t, 0, month[0].Count)

	_, err = NewCalendar(f.store, f.policy).Execute(ctx, CalendarInput{Year: 2025, Month: 13})
	assert.ErrorIs(t, err, domain.ErrInvalidDateTime)
}

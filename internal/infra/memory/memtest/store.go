// Package memtest is an in-memory booking store for tests. Every operation
// runs under one mutex, so check-and-insert is atomic exactly as in the
// PostgreSQL implementation.
package memtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/calendrier-rdv/internal/domain/appointment"
	"github.com/BruksfildServices01/calendrier-rdv/internal/domain/catalog"
	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

type Store struct {
	mu sync.Mutex

	seq          uint
	services     map[uint]models.Service
	providers    map[uint]models.Provider
	offers       map[uint]map[uint]bool // provider -> services
	appointments map[uint]models.Appointment
	hours        []models.BusinessHours
}

func NewStore() *Store {
	return &Store{
		services:     map[uint]models.Service{},
		providers:    map[uint]models.Provider{},
		offers:       map[uint]map[uint]bool{},
		appointments: map[uint]models.Appointment{},
	}
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

// --------------------------------------------------
// Services
// --------------------------------------------------

func (s *Store) GetService(_ context.Context, id uint) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return &svc, nil
}

func (s *Store) ListServices(_ context.Context, f catalog.ServiceFilter) ([]models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category := strings.ToLower(strings.TrimSpace(f.Category))
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := []models.Service{}
	for _, svc := range s.services {
		if category != "" && strings.ToLower(svc.Category) != category {
			continue
		}
		if f.Active != nil && svc.Active != *f.Active {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(svc.Name), query) &&
			!strings.Contains(strings.ToLower(svc.Description), query) {
			continue
		}
		out = append(out, svc)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateService(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc.ID = s.nextID()
	svc.CreatedAt = time.Now()
	svc.UpdatedAt = svc.CreatedAt
	s.services[svc.ID] = *svc
	return nil
}

func (s *Store) UpdateService(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[svc.ID]; !ok {
		return catalog.ErrServiceNotFound
	}
	svc.UpdatedAt = time.Now()
	s.services[svc.ID] = *svc
	return nil
}

func (s *Store) DeleteService(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return false, catalog.ErrServiceNotFound
	}

	for _, ap := range s.appointments {
		if ap.ServiceID == id {
			svc.Active = false
			s.services[id] = svc
			return true, nil
		}
	}

	delete(s.services, id)
	for _, set := range s.offers {
		delete(set, id)
	}
	return false, nil
}

// --------------------------------------------------
// Providers
// --------------------------------------------------

func (s *Store) loadProvider(id uint) (models.Provider, bool) {
	p, ok := s.providers[id]
	if !ok {
		return p, false
	}

	p.Services = []models.Service{}
	for sid := range s.offers[id] {
		if svc, ok := s.services[sid]; ok {
			p.Services = append(p.Services, svc)
		}
	}
	sort.Slice(p.Services, func(i, j int) bool { return p.Services[i].ID < p.Services[j].ID })
	return p, true
}

func (s *Store) GetProvider(_ context.Context, id uint) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.loadProvider(id)
	if !ok {
		return nil, catalog.ErrProviderNotFound
	}
	return &p, nil
}

func (s *Store) ListProviders(_ context.Context, f catalog.ProviderFilter) ([]models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Provider{}
	for id := range s.providers {
		p, _ := s.loadProvider(id)
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		if f.ServiceID != 0 && !s.offers[id][f.ServiceID] {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateProvider(_ context.Context, p *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	set := map[uint]bool{}
	for _, svc := range p.Services {
		set[svc.ID] = true
	}
	s.offers[p.ID] = set

	stored := *p
	stored.Services = nil
	s.providers[p.ID] = stored
	return nil
}

func (s *Store) UpdateProvider(_ context.Context, p *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[p.ID]; !ok {
		return catalog.ErrProviderNotFound
	}
	p.UpdatedAt = time.Now()

	stored := *p
	stored.Services = nil
	s.providers[p.ID] = stored
	return nil
}

func (s *Store) DeleteProvider(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[id]
	if !ok {
		return false, catalog.ErrProviderNotFound
	}

	for _, ap := range s.appointments {
		if ap.ProviderID == id {
			p.Active = false
			s.providers[id] = p
			return true, nil
		}
	}

	delete(s.providers, id)
	delete(s.offers, id)
	return false, nil
}

func (s *Store) SetProviderServices(_ context.Context, providerID uint, serviceIDs []uint) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[providerID]; !ok {
		return nil, catalog.ErrProviderNotFound
	}

	set := map[uint]bool{}
	for _, sid := range serviceIDs {
		if _, ok := s.services[sid]; !ok {
			return nil, catalog.ErrServiceNotFound
		}
		set[sid] = true
	}
	s.offers[providerID] = set

	p, _ := s.loadProvider(providerID)
	return &p, nil
}

// --------------------------------------------------
// Business hours
// --------------------------------------------------

func (s *Store) ListBusinessHours(_ context.Context) ([]models.BusinessHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.BusinessHours, len(s.hours))
	copy(out, s.hours)
	return out, nil
}

func (s *Store) ReplaceBusinessHours(_ context.Context, hours []models.BusinessHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hours = make([]models.BusinessHours, len(hours))
	copy(s.hours, hours)
	catalog.SortHours(s.hours)
	for i := range s.hours {
		s.hours[i].ID = uint(i + 1)
	}
	return nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (s *Store) overlapping(providerID uint, start, end time.Time, excludeID *uint) []models.Appointment {
	want := domain.TimeRange{Start: start, End: end}

	var out []models.Appointment
	for _, ap := range s.appointments {
		if ap.ProviderID != providerID || ap.Status == string(domain.StatusCancelled) {
			continue
		}
		if excludeID != nil && ap.ID == *excludeID {
			continue
		}
		if domain.RangeOf(&ap).Overlaps(want) {
			out = append(out, ap)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *Store) CountOverlapping(_ context.Context, providerID uint, start, end time.Time, excludeID *uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.overlapping(providerID, start, end, excludeID))), nil
}

func (s *Store) ListBusy(_ context.Context, providerID uint, from, to time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.overlapping(providerID, from, to, nil), nil
}

// --------------------------------------------------
// Appointment (create / move)
// --------------------------------------------------

func (s *Store) checkProvider(id uint) error {
	p, ok := s.providers[id]
	if !ok {
		return catalog.ErrProviderNotFound
	}
	if !p.Active {
		return domain.ErrProviderInactive
	}
	return nil
}

func (s *Store) CreateIfAvailable(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkProvider(ap.ProviderID); err != nil {
		return err
	}
	if len(s.overlapping(ap.ProviderID, ap.StartTime, ap.EndTime, nil)) > 0 {
		return domain.ErrTimeConflict
	}

	ap.ID = s.nextID()
	ap.CreatedAt = time.Now()
	ap.UpdatedAt = ap.CreatedAt
	s.appointments[ap.ID] = *ap
	return nil
}

func (s *Store) RescheduleIfAvailable(_ context.Context, ap *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.appointments[ap.ID]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	if !domain.Status(current.Status).Live() {
		return domain.ErrInvalidTransition
	}
	if err := s.checkProvider(ap.ProviderID); err != nil {
		return err
	}
	if len(s.overlapping(ap.ProviderID, ap.StartTime, ap.EndTime, &ap.ID)) > 0 {
		return domain.ErrTimeConflict
	}

	current.ProviderID = ap.ProviderID
	current.StartTime = ap.StartTime
	current.EndTime = ap.EndTime
	current.UpdatedAt = time.Now()
	s.appointments[ap.ID] = current
	return nil
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (s *Store) withRelations(ap models.Appointment) *models.Appointment {
	ap.Service = s.services[ap.ServiceID]
	ap.Provider = s.providers[ap.ProviderID]
	return &ap
}

func (s *Store) GetAppointment(_ context.Context, id uint) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ap, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return s.withRelations(ap), nil
}

func (s *Store) GetAppointmentByCancelToken(_ context.Context, token string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ap := range s.appointments {
		if token != "" && ap.CancelToken == token {
			return s.withRelations(ap), nil
		}
	}
	return nil, domain.ErrAppointmentNotFound
}

func (s *Store) SaveTransition(_ context.Context, ap *models.Appointment, from domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.appointments[ap.ID]
	if !ok || current.Status != string(from) {
		return domain.ErrInvalidTransition
	}

	current.Status = ap.Status
	current.ConfirmedAt = ap.ConfirmedAt
	current.CancelledAt = ap.CancelledAt
	current.CompletedAt = ap.CompletedAt
	current.UpdatedAt = time.Now()
	s.appointments[ap.ID] = current
	return nil
}

func (s *Store) DeleteAppointment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return domain.ErrAppointmentNotFound
	}
	delete(s.appointments, id)
	return nil
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (s *Store) ListAppointments(_ context.Context, f domain.ListFilter) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Appointment{}
	for _, ap := range s.appointments {
		if ap.StartTime.Before(f.From) || !ap.StartTime.Before(f.To) {
			continue
		}
		if f.ProviderID != 0 && ap.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && ap.Status != string(f.Status) {
			continue
		}
		out = append(out, *s.withRelations(ap))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// All returns every stored appointment, for assertions.
func (s *Store) All() []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Appointment, 0, len(s.appointments))
	for _, ap := range s.appointments {
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var (
	_ domain.Repository  = (*Store)(nil)
	_ catalog.Repository = (*Store)(nil)
)

// Package memory is a mutex-guarded in-process implementation of storage.Store,
// used for development, tests and the DATA_BACKEND=memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gestmais/internal/core"
	"gestmais/internal/storage"
)

type paymentKey struct {
	apartmentID int64
	month       int
	year        int
}

type installmentKey struct {
	projectID   int64
	apartmentID int64
	number      int
}

type Store struct {
	mu           sync.Mutex
	nextID       int64
	buildings    map[int64]core.Building
	apartments   map[int64]core.Apartment
	residents    map[string]int64
	payments     map[paymentKey]core.RegularPayment
	projects     map[int64]core.ExtraordinaryProject
	installments map[installmentKey]core.ExtraordinaryInstallment
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		buildings:    make(map[int64]core.Building),
		apartments:   make(map[int64]core.Apartment),
		residents:    make(map[string]int64),
		payments:     make(map[paymentKey]core.RegularPayment),
		projects:     make(map[int64]core.ExtraordinaryProject),
		installments: make(map[installmentKey]core.ExtraordinaryInstallment),
	}
}

// NewFromSeedFile returns a store populated from a JSON seed file.
// An empty path yields an empty store.
func NewFromSeedFile(ctx context.Context, path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	seed, err := storage.LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	if err := storage.ApplySeed(ctx, s, seed); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) GetBuilding(_ context.Context, buildingID int64) (core.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buildings[buildingID]
	if !ok {
		return core.Building{}, fmt.Errorf("building %d: %w", buildingID, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) ListApartments(_ context.Context, buildingID int64) ([]core.Apartment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Apartment
	for _, a := range s.apartments {
		if a.BuildingID == buildingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Unit != out[j].Unit {
			return out[i].Unit < out[j].Unit
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetApartment(_ context.Context, apartmentID int64) (storage.ApartmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(apartmentID)
}

func (s *Store) GetResidentApartment(_ context.Context, userID string) (storage.ApartmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.residents[userID]
	if !ok || userID == "" {
		return storage.ApartmentRecord{}, fmt.Errorf("resident %q: %w", userID, storage.ErrNotFound)
	}
	return s.recordLocked(id)
}

func (s *Store) recordLocked(apartmentID int64) (storage.ApartmentRecord, error) {
	a, ok := s.apartments[apartmentID]
	if !ok {
		return storage.ApartmentRecord{}, fmt.Errorf("apartment %d: %w", apartmentID, storage.ErrNotFound)
	}
	b, ok := s.buildings[a.BuildingID]
	if !ok {
		return storage.ApartmentRecord{}, fmt.Errorf("building %d: %w", a.BuildingID, storage.ErrNotFound)
	}
	return storage.ApartmentRecord{Apartment: a, Building: b}, nil
}

func (s *Store) ListRegularPayments(_ context.Context, apartmentID int64, year int) ([]core.RegularPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RegularPayment
	for k, p := range s.payments {
		if k.apartmentID == apartmentID && k.year == year {
			out = append(out, p)
		}
	}
	sortPayments(out)
	return out, nil
}

func (s *Store) ListBuildingRegularPayments(_ context.Context, buildingID int64, year int) ([]core.RegularPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RegularPayment
	for k, p := range s.payments {
		if k.year != year {
			continue
		}
		if a, ok := s.apartments[k.apartmentID]; ok && a.BuildingID == buildingID {
			out = append(out, p)
		}
	}
	sortPayments(out)
	return out, nil
}

func sortPayments(ps []core.RegularPayment) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Month != ps[j].Month {
			return ps[i].Month < ps[j].Month
		}
		return ps[i].ApartmentID < ps[j].ApartmentID
	})
}

func (s *Store) ListActiveProjects(_ context.Context, buildingID int64) ([]core.ExtraordinaryProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ExtraordinaryProject
	for _, p := range s.projects {
		if p.BuildingID == buildingID && p.Status == core.ProjectActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListInstallments(_ context.Context, filter storage.InstallmentFilter) ([]core.ExtraordinaryInstallment, error) {
	if filter.ProjectIDs != nil && len(filter.ProjectIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[int64]struct{}, len(filter.ProjectIDs))
	for _, id := range filter.ProjectIDs {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ExtraordinaryInstallment
	for _, it := range s.installments {
		if filter.ApartmentID != 0 && it.ApartmentID != filter.ApartmentID {
			continue
		}
		if filter.ProjectIDs != nil {
			if _, ok := wanted[it.ProjectID]; !ok {
				continue
			}
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		if a.ApartmentID != b.ApartmentID {
			return a.ApartmentID < b.ApartmentID
		}
		return a.Number < b.Number
	})
	return out, nil
}

func (s *Store) UpsertRegularPayment(_ context.Context, p core.RegularPayment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apartments[p.ApartmentID]; !ok {
		return fmt.Errorf("apartment %d: %w", p.ApartmentID, storage.ErrNotFound)
	}
	s.payments[paymentKey{p.ApartmentID, p.Month, p.Year}] = p
	return nil
}

func (s *Store) CreateBuilding(_ context.Context, b core.Building) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.buildings[b.ID] = b
	return b.ID, nil
}

func (s *Store) CreateApartment(_ context.Context, a core.Apartment) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buildings[a.BuildingID]; !ok {
		return 0, fmt.Errorf("building %d: %w", a.BuildingID, storage.ErrNotFound)
	}
	if a.ResidentID != "" {
		if _, taken := s.residents[a.ResidentID]; taken {
			return 0, fmt.Errorf("resident %q already has an apartment", a.ResidentID)
		}
	}
	s.nextID++
	a.ID = s.nextID
	s.apartments[a.ID] = a
	if a.ResidentID != "" {
		s.residents[a.ResidentID] = a.ID
	}
	return a.ID, nil
}

func (s *Store) CreateProject(_ context.Context, p core.ExtraordinaryProject) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buildings[p.BuildingID]; !ok {
		return 0, fmt.Errorf("building %d: %w", p.BuildingID, storage.ErrNotFound)
	}
	s.nextID++
	p.ID = s.nextID
	s.projects[p.ID] = p
	return p.ID, nil
}

func (s *Store) UpsertInstallment(_ context.Context, i core.ExtraordinaryInstallment) error {
	if err := i.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[i.ProjectID]; !ok {
		return fmt.Errorf("project %d: %w", i.ProjectID, storage.ErrNotFound)
	}
	if _, ok := s.apartments[i.ApartmentID]; !ok {
		return fmt.Errorf("apartment %d: %w", i.ApartmentID, storage.ErrNotFound)
	}
	s.installments[installmentKey{i.ProjectID, i.ApartmentID, i.Number}] = i
	return nil
}

package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/picklesmaker/pickles/internal/models"
)

// MemoryStore is an in-memory Store, mostly for tests and demos.
type MemoryStore struct {
	mu sync.RWMutex

	brands      map[uint64]models.Brand
	vehicles    map[uint64]models.VehicleModel
	series      map[uint64]models.Series
	packages    map[uint64]models.Package
	years       map[uint64]models.Year
	generations []models.Generation
	rules       []models.Rule
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		brands:   map[uint64]models.Brand{},
		vehicles: map[uint64]models.VehicleModel{},
		series:   map[uint64]models.Series{},
		packages: map[uint64]models.Package{},
		years:    map[uint64]models.Year{},
	}
}

// AddBrand stores b.
func (m *MemoryStore) AddBrand(b models.Brand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brands[b.ID] = b
}

// AddVehicleModel stores v.
func (m *MemoryStore) AddVehicleModel(v models.VehicleModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = v
}

// AddSeries stores s.
func (m *MemoryStore) AddSeries(s models.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.ID] = s
}

// AddPackage stores p.
func (m *MemoryStore) AddPackage(p models.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.ID] = p
}

// AddYear stores y.
func (m *MemoryStore) AddYear(y models.Year) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.years[y.ID] = y
}

// AddGeneration stores g together with its Packages.
func (m *MemoryStore) AddGeneration(g models.Generation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations = append(m.generations, g)
}

// AddRule stores r. Its items must carry their content items.
func (m *MemoryStore) AddRule(r models.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, r)
}

// Brand returns the brand with id.
func (m *MemoryStore) Brand(_ context.Context, id uint64) (*models.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.brands[id]; ok {
		return &row, nil
	}
	return nil, ErrNotFound
}

// VehicleModel returns the model with id.
func (m *MemoryStore) VehicleModel(_ context.Context, id uint64) (*models.VehicleModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.vehicles[id]; ok {
		return &row, nil
	}
	return nil, ErrNotFound
}

// Series returns the series with id.
func (m *MemoryStore) Series(_ context.Context, id uint64) (*models.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.series[id]; ok {
		return &row, nil
	}
	return nil, ErrNotFound
}

// Package returns the package with id.
func (m *MemoryStore) Package(_ context.Context, id uint64) (*models.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.packages[id]; ok {
		return &row, nil
	}
	return nil, ErrNotFound
}

// Year returns the year with id.
func (m *MemoryStore) Year(_ context.Context, id uint64) (*models.Year, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row, ok := m.years[id]; ok {
		return &row, nil
	}
	return nil, ErrNotFound
}

// GenerationsCovering returns matching generations, preferred first.
func (m *MemoryStore) GenerationsCovering(_ context.Context, brandID, modelID uint64, year int) ([]models.Generation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Generation
	for _, g := range m.generations {
		if g.BrandID != brandID || g.ModelID != modelID || !g.Covers(year) {
			continue
		}
		out = append(out, m.withRelations(g))
	}
	SortGenerations(out)
	return out, nil
}

// withRelations fills in brand, model and series from the store when absent.
func (m *MemoryStore) withRelations(g models.Generation) models.Generation {
	if g.Brand == nil {
		if b, ok := m.brands[g.BrandID]; ok {
			g.Brand = &b
		}
	}
	if g.Model == nil {
		if v, ok := m.vehicles[g.ModelID]; ok {
			g.Model = &v
		}
	}
	if g.Series == nil && g.SeriesID != nil {
		if s, ok := m.series[*g.SeriesID]; ok {
			g.Series = &s
		}
	}
	return g
}

// GenerationPackages returns the packages of a generation ordered by name.
func (m *MemoryStore) GenerationPackages(_ context.Context, generationID uint64) ([]models.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.generations {
		if g.ID != generationID {
			continue
		}
		out := append([]models.Package(nil), g.Packages...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}
	return nil, nil
}

// Rules returns a copy of the stored rules.
func (m *MemoryStore) Rules(_ context.Context) ([]models.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Rule(nil), m.rules...), nil
}

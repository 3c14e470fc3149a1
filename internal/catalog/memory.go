package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	sizingerrors "picks-sizing/pkg/errors"
)

// Memory is an in-memory catalog. It backs the CLI, tests and small
// single-node deployments that load the catalog from a seed file.
type Memory struct {
	mu       sync.RWMutex
	profiles []UnitResourceProfile
	models   []HardwareModel
}

// NewMemory creates a catalog holding copies of the given rows.
func NewMemory(profiles []UnitResourceProfile, models []HardwareModel) *Memory {
	m := &Memory{}
	m.Replace(profiles, models)
	return m
}

// Replace swaps the whole snapshot. Rows without an ID get one.
func (m *Memory) Replace(profiles []UnitResourceProfile, models []HardwareModel) {
	p := make([]UnitResourceProfile, len(profiles))
	copy(p, profiles)
	for i := range p {
		if p[i].ID == "" {
			p[i].ID = uuid.NewString()
		}
	}
	ms := make([]HardwareModel, len(models))
	copy(ms, models)
	for i := range ms {
		if ms[i].ID == "" {
			ms[i].ID = uuid.NewString()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = p
	m.models = ms
}

// AddProfile appends a profile row.
func (m *Memory) AddProfile(p UnitResourceProfile) UnitResourceProfile {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, p)
	return p
}

// AddModel appends a hardware model row.
func (m *Memory) AddModel(hm HardwareModel) HardwareModel {
	if hm.ID == "" {
		hm.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = append(m.models, hm)
	return hm
}

// Profiles returns every profile whose product type is listed, in insertion order.
func (m *Memory) Profiles(ctx context.Context, productTypes []string) ([]UnitResourceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(productTypes))
	for _, t := range productTypes {
		wanted[t] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UnitResourceProfile, 0, len(productTypes))
	for _, p := range m.profiles {
		if wanted[p.ProductType] {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListProfiles returns every profile row.
func (m *Memory) ListProfiles(ctx context.Context) ([]UnitResourceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UnitResourceProfile, len(m.profiles))
	copy(out, m.profiles)
	return out, nil
}

// Models returns a copy of the model catalog sorted by capacity.
func (m *Memory) Models(ctx context.Context) ([]HardwareModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]HardwareModel, len(m.models))
	copy(out, m.models)
	m.mu.RUnlock()

	SortByCapacity(out)
	return out, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// GetProfile retrieves a profile by ID
func (m *Memory) GetProfile(ctx context.Context, id string) (*UnitResourceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, sizingerrors.NewNotFoundError("profile", id)
}

// CreateProfile validates and appends a profile.
func (m *Memory) CreateProfile(ctx context.Context, p UnitResourceProfile) (*UnitResourceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = ""
	created := m.AddProfile(p)
	return &created, nil
}

// UpdateProfile replaces a profile in place.
func (m *Memory) UpdateProfile(ctx context.Context, id string, p UnitResourceProfile) (*UnitResourceProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = id
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.profiles {
		if m.profiles[i].ID == id {
			m.profiles[i] = p
			return &p, nil
		}
	}
	return nil, sizingerrors.NewNotFoundError("profile", id)
}

// DeleteProfile removes a profile.
func (m *Memory) DeleteProfile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.profiles {
		if m.profiles[i].ID == id {
			m.profiles = append(m.profiles[:i], m.profiles[i+1:]...)
			return nil
		}
	}
	return sizingerrors.NewNotFoundError("profile", id)
}

// ListModels is Models under the admin name.
func (m *Memory) ListModels(ctx context.Context) ([]HardwareModel, error) {
	return m.Models(ctx)
}

// GetModel retrieves a model by ID
func (m *Memory) GetModel(ctx context.Context, id string) (*HardwareModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, hm := range m.models {
		if hm.ID == id {
			return &hm, nil
		}
	}
	return nil, sizingerrors.NewNotFoundError("model", id)
}

// CreateModel validates and appends a model.
func (m *Memory) CreateModel(ctx context.Context, hm HardwareModel) (*HardwareModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	hm.ID = ""
	created := m.AddModel(hm)
	return &created, nil
}

// UpdateModel replaces a model in place.
func (m *Memory) UpdateModel(ctx context.Context, id string, hm HardwareModel) (*HardwareModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	hm.ID = id
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.models {
		if m.models[i].ID == id {
			m.models[i] = hm
			return &hm, nil
		}
	}
	return nil, sizingerrors.NewNotFoundError("model", id)
}

// DeleteModel removes a model.
func (m *Memory) DeleteModel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.models {
		if m.models[i].ID == id {
			m.models = append(m.models[:i], m.models[i+1:]...)
			return nil
		}
	}
	return sizingerrors.NewNotFoundError("model", id)
}

// =============================================================================
// SEED FILES
// =============================================================================

// Seed is the on-disk catalog format.
type Seed struct {
	Profiles []UnitResourceProfile `yaml:"profiles"`
	Models   []HardwareModel       `yaml:"models"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}
	for i, hm := range seed.Models {
		if err := hm.Validate(); err != nil {
			return nil, fmt.Errorf("seed model %d (%s): %w", i, hm.Model, err)
		}
	}
	return &seed, nil
}

// NewMemoryFromSeed loads a seed file into a fresh in-memory catalog.
func NewMemoryFromSeed(path string) (*Memory, error) {
	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(seed.Profiles, seed.Models), nil
}

package profile

import (
	"fmt"

	"rendersync/internal/domain"
)

// Registry holds all render profiles.
// This is the in-memory profile store for now.
// Future: load additional profiles from the project config.
type Registry struct {
	profiles map[string]RenderProfile
	order    []string
}

// NewRegistry creates a registry with all default profiles.
func NewRegistry() *Registry {
	r := &Registry{
		profiles: make(map[string]RenderProfile),
	}

	// Register default profiles
	r.Register(NewShortsProfile())
	r.Register(NewLongformProfile())
	r.Register(NewGenericProfile())

	return r
}

// NewRegistryWithProfiles creates a registry with custom profiles (for testing).
func NewRegistryWithProfiles(profiles ...RenderProfile) *Registry {
	r := &Registry{
		profiles: make(map[string]RenderProfile),
	}
	for _, p := range profiles {
		r.Register(p)
	}
	return r
}

// Register adds a profile to the registry.
func (r *Registry) Register(p RenderProfile) {
	if _, exists := r.profiles[p.ID()]; !exists {
		r.order = append(r.order, p.ID())
	}
	r.profiles[p.ID()] = p
}

// Get returns a profile by ID.
func (r *Registry) Get(id string) (RenderProfile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// GetAll returns all registered profiles in registration order.
func (r *Registry) GetAll() []RenderProfile {
	result := make([]RenderProfile, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.profiles[id])
	}
	return result
}

// List returns all profile IDs in registration order.
func (r *Registry) List() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// RegistryProfileStore adapts Registry to the domain.ProfileStore interface.
type RegistryProfileStore struct {
	registry *Registry
}

// NewProfileStore creates a ProfileStore backed by the default Registry.
func NewProfileStore() domain.ProfileStore {
	return &RegistryProfileStore{registry: NewRegistry()}
}

// NewProfileStoreWith creates a ProfileStore over an explicit registry (for testing).
func NewProfileStoreWith(registry *Registry) domain.ProfileStore {
	return &RegistryProfileStore{registry: registry}
}

func (s *RegistryProfileStore) GetAll() []domain.Profile {
	profiles := s.registry.GetAll()
	result := make([]domain.Profile, len(profiles))
	for i, p := range profiles {
		result[i] = ToProfile(p)
	}
	return result
}

func (s *RegistryProfileStore) GetByID(id string) (*domain.Profile, error) {
	p, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", id)
	}
	prof := ToProfile(p)
	return &prof, nil
}

func (s *RegistryProfileStore) List() []string {
	return s.registry.List()
}

// Ensure RegistryProfileStore implements domain.ProfileStore.
var _ domain.ProfileStore = (*RegistryProfileStore)(nil)

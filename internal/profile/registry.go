package profile

import (
	"fmt"
	"sort"

	"github.com/devin-dcc/devin/internal/domain"
)

// Registry holds all application profiles.
type Registry struct {
	profiles map[domain.ApplicationKind]*Profile
}

// NewRegistry creates a registry with all supported applications.
func NewRegistry() *Registry {
	r := &Registry{
		profiles: make(map[domain.ApplicationKind]*Profile),
	}

	r.Register(NewMayaProfile())
	r.Register(NewMayapyProfile())
	r.Register(NewMotionBuilderProfile())
	r.Register(NewMobupyProfile())
	r.Register(NewBlenderProfile())

	return r
}

// NewRegistryWithProfiles creates a registry with custom profiles (for testing).
func NewRegistryWithProfiles(profiles ...*Profile) *Registry {
	r := &Registry{
		profiles: make(map[domain.ApplicationKind]*Profile),
	}
	for _, p := range profiles {
		r.Register(p)
	}
	return r
}

// Register adds a profile to the registry.
func (r *Registry) Register(p *Profile) {
	r.profiles[p.Kind] = p
}

// Get returns a profile by kind.
func (r *Registry) Get(kind domain.ApplicationKind) (*Profile, bool) {
	p, ok := r.profiles[kind]
	return p, ok
}

// Lookup returns a profile by kind name.
func (r *Registry) Lookup(name string) (*Profile, error) {
	p, ok := r.profiles[domain.ApplicationKind(name)]
	if !ok {
		return nil, fmt.Errorf("unknown application %q (supported: %v)", name, r.List())
	}
	return p, nil
}

// GetAll returns all registered profiles sorted by kind.
func (r *Registry) GetAll() []*Profile {
	result := make([]*Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Kind < result[j].Kind })
	return result
}

// List returns all kinds, sorted.
func (r *Registry) List() []domain.ApplicationKind {
	kinds := make([]domain.ApplicationKind, 0, len(r.profiles))
	for k := range r.profiles {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

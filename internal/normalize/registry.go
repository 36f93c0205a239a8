package normalize

import (
	"fmt"
	"sort"

	"DivPulse/internal/domain/service"
)

// Registry resolves normalizer variants by name so new variants plug in
// without touching call sites.
type Registry struct {
	byName map[string]service.Normalizer
}

// NewRegistry builds a registry over the given normalizers.
func NewRegistry(normalizers ...service.Normalizer) *Registry {
	r := &Registry{byName: make(map[string]service.Normalizer, len(normalizers))}
	for _, n := range normalizers {
		r.byName[n.Variant()] = n
	}
	return r
}

// DefaultRegistry returns a registry with the built-in variants.
func DefaultRegistry() *Registry {
	return NewRegistry(NewLevels(), NewVelocity())
}

// Get resolves a variant by name.
func (r *Registry) Get(variant string) (service.Normalizer, error) {
	n, ok := r.byName[variant]
	if !ok {
		return nil, fmt.Errorf("unknown normalizer variant %q", variant)
	}
	return n, nil
}

// Variants lists registered variant names, sorted.
func (r *Registry) Variants() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

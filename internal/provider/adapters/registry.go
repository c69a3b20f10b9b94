package adapters

import (
	"sort"
	"strings"

	"github.com/devcosts/devcosts/internal/provider/domain"
)

// Registry holds every known adapter keyed by provider id. Placeholder
// adapters are listed for the catalog but excluded from ListActive, so
// the orchestrator never schedules them.
type Registry struct {
	adapters map[string]domain.Adapter
	order    []string
}

func NewRegistry(list ...domain.Adapter) *Registry {
	registry := &Registry{adapters: map[string]domain.Adapter{}}
	for _, adapter := range list {
		if adapter == nil {
			continue
		}
		id := strings.ToLower(strings.TrimSpace(adapter.ID()))
		if id == "" {
			continue
		}
		if _, exists := registry.adapters[id]; !exists {
			registry.order = append(registry.order, id)
		}
		registry.adapters[id] = adapter
	}
	return registry
}

func (r *Registry) Exists(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.adapters[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

// Resolve returns the adapter for id, placeholder or not.
func (r *Registry) Resolve(id string) (domain.Adapter, error) {
	if r == nil {
		return nil, domain.ErrUnknownProvider
	}
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return adapter, nil
}

// ListAll returns every registered adapter in registration order.
func (r *Registry) ListAll() []domain.Adapter {
	if r == nil {
		return nil
	}
	out := make([]domain.Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// ListActive returns the adapters that can actually sync usage.
func (r *Registry) ListActive() []domain.Adapter {
	var out []domain.Adapter
	for _, adapter := range r.ListAll() {
		if _, placeholder := adapter.(*Placeholder); placeholder {
			continue
		}
		out = append(out, adapter)
	}
	return out
}

// Active reports whether id belongs to a fully implemented adapter.
func (r *Registry) Active(id string) bool {
	adapter, err := r.Resolve(id)
	if err != nil {
		return false
	}
	_, placeholder := adapter.(*Placeholder)
	return !placeholder
}

// ActiveIDs returns the sorted ids of active adapters.
func (r *Registry) ActiveIDs() []string {
	var ids []string
	for _, adapter := range r.ListActive() {
		ids = append(ids, adapter.ID())
	}
	sort.Strings(ids)
	return ids
}

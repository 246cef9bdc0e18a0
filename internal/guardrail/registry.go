package guardrail

import (
	"fmt"
	"sync"
)

// Registry is the catalog of available guardrails. It is constructed
// explicitly at startup and passed into the orchestration layer; there is
// no process-wide singleton. Registration happens once per identifier
// during initialization, reads are frequent and concurrent afterwards.
type Registry struct {
	mu         sync.RWMutex
	guardrails map[string]Guardrail
	order      []string
}

// Metadata describes a registered guardrail for API consumers.
type Metadata struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	SupportsValidation     bool   `json:"supports_validation"`
	SupportsTransformation bool   `json:"supports_transformation"`
	OptionsSchema          any    `json:"options_schema"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		guardrails: make(map[string]Guardrail),
	}
}

// Register inserts or replaces the entry for the guardrail's identifier.
func (r *Registry) Register(g Guardrail) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.guardrails[g.ID()]; !exists {
		r.order = append(r.order, g.ID())
	}
	r.guardrails[g.ID()] = g
}

// Get returns the guardrail for the identifier, or ErrUnknownGuardrail.
func (r *Registry) Get(id string) (Guardrail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guardrails[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGuardrail, id)
	}
	return g, nil
}

// Resolve looks up every identifier up front, so that an unresolvable one
// fails the whole request before any check executes.
func (r *Registry) Resolve(ids []string) ([]Guardrail, error) {
	resolved := make([]Guardrail, 0, len(ids))
	for _, id := range ids {
		g, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, g)
	}
	return resolved, nil
}

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// All returns the registered guardrails in registration order.
func (r *Registry) All() []Guardrail {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Guardrail, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.guardrails[id])
	}
	return all
}

// List emits metadata for every registered guardrail. When a guardrail
// supplies no schema descriptor, the raw defaults are exposed instead.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]Metadata, 0, len(r.order))
	for _, id := range r.order {
		g := r.guardrails[id]

		var schema any
		if s := g.Schema(); s != nil {
			schema = s
		} else {
			schema = g.Defaults()
		}

		metas = append(metas, Metadata{
			ID:                     g.ID(),
			Name:                   g.Name(),
			Description:            g.Description(),
			SupportsValidation:     g.Supports(CapabilityValidate),
			SupportsTransformation: g.Supports(CapabilityTransform),
			OptionsSchema:          schema,
		})
	}
	return metas
}

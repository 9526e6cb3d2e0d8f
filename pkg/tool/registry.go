package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harunnryd/chimera/pkg/errorsx"
)

// DuplicateError reports a second registration under an existing name.
type DuplicateError struct {
	Name string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

// NotFoundError reports a lookup for a name the registry does not hold.
type NotFoundError struct {
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// Registry maps tool names to their specs. It is populated once at startup
// (builtins plus discovered manifests) and read-only for the rest of the
// session; the mutex exists because the status surface may read it while a
// chat turn is in flight.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a spec. A name collision leaves the registry unchanged.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return errorsx.Wrap(fmt.Errorf("tool name is required"), errorsx.ReasonToolDiscovery)
	}
	if spec.Handler == nil {
		return errorsx.Wrap(fmt.Errorf("tool %q has no handler", spec.Name), errorsx.ReasonToolDiscovery)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.specs[spec.Name]; ok {
		return errorsx.Wrap(DuplicateError{Name: spec.Name}, errorsx.ReasonToolDuplicate)
	}
	r.specs[spec.Name] = spec
	return nil
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	if !ok {
		return Spec{}, errorsx.Wrap(NotFoundError{Name: name}, errorsx.ReasonToolNotFound)
	}
	return spec, nil
}

// List returns all specs in stable name order.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered tool names in stable order.
func (r *Registry) Names() []string {
	specs := r.List()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// Package provider provides the registry and factory for model bindings.
package provider

import (
	"fmt"
	"sync"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
)

// Registry manages the registration and lookup of model bindings.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]ports.Model
	order    []string // maintains registration order
}

// NewRegistry creates a new empty binding registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]ports.Model),
		order:    make([]string, 0),
	}
}

// Register adds a binding to the registry.
// If a binding with the same name already exists, it will be replaced.
func (r *Registry) Register(binding ports.Model) error {
	if binding == nil {
		return fmt.Errorf("binding cannot be nil")
	}

	info := binding.Info()
	if info.Name == "" {
		return fmt.Errorf("binding name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[info.Name]; !exists {
		r.order = append(r.order, info.Name)
	}

	r.bindings[info.Name] = binding
	return nil
}

// Get retrieves a binding by name.
// Returns nil if the binding is not found.
func (r *Registry) Get(name string) ports.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bindings[name]
}

// GetRequired retrieves a binding by name, returning an error if not found.
func (r *Registry) GetRequired(name string) (ports.Model, error) {
	binding := r.Get(name)
	if binding == nil {
		return nil, fmt.Errorf("provider not registered: %s", name)
	}
	return binding, nil
}

// List returns all registered binding names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

// ListBindings returns all registered bindings in registration order.
func (r *Registry) ListBindings() []ports.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ports.Model, 0, len(r.order))
	for _, name := range r.order {
		if b, ok := r.bindings[name]; ok {
			result = append(result, b)
		}
	}
	return result
}

// Remove removes a binding from the registry.
// Returns true if the binding was found and removed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[name]; !exists {
		return false
	}

	delete(r.bindings, name)

	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return true
}

// Count returns the number of registered bindings.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages a named collection of policies that can be looked up at
// runtime. It is safe for concurrent use.
type Registry struct {
	policies map[string]Policy
	mu       sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Policy),
	}
}

// NewDefaultRegistry returns a registry holding the rule-based and max-ROI
// policies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewRules())
	r.Register(NewMaxROI())
	return r
}

// Register adds a policy under its own name, replacing any previous entry.
func (r *Registry) Register(p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.Name()] = p
}

// Get retrieves a policy by name.
func (r *Registry) Get(name string) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q: not registered", name)
	}
	return p, nil
}

// List returns the names of all registered policies in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.policies))
	for n := range r.policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package template

import (
	"sort"
	"sync"

	"golang.org/x/net/html"
)

// Binding owns one binding hole on one element.
type Binding interface {
	// Update receives the hole's values whenever one of them changed.
	Update(values []any) error
	// Remove undoes whatever the binding did to its element.
	Remove()
}

// Factory creates a Binding for host. ctx is the context the instance was
// created with; modifiers are the dot-separated suffixes of the hole name.
type Factory func(host *html.Node, ctx any, modifiers []string) (Binding, error)

// Registry maps binding names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup returns the factory for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

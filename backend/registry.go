package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh adapter instance. Each call must return
// an independent instance, since adapter handles are exclusive.
type Factory func() Adapter

// Registry maps backend names to adapter factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a backend under name. Re-registering a name is an
// error.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("registry: name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("registry: backend %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// New instantiates a fresh adapter for the named backend. An empty
// name picks the default: the first registered name in sorted order.
func (r *Registry) New(name string) (Adapter, error) {
	if name == "" {
		names := r.Names()
		if len(names) == 0 {
			return nil, fmt.Errorf("registry: no backends registered")
		}
		name = names[0]
	}
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown backend %q (have %v)", name, r.Names())
	}
	return f(), nil
}

// Names lists registered backends in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

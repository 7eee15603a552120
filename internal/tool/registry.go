package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lorehub/lore/internal/domain"
)

// Registry holds the tools available to an agent run. It is mutable only
// during composition; after Freeze it is read-only and safe to share
// across concurrent runs.
type Registry struct {
	mu     sync.Mutex
	frozen bool
	tools  map[string]Tool
	order  []string
}

// NewRegistry creates a registry seeded with the given tools.
// Registration order is preserved for prompt rendering.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Duplicate names and registration after Freeze are
// composition bugs and fail loudly.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %s: registry is frozen", t.Name())
	}
	if t.Name() == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("register %s: duplicate tool name", t.Name())
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Freeze marks composition as finished.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	return t, nil
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered tool names sorted alphabetically, for
// logging and diagnostics.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// Package capability defines the contract every invokable action
// implements, and the static table the invoker dispatches against. This
// replaces dynamic wrapping of arbitrary tool objects: an action is either
// registered under this contract or it cannot be invoked at all.
package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Capability is one name-addressed, side-effecting action.
type Capability interface {
	Name() string
	Invoke(ctx context.Context, params map[string]any) (any, error)
}

// Func adapts a plain function into a Capability.
type Func struct {
	name string
	fn   func(ctx context.Context, params map[string]any) (any, error)
}

// NewFunc wraps fn as a Capability.
func NewFunc(name string, fn func(ctx context.Context, params map[string]any) (any, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name implements Capability.
func (f *Func) Name() string { return f.name }

// Invoke implements Capability.
func (f *Func) Invoke(ctx context.Context, params map[string]any) (any, error) {
	return f.fn(ctx, params)
}

// Registry is the capability table. Registration happens at startup;
// lookups are concurrent.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewRegistry returns an empty table.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

// Register adds a capability. Re-registering a name is a programming error.
func (r *Registry) Register(cap Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[cap.Name()]; exists {
		return fmt.Errorf("capability %q already registered", cap.Name())
	}
	r.caps[cap.Name()] = cap
	return nil
}

// Lookup returns the capability registered under name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cap, ok := r.caps[name]
	return cap, ok
}

// Names lists registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package prefs

import (
	"context"
	"fmt"
	"sync"
)

// Registry collects the preferences an application declares and hands out
// their cells. Uniqueness of store keys and hook names is enforced at
// definition time, so a registry's descriptors always form a valid set.
type Registry struct {
	mu    sync.RWMutex
	cells map[string]*Cell
	hooks map[string]string
	order []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		cells: make(map[string]*Cell),
		hooks: make(map[string]string),
	}
}

// Define registers desc and returns its cell. Descriptors that reuse a store
// key or hook name already defined are rejected.
func (r *Registry) Define(desc Descriptor, opts ...CellOption) (*Cell, error) {
	cell, err := NewCell(desc, opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cells == nil {
		r.cells = make(map[string]*Cell)
	}
	if r.hooks == nil {
		r.hooks = make(map[string]string)
	}
	if _, exists := r.cells[desc.StoreKey]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateStoreKey, desc.StoreKey)
	}
	if owner, exists := r.hooks[desc.HookName]; exists {
		return nil, fmt.Errorf("%w: %q already used by %q", ErrDuplicateHookName, desc.HookName, owner)
	}
	r.cells[desc.StoreKey] = cell
	r.hooks[desc.HookName] = desc.StoreKey
	r.order = append(r.order, desc.StoreKey)
	return cell, nil
}

// MustDefine is Define for package-level wiring; it panics on configuration
// errors.
func (r *Registry) MustDefine(desc Descriptor, opts ...CellOption) *Cell {
	cell, err := r.Define(desc, opts...)
	if err != nil {
		panic(err)
	}
	return cell
}

// Cell returns the cell defined for storeKey.
func (r *Registry) Cell(storeKey string) (*Cell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cell, ok := r.cells[storeKey]
	return cell, ok
}

// Descriptors returns the registered descriptors in definition order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptors := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		descriptors = append(descriptors, r.cells[key].Descriptor())
	}
	return descriptors
}

// Len returns the number of defined preferences.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Set materializes the registry's descriptors as a Set for synthesis.
func (r *Registry) Set(opts ...SetOption) (*Set, error) {
	return NewSet(r.Descriptors(), opts...)
}

// Synthesize emits the anti-flash routine covering every defined preference.
func (r *Registry) Synthesize(opts ...SetOption) (string, error) {
	set, err := r.Set(opts...)
	if err != nil {
		return "", err
	}
	return set.Synthesize(), nil
}

// Bind enters a scope for every defined cell, in definition order, sharing
// the same bind options. The returned context serves reads and writes for
// all of them.
func (r *Registry) Bind(ctx context.Context, opts ...BindOption) context.Context {
	r.mu.RLock()
	cells := make([]*Cell, 0, len(r.order))
	for _, key := range r.order {
		cells = append(cells, r.cells[key])
	}
	r.mu.RUnlock()
	for _, cell := range cells {
		ctx = cell.Bind(ctx, opts...)
	}
	return ctx
}

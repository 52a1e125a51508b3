package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/loomworks/loom/node"
)

type UnknownKindError struct {
	Kind string
}

func (e UnknownKindError) Error() string {
	return fmt.Sprintf("unknown node kind %q", e.Kind)
}

type DuplicateKindError struct {
	Kind string
}

func (e DuplicateKindError) Error() string {
	return fmt.Sprintf("node kind %q already registered with a different descriptor", e.Kind)
}

// Registry maps node kinds to their descriptors. It is populated once at
// process start and read-only afterwards; the lock only protects that
// initialization window.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]node.Descriptor
	order []string
}

func New() *Registry {
	return &Registry{
		kinds: make(map[string]node.Descriptor),
	}
}

// Register adds a kind. Re-registering an identical descriptor is a no-op;
// a differing descriptor for an existing kind fails with DuplicateKindError.
func (r *Registry) Register(desc node.Descriptor) error {
	if desc.Kind == "" {
		return fmt.Errorf("descriptor has empty kind")
	}
	if desc.Factory == nil {
		return fmt.Errorf("descriptor for kind %q has no factory", desc.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.kinds[desc.Kind]; ok {
		if sameDescriptor(existing, desc) {
			return nil
		}
		return DuplicateKindError{Kind: desc.Kind}
	}
	r.kinds[desc.Kind] = desc
	r.order = append(r.order, desc.Kind)
	return nil
}

func (r *Registry) Get(kind string) (node.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.kinds[kind]
	if !ok {
		return node.Descriptor{}, UnknownKindError{Kind: kind}
	}
	return desc, nil
}

func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.kinds[kind]
	return ok
}

// List returns all descriptors in registration order.
func (r *Registry) List() []node.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]node.Descriptor, 0, len(r.order))
	for _, kind := range r.order {
		out = append(out, r.kinds[kind])
	}
	return out
}

// sameDescriptor compares everything except the factory, which is a func
// value and not comparable.
func sameDescriptor(a, b node.Descriptor) bool {
	a.Factory = nil
	b.Factory = nil
	return reflect.DeepEqual(a, b)
}

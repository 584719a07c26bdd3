package capability

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknown is returned when a requested capability name is not registered.
// Resolution failures are typed so callers can distinguish a misrouted action
// from an execution failure.
var ErrUnknown = errors.New("unknown capability")

// Registry is a fixed, process-lifetime mapping from capability name to
// implementation. It is built once at startup and immutable afterwards, so
// lookups need no locking.
type Registry struct {
	caps  map[string]Capability
	names []string
}

// NewRegistry builds a registry from the given capabilities. Duplicate names
// are a construction error: the capability set is part of the system's wiring
// and must be unambiguous.
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{caps: make(map[string]Capability, len(caps))}
	for _, c := range caps {
		name := c.Name()
		if name == "" {
			return nil, fmt.Errorf("capability with empty name")
		}
		if _, exists := r.caps[name]; exists {
			return nil, fmt.Errorf("duplicate capability %q", name)
		}
		r.caps[name] = c
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// MustNewRegistry is NewRegistry that panics on error, for static wiring at
// process start.
func MustNewRegistry(caps ...Capability) *Registry {
	r, err := NewRegistry(caps...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the capability registered under name.
func (r *Registry) Resolve(name string) (Capability, error) {
	c, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return c, nil
}

// Names returns the sorted capability names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Definitions returns the declarative view of all capabilities, sorted by
// name, for inclusion in oracle requests.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.names))
	for _, name := range r.names {
		c := r.caps[name]
		defs = append(defs, Definition{Name: c.Name(), Description: c.Description(), Schema: c.Schema()})
	}
	return defs
}

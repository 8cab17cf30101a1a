// Package registry provides thread-safe storage and retrieval of type
// registrations and the alias sets that map abstract types to their
// registered implementations.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Registration describes one exported concrete type.
type Registration struct {
	// ConcreteType is the implementation type produced by resolution
	// (e.g. *CloudLogger).
	ConcreteType reflect.Type

	// Lifetime defines how instances are managed.
	// Values: "transient", "singleton", "scoped"
	Lifetime string

	// Aliases are the abstract types this registration is resolvable
	// under, in declaration order.
	Aliases []reflect.Type

	// Overrides are registration-time parameter overrides, applied in
	// order before any call-site overrides.
	// Stores ceangal.Parameter values.
	Overrides []any

	// Constructors are the candidate constructor descriptors for this
	// type. Stores *ceangal.Constructor values.
	Constructors []any

	// Instance is an optional prebuilt instance. When set together with a
	// singleton lifetime, the instance is served directly and no
	// construction plan is ever built.
	Instance any
}

// Registry provides thread-safe storage for registrations and alias sets.
// It uses maps with reflect.Type keys for O(1) lookup performance. Alias
// sets are ordered slices so first-registered-wins resolution is
// deterministic; every slice handed out is a copy, never a live view.
type Registry struct {
	mu            sync.RWMutex
	registrations map[reflect.Type]*Registration
	aliases       map[reflect.Type][]reflect.Type
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		registrations: make(map[reflect.Type]*Registration),
		aliases:       make(map[reflect.Type][]reflect.Type),
	}
}

// Register inserts or replaces the registration for its concrete type and
// adds the concrete type to each declared alias set (creating sets as
// needed). It returns the replaced registration, if any.
//
// This method is goroutine-safe.
func (r *Registry) Register(reg *Registration) (*Registration, error) {
	if reg == nil {
		return nil, fmt.Errorf("registration cannot be nil")
	}
	if reg.ConcreteType == nil {
		return nil, fmt.Errorf("registration must have a concrete type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.registrations[reg.ConcreteType]
	r.registrations[reg.ConcreteType] = reg

	for _, alias := range reg.Aliases {
		if !containsType(r.aliases[alias], reg.ConcreteType) {
			r.aliases[alias] = append(copyTypes(r.aliases[alias]), reg.ConcreteType)
		}
	}

	return replaced, nil
}

// Unregister removes the registration for the given concrete type. When
// removeFromAliases is true, the type is also removed from every alias set
// that contains it; empty alias sets are dropped. It returns the removed
// registration and whether one existed.
//
// This method is goroutine-safe.
func (r *Registry) Unregister(concreteType reflect.Type, removeFromAliases bool) (*Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, exists := r.registrations[concreteType]
	if !exists {
		return nil, false
	}
	delete(r.registrations, concreteType)

	if removeFromAliases {
		for alias, members := range r.aliases {
			if !containsType(members, concreteType) {
				continue
			}
			remaining := removeType(members, concreteType)
			if len(remaining) == 0 {
				delete(r.aliases, alias)
			} else {
				r.aliases[alias] = remaining
			}
		}
	}

	return reg, true
}

// TakeAliasSet atomically removes the alias mapping for the given abstract
// type and returns its members in registration order. Callers use this to
// unregister every implementation of an alias without re-walking a mapping
// that is already gone.
//
// This method is goroutine-safe.
func (r *Registry) TakeAliasSet(alias reflect.Type) []reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.aliases[alias]
	delete(r.aliases, alias)
	return members
}

// Get retrieves the registration for a concrete type.
//
// This method is goroutine-safe.
func (r *Registry) Get(concreteType reflect.Type) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.registrations[concreteType]
	return reg, exists
}

// First returns the first-registered implementation of the given abstract
// type, if any.
//
// This method is goroutine-safe.
func (r *Registry) First(alias reflect.Type) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.aliases[alias]
	if len(members) == 0 {
		return nil, false
	}
	return members[0], true
}

// Implementations returns a snapshot of the alias set for the given
// abstract type, in registration order. The snapshot never reflects
// subsequent registry mutations. An alias with no implementations yields an
// empty, non-nil slice.
//
// This method is goroutine-safe.
func (r *Registry) Implementations(alias reflect.Type) []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return copyTypes(r.aliases[alias])
}

// Has checks whether a registration exists for the given concrete type or
// the type is an alias with at least one implementation.
//
// This method is goroutine-safe.
func (r *Registry) Has(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.registrations[t]; exists {
		return true
	}
	return len(r.aliases[t]) > 0
}

// Types returns all concrete types that currently have a registration.
//
// This method is goroutine-safe.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(r.registrations))
	for t := range r.registrations {
		types = append(types, t)
	}
	return types
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.registrations)
}

func containsType(types []reflect.Type, t reflect.Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func copyTypes(types []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, len(types))
	copy(out, types)
	return out
}

func removeType(types []reflect.Type, t reflect.Type) []reflect.Type {
	out := make([]reflect.Type, 0, len(types))
	for _, candidate := range types {
		if candidate != t {
			out = append(out, candidate)
		}
	}
	return out
}

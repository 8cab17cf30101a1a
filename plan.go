package ceangal

import (
	"reflect"
	"sort"
	"sync"

	"github.com/toutaio/toutago-ceangal-service-locator/registry"
)

// plan is the cached construction recipe for one concrete type: the
// compiled candidate constructors in selection order plus the
// registration-time parameter overrides.
type plan struct {
	// owner is the registration the plan was compiled from. A cached plan
	// is served only to callers holding the same registration, so a
	// resolver that raced a replacement can neither use nor re-cache a
	// plan for a registration that is no longer current.
	owner *registry.Registration

	concreteType reflect.Type

	// candidates are ordered by descending parameter count, so the most
	// specific constructor that fully binds wins deterministically.
	candidates []*constructorInfo

	// overrides are the registration-time parameter overrides, in
	// declaration order.
	overrides []Parameter
}

// planCache caches construction plans to avoid re-deriving constructor
// metadata on every resolution. Plans are built lazily on first resolution
// (or eagerly at registration time, as a container option) and invalidated
// whenever the owning registration changes.
type planCache struct {
	mu    sync.RWMutex
	plans map[reflect.Type]*plan
}

// newPlanCache creates a new plan cache.
func newPlanCache() *planCache {
	return &planCache{
		plans: make(map[reflect.Type]*plan),
	}
}

// getOrBuild retrieves the cached plan for the given registration or builds
// and caches it. A cached plan owned by a different registration of the
// same concrete type is ignored and overwritten: every caller gets a plan
// compiled from exactly the registration it holds.
//
// A concurrent invalidation may race with the build; the loser simply
// re-derives the plan, which is idempotent.
//
// This method is goroutine-safe.
func (pc *planCache) getOrBuild(reg *registry.Registration) (*plan, error) {
	// Fast path: check cache with read lock
	pc.mu.RLock()
	p, exists := pc.plans[reg.ConcreteType]
	pc.mu.RUnlock()

	if exists && p.owner == reg {
		return p, nil
	}

	// Build outside the lock; compilation touches only the registration.
	built, err := buildPlan(reg)
	if err != nil {
		return nil, err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Double-check after acquiring write lock
	if p, exists = pc.plans[reg.ConcreteType]; exists && p.owner == reg {
		return p, nil
	}
	pc.plans[reg.ConcreteType] = built
	return built, nil
}

// invalidate removes the cached plans for the given types.
//
// This method is goroutine-safe.
func (pc *planCache) invalidate(types ...reflect.Type) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	for _, t := range types {
		delete(pc.plans, t)
	}
}

// clear removes all cached plans.
func (pc *planCache) clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.plans = make(map[reflect.Type]*plan)
}

// buildPlan compiles a registration into a construction plan. Registrations
// without declared constructors fall back to the implicit zero-value
// constructor of their pointer-to-struct concrete type.
func buildPlan(reg *registry.Registration) (*plan, error) {
	p := &plan{owner: reg, concreteType: reg.ConcreteType}

	for _, raw := range reg.Overrides {
		spec, ok := raw.(Parameter)
		if !ok {
			return nil, &InvalidRegistrationError{
				Reason: "registration overrides must be ceangal.Parameter values",
			}
		}
		p.overrides = append(p.overrides, spec)
	}

	if len(reg.Constructors) == 0 {
		info, err := zeroValueConstructor(reg.ConcreteType)
		if err != nil {
			return nil, &NoViableConstructorError{Type: reg.ConcreteType}
		}
		p.candidates = []*constructorInfo{info}
		return p, nil
	}

	for _, raw := range reg.Constructors {
		ctor, ok := raw.(*Constructor)
		if !ok {
			return nil, &InvalidRegistrationError{
				Reason: "registration constructors must be *ceangal.Constructor values",
			}
		}
		info, err := compileConstructor(ctor, reg.ConcreteType)
		if err != nil {
			return nil, &InvalidRegistrationError{Reason: err.Error()}
		}
		p.candidates = append(p.candidates, info)
	}

	// Prefer the highest-arity constructor that fully binds.
	sort.SliceStable(p.candidates, func(i, j int) bool {
		return len(p.candidates[i].params) > len(p.candidates[j].params)
	})

	return p, nil
}

// unregisteredPlan derives the plan for a type that has no registration:
// pointer-to-struct types construct transiently via their zero value. The
// plan is not cached; it carries no overrides.
func unregisteredPlan(t reflect.Type) (*plan, error) {
	info, err := zeroValueConstructor(t)
	if err != nil {
		return nil, &NoViableConstructorError{Type: t}
	}
	return &plan{concreteType: t, candidates: []*constructorInfo{info}}, nil
}

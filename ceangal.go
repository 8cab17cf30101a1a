package ceangal

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-ceangal-service-locator/registry"
)

// Container is the resolution and lifecycle engine. It owns the live
// registry, the construction-plan cache, and the singleton slots, and it is
// safe for concurrent registration, unregistration, and resolution from
// arbitrary goroutines.
type Container struct {
	registry   *registry.Registry
	plans      *planCache
	singletons *singletonCache
	events     *eventBus
	logger     *zap.Logger

	eagerPlans   bool
	detectCycles bool

	providers []*providerEntry
}

// New creates a new container.
//
// Example:
//
//	container := ceangal.New()
//	// or with options:
//	container := ceangal.New(ceangal.WithLogger(logger), ceangal.WithEagerPlans())
func New(options ...Option) *Container {
	c := &Container{
		registry:     registry.New(),
		plans:        newPlanCache(),
		singletons:   newSingletonCache(),
		logger:       zap.NewNop(),
		detectCycles: true,
	}

	for _, opt := range options {
		if err := opt(c); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	c.events = newEventBus(c.logger)
	return c
}

// OnRegister subscribes a handler invoked once per successful registration.
// Handlers observe only; their panics are isolated and logged.
func (c *Container) OnRegister(handler func(RegisterEvent)) {
	c.events.subscribeRegister(handler)
}

// OnUnregister subscribes a handler invoked once per successful
// unregistration. Handlers observe only; their panics are isolated and
// logged.
func (c *Container) OnUnregister(handler func(UnregisterEvent)) {
	c.events.subscribeUnregister(handler)
}

// Register inserts or replaces the registration for its concrete type.
// Alias sets are updated additively, any cached construction plan keyed by
// the type or its aliases is invalidated, and a stale singleton slot is
// dropped so a replaced registration can never serve the old instance. A
// prebuilt instance with a singleton lifetime populates the slot
// immediately; no plan is ever built for it.
func (c *Container) Register(reg registry.Registration) error {
	stored := reg

	if stored.ConcreteType == nil {
		if stored.Instance != nil {
			stored.ConcreteType = reflect.TypeOf(stored.Instance)
		} else if len(stored.Constructors) == 1 {
			if ctor, ok := stored.Constructors[0].(*Constructor); ok && ctor.Fn != nil {
				if fnType := reflect.TypeOf(ctor.Fn); fnType.Kind() == reflect.Func && fnType.NumOut() > 0 {
					stored.ConcreteType = fnType.Out(0)
				}
			}
		}
	}
	if stored.ConcreteType == nil {
		return &InvalidRegistrationError{Reason: "registration must declare a concrete type, instance, or constructor"}
	}

	if stored.Lifetime == "" {
		stored.Lifetime = string(LifetimeTransient)
	}
	switch Lifetime(stored.Lifetime) {
	case LifetimeTransient, LifetimeSingleton, LifetimeScoped:
	default:
		return &InvalidRegistrationError{Reason: fmt.Sprintf("unknown lifetime %q", stored.Lifetime)}
	}
	if stored.Instance != nil {
		if Lifetime(stored.Lifetime) != LifetimeSingleton {
			return &InvalidRegistrationError{Reason: "prebuilt instances require a singleton lifetime"}
		}
		if !reflect.TypeOf(stored.Instance).AssignableTo(stored.ConcreteType) {
			return &InvalidRegistrationError{
				Reason: fmt.Sprintf("instance of type %T is not assignable to registered type %v", stored.Instance, stored.ConcreteType),
			}
		}
	}

	// Eager mode fails fast: a plan that cannot compile rejects the
	// registration before any structure is mutated.
	if c.eagerPlans && stored.Instance == nil {
		if _, err := buildPlan(&stored); err != nil {
			return err
		}
	}

	replaced, err := c.registry.Register(&stored)
	if err != nil {
		return &InvalidRegistrationError{Reason: err.Error()}
	}

	invalidate := append([]reflect.Type{stored.ConcreteType}, stored.Aliases...)
	if replaced != nil {
		invalidate = append(invalidate, replaced.Aliases...)
	}
	c.plans.invalidate(invalidate...)

	if stored.Instance != nil {
		c.singletons.store(&stored, stored.Instance)
	} else {
		c.singletons.drop(stored.ConcreteType)
		if c.eagerPlans {
			// Already validated above; prime the cache so the first
			// resolution pays no compilation cost.
			_, _ = c.plans.getOrBuild(&stored)
		}
	}

	c.logger.Debug("type registered",
		zap.String("type", stored.ConcreteType.String()),
		zap.String("lifetime", stored.Lifetime),
		zap.Int("aliases", len(stored.Aliases)),
		zap.Bool("replaced", replaced != nil),
	)
	c.events.fireRegister(RegisterEvent{
		Type:        stored.ConcreteType,
		Aliases:     stored.Aliases,
		Lifetime:    Lifetime(stored.Lifetime),
		HasInstance: stored.Instance != nil,
	})

	return nil
}

// RegisterAll applies a batch of registrations produced by a configuration
// pass. It stops at the first failing registration; earlier registrations
// remain applied.
func (c *Container) RegisterAll(regs []registry.Registration) error {
	for i := range regs {
		if err := c.Register(regs[i]); err != nil {
			return fmt.Errorf("registration %d: %w", i, err)
		}
	}
	return nil
}

// Unregister removes the registration for the given concrete type,
// invalidates every cache referencing it, and, if a singleton instance had
// been created, disposes it, blocking on asynchronous cleanup. It reports
// whether a registration existed. Async-aware callers should use
// UnregisterContext instead.
//
// By default the type is also removed from every alias set that contains
// it; pass KeepAliases() to leave alias sets untouched.
func (c *Container) Unregister(token any, opts ...UnregisterOption) (bool, error) {
	return c.UnregisterContext(context.Background(), token, opts...)
}

// UnregisterContext is the async-aware variant of Unregister: instance
// disposal honours the supplied context.
func (c *Container) UnregisterContext(ctx context.Context, token any, opts ...UnregisterOption) (bool, error) {
	cfg := unregisterConfig{removeFromAliases: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return c.unregister(ctx, typeOfToken(token), cfg.removeFromAliases)
}

func (c *Container) unregister(ctx context.Context, t reflect.Type, removeFromAliases bool) (bool, error) {
	reg, removed := c.registry.Unregister(t, removeFromAliases)
	if !removed {
		return false, nil
	}

	c.plans.invalidate(append([]reflect.Type{t}, reg.Aliases...)...)

	instance, had := c.singletons.take(t)
	disposed := false
	var dispErr error
	if had {
		disposed, dispErr = disposeInstance(ctx, instance)
	}

	c.logger.Debug("type unregistered",
		zap.String("type", t.String()),
		zap.Bool("disposed", disposed),
	)
	c.events.fireUnregister(UnregisterEvent{Type: t, Instance: instance, Disposed: disposed})

	// The registry is already consistent; disposal misbehaviour only
	// propagates.
	if dispErr != nil {
		return true, &DisposalError{Err: dispErr}
	}
	return true, nil
}

// UnregisterAll atomically takes the full alias set for the given abstract
// type, removes the alias mapping itself, and unregisters each member. It
// returns the number of successful removals. Each removal still triggers
// its own disposal and notification.
func (c *Container) UnregisterAll(aliasToken any) (int, error) {
	return c.UnregisterAllContext(context.Background(), aliasToken)
}

// UnregisterAllContext is the async-aware variant of UnregisterAll.
func (c *Container) UnregisterAllContext(ctx context.Context, aliasToken any) (int, error) {
	alias := typeOfToken(aliasToken)
	members := c.registry.TakeAliasSet(alias)

	count := 0
	var errs error
	for _, member := range members {
		// The mapping is already gone; no alias cleanup per member.
		removed, err := c.unregister(ctx, member, false)
		if removed {
			count++
		}
		errs = multierr.Append(errs, err)
	}
	return count, errs
}

// IsRegistered reports whether the given type is registered, either as a
// concrete type or as an alias with at least one implementation.
func (c *Container) IsRegistered(token any) bool {
	return c.registry.Has(typeOfToken(token))
}

// Locate resolves and returns an instance of the requested type, applying
// the call-site parameter overrides. The requested type may be a concrete
// registered type or an alias; aliases resolve to their first-registered
// implementation.
//
// Constructor parameters are bound in four steps, in declaration order:
// registration-time overrides, then the supplied overrides (each matched
// first-wins and consumed at most once), then recursive resolution of
// registered parameter types, then declared defaults. A parameter no step
// can bind rejects the constructor; a type none of whose constructors bind
// fails with a NoViableConstructorError.
//
// Example:
//
//	svc, err := container.Locate((*Service)(nil), ceangal.Named("timeout", 5*time.Second))
func (c *Container) Locate(token any, overrides ...Parameter) (any, error) {
	res := &resolution{container: c}
	return c.resolve(res, typeOfToken(token), overrides)
}

// MustLocate is like Locate but panics on failure.
func (c *Container) MustLocate(token any, overrides ...Parameter) any {
	instance, err := c.Locate(token, overrides...)
	if err != nil {
		panic(err)
	}
	return instance
}

// LocateAll resolves one instance per currently-registered implementation
// of the given alias, each built according to its own lifetime policy, so
// the result may mix freshly-constructed transients with shared singleton
// references. The result is a snapshot at the moment of the call, never a
// live view; an alias with zero implementations yields an empty, non-nil
// slice.
func (c *Container) LocateAll(aliasToken any) ([]any, error) {
	res := &resolution{container: c}
	return c.resolveAll(res, typeOfToken(aliasToken))
}

// CreateScope creates a new, independent resolution scope. Scoped types
// resolve to one instance per scope; disposing the scope releases every
// disposable instance created within it.
func (c *Container) CreateScope() *Scope {
	return newScope(c)
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// resolution tracks the state of one top-level Locate call: the scope it
// runs inside, if any, and the chain of types currently under construction
// for cycle detection.
type resolution struct {
	container *Container
	scope     *Scope
	stack     []reflect.Type
}

func (res *resolution) enter(t reflect.Type) error {
	if res.container.detectCycles {
		for _, active := range res.stack {
			if active == t {
				return &CircularDependencyError{Path: append(copyTypes(res.stack), t)}
			}
		}
	}
	res.stack = append(res.stack, t)
	return nil
}

func (res *resolution) exit() {
	res.stack = res.stack[:len(res.stack)-1]
}

func copyTypes(types []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, len(types))
	copy(out, types)
	return out
}

// resolve runs the full pipeline for one requested type: alias indirection,
// lifetime cache, plan lookup, parameter binding, instantiation, lifetime
// storage.
func (c *Container) resolve(res *resolution, t reflect.Type, overrides []Parameter) (any, error) {
	concrete := t
	reg, ok := c.registry.Get(concrete)
	if !ok {
		if impl, found := c.registry.First(t); found {
			concrete = impl
			// A member may briefly outlive its registration while an
			// unregister is in flight; treat that window as unregistered.
			reg, ok = c.registry.Get(concrete)
		}
	}

	if err := res.enter(concrete); err != nil {
		return nil, err
	}
	defer res.exit()

	if !ok {
		return c.constructUnregistered(res, concrete)
	}

	switch Lifetime(reg.Lifetime) {
	case LifetimeSingleton:
		return c.resolveSingleton(res, concrete, reg, overrides)

	case LifetimeScoped:
		if res.scope == nil {
			return nil, &ScopeRequiredError{Type: concrete}
		}
		return res.scope.getOrCreate(concrete, func() (any, error) {
			return c.construct(res, reg, overrides)
		})

	case LifetimeTransient:
		instance, err := c.construct(res, reg, overrides)
		if err != nil {
			return nil, err
		}
		if res.scope != nil {
			res.scope.track(instance)
		}
		return instance, nil

	default:
		return nil, &ResolutionError{Type: concrete, Cause: fmt.Errorf("unknown lifetime %q", reg.Lifetime)}
	}
}

// resolveSingleton serves the singleton slot owned by the caller's
// registration. Slots are stamped with their owning registration, so a
// resolver that read the registry just before an unregister or replacement
// cannot pin its stale instance under the current registration: an owner
// mismatch sends the caller back to the registry. A slot owned by an
// outdated registration is evicted and rebuilt; a caller whose own
// registration is the outdated one is served the current slot's value, or
// gets an uncached construction when the type was removed outright.
func (c *Container) resolveSingleton(res *resolution, concrete reflect.Type, reg *registry.Registration, overrides []Parameter) (any, error) {
	var evict *registry.Registration
	for {
		owned := reg
		value, owner, err := c.singletons.getOrCreate(reg, evict, func() (any, error) {
			if owned.Instance != nil {
				return owned.Instance, nil
			}
			return c.construct(res, owned, overrides)
		})
		if owner == reg {
			return value, err
		}

		current, ok := c.registry.Get(concrete)
		if !ok {
			// Unregistered while we raced; build for this caller only,
			// leaving the slot map alone.
			if reg.Instance != nil {
				return reg.Instance, nil
			}
			return c.construct(res, reg, overrides)
		}
		if current == owner {
			return value, err
		}
		reg, evict = current, owner
	}
}

// resolveAll snapshots the alias set and resolves each member under its own
// lifetime policy.
func (c *Container) resolveAll(res *resolution, alias reflect.Type) ([]any, error) {
	members := c.registry.Implementations(alias)
	instances := make([]any, 0, len(members))
	for _, member := range members {
		instance, err := c.resolve(res, member, nil)
		if err != nil {
			return nil, &ResolutionError{Type: alias, Cause: err}
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// construct obtains the construction plan for a registration and runs the
// first candidate constructor that fully binds.
func (c *Container) construct(res *resolution, reg *registry.Registration, overrides []Parameter) (any, error) {
	p, err := c.plans.getOrBuild(reg)
	if err != nil {
		return nil, err
	}
	return c.runPlan(res, p, overrides)
}

// constructUnregistered builds an unregistered pointer-to-struct type
// transiently via its implicit default constructor. Any other unregistered
// type is unsatisfiable.
func (c *Container) constructUnregistered(res *resolution, t reflect.Type) (any, error) {
	p, err := unregisteredPlan(t)
	if err != nil {
		return nil, err
	}
	instance, err := c.runPlan(res, p, nil)
	if err != nil {
		return nil, err
	}
	if res.scope != nil {
		res.scope.track(instance)
	}
	return instance, nil
}

func (c *Container) runPlan(res *resolution, p *plan, overrides []Parameter) (any, error) {
	resolve := func(paramType reflect.Type) (any, bool, error) {
		if !c.registry.Has(paramType) {
			return nil, false, nil
		}
		value, err := c.resolve(res, paramType, nil)
		return value, true, err
	}

	var causes []error
	for _, candidate := range p.candidates {
		args, err := bindConstructor(p.concreteType, candidate, p.overrides, overrides, resolve)
		if err != nil {
			causes = append(causes, err)
			continue
		}
		return candidate.factory(args)
	}

	return nil, &NoViableConstructorError{
		Type:       p.concreteType,
		Candidates: len(p.candidates),
		Causes:     causes,
	}
}

// typeOfToken derives the reflect.Type a caller means by a type token.
// Interface types are requested with a typed nil pointer, e.g.
// (*Logger)(nil) requests the Logger interface; everything else (including
// *ConcreteType tokens and reflect.Type values) is taken as-is.
func typeOfToken(token any) reflect.Type {
	if token == nil {
		panic("cannot resolve nil type")
	}
	if t, ok := token.(reflect.Type); ok {
		return t
	}
	t := reflect.TypeOf(token)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem()
	}
	return t
}

// unregisterConfig collects Unregister call options.
type unregisterConfig struct {
	removeFromAliases bool
}

// UnregisterOption configures a single Unregister call.
type UnregisterOption func(*unregisterConfig)

// KeepAliases leaves alias sets untouched when unregistering. Used
// internally by UnregisterAll, whose alias mapping is already gone, and by
// callers that manage alias membership themselves.
func KeepAliases() UnregisterOption {
	return func(cfg *unregisterConfig) {
		cfg.removeFromAliases = false
	}
}

package ceangal

import (
	"fmt"
	"reflect"

	"github.com/toutaio/toutago-ceangal-service-locator/registry"
)

// Export is a fluent builder that assembles one registration and applies it
// to the container. Builders are created by Container.Export,
// Container.ExportType, and Container.ExportInstance; the terminal
// Transient/Singleton/Scoped call performs the registration and returns the
// first error encountered along the chain.
type Export struct {
	container *Container
	reg       registry.Registration
	last      *Constructor // target of WithDefault
	err       error
}

// Export begins a registration from a constructor function, optionally
// declaring its parameter names (required for Named overrides to match).
// The registration's concrete type is the constructor's first return type.
//
// Example:
//
//	container.Export(NewServer, "host", "port", "useTLS").
//	    As((*Server)(nil)).
//	    WithParameter(ceangal.Positional(0, "localhost")).
//	    Singleton()
func (c *Container) Export(constructor any, paramNames ...string) *Export {
	e := &Export{container: c}
	e.WithConstructor(constructor, paramNames...)
	if e.err == nil {
		fnType := reflect.TypeOf(constructor)
		e.reg.ConcreteType = fnType.Out(0)
	}
	return e
}

// ExportType begins a registration for a pointer-to-struct type with no
// declared constructor; instances are produced from the type's zero value.
//
// Example:
//
//	container.ExportType((*ConsoleLogger)(nil)).As((*Logger)(nil)).Transient()
func (c *Container) ExportType(typeToken any) *Export {
	e := &Export{container: c}
	if typeToken == nil {
		e.fail("type token cannot be nil")
		return e
	}
	t := reflect.TypeOf(typeToken)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		e.fail(fmt.Sprintf("ExportType requires a pointer-to-struct token, got %v", t))
		return e
	}
	e.reg.ConcreteType = t
	return e
}

// ExportInstance begins a registration for a prebuilt instance. The
// lifetime is necessarily singleton and the terminal call is Singleton().
//
// Example:
//
//	container.ExportInstance(cfg).As((*Config)(nil)).Singleton()
func (c *Container) ExportInstance(instance any) *Export {
	e := &Export{container: c}
	if instance == nil {
		e.fail("instance cannot be nil")
		return e
	}
	e.reg.Instance = instance
	e.reg.ConcreteType = reflect.TypeOf(instance)
	return e
}

// As declares the abstract types this registration is resolvable under.
// Tokens are interface pointers, e.g. (*Logger)(nil).
func (e *Export) As(tokens ...any) *Export {
	if e.err != nil {
		return e
	}
	for _, token := range tokens {
		if token == nil {
			return e.fail("alias token cannot be nil")
		}
		e.reg.Aliases = append(e.reg.Aliases, typeOfToken(token))
	}
	return e
}

// WithConstructor adds another candidate constructor. Candidates are ranked
// by descending parameter count at plan compilation; the first that fully
// binds wins.
func (e *Export) WithConstructor(constructor any, paramNames ...string) *Export {
	if e.err != nil {
		return e
	}
	if constructor == nil {
		return e.fail("constructor cannot be nil")
	}
	fnType := reflect.TypeOf(constructor)
	if fnType.Kind() != reflect.Func || fnType.NumOut() == 0 {
		return e.fail(fmt.Sprintf("constructor must be a function with a return value, got %T", constructor))
	}
	ctor := &Constructor{Fn: constructor, ParamNames: paramNames}
	e.reg.Constructors = append(e.reg.Constructors, ctor)
	e.last = ctor
	return e
}

// WithDefault declares a fallback value for the most recently added
// constructor's parameter at the given zero-based position, used when no
// override matches and the parameter type is not registered.
func (e *Export) WithDefault(position int, value any) *Export {
	if e.err != nil {
		return e
	}
	if e.last == nil {
		return e.fail("WithDefault requires a constructor")
	}
	if e.last.Defaults == nil {
		e.last.Defaults = make(map[int]any)
	}
	e.last.Defaults[position] = value
	return e
}

// WithParameter appends registration-time parameter overrides, applied in
// order before any call-site overrides.
func (e *Export) WithParameter(specs ...Parameter) *Export {
	if e.err != nil {
		return e
	}
	for _, spec := range specs {
		e.reg.Overrides = append(e.reg.Overrides, spec)
	}
	return e
}

// Transient applies the registration with a transient lifetime.
func (e *Export) Transient() error {
	return e.apply(LifetimeTransient)
}

// Singleton applies the registration with a singleton lifetime.
func (e *Export) Singleton() error {
	return e.apply(LifetimeSingleton)
}

// Scoped applies the registration with a scoped lifetime.
func (e *Export) Scoped() error {
	return e.apply(LifetimeScoped)
}

func (e *Export) apply(lifetime Lifetime) error {
	if e.err != nil {
		return e.err
	}
	e.reg.Lifetime = string(lifetime)
	return e.container.Register(e.reg)
}

func (e *Export) fail(reason string) *Export {
	if e.err == nil {
		e.err = &InvalidRegistrationError{Reason: reason}
	}
	return e
}

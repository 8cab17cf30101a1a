package ceangal

import (
	"fmt"
	"reflect"
)

// Parameter supplies a value for one constructor parameter, either at
// registration time (attached to the registration) or at the call site
// (passed to Locate). Parameters are matched against formal constructor
// parameters in the order they were supplied; the first parameter whose
// predicate matches an unconsumed formal parameter wins, and each parameter
// is consumed at most once per resolution call.
//
// Three kinds of parameters exist:
//
//	Named("host", "localhost")  // matches on exact parameter name
//	Positional(1, 8080)         // matches on zero-based parameter index
//	Typed(&tlsConfig{})         // matches on assignable parameter type
type Parameter interface {
	// matches reports whether this parameter can bind the given formal
	// parameter.
	matches(p formalParam) bool

	// value returns the supplied value.
	value() any
}

// formalParam describes one formal constructor parameter as captured in a
// construction plan.
type formalParam struct {
	name       string
	position   int
	typ        reflect.Type
	hasDefault bool
	def        any
}

// namedParameter matches a formal parameter by exact, case-sensitive name.
type namedParameter struct {
	name string
	val  any
}

func (p namedParameter) matches(f formalParam) bool {
	return f.name != "" && f.name == p.name
}

func (p namedParameter) value() any { return p.val }

func (p namedParameter) String() string {
	return fmt.Sprintf("Named(%s)", p.name)
}

// positionalParameter matches a formal parameter by zero-based index.
type positionalParameter struct {
	index int
	val   any
}

func (p positionalParameter) matches(f formalParam) bool {
	return f.position == p.index
}

func (p positionalParameter) value() any { return p.val }

func (p positionalParameter) String() string {
	return fmt.Sprintf("Positional(%d)", p.index)
}

// typedParameter matches a formal parameter when the supplied value's type
// equals, or is assignable to (implements), the parameter's declared type.
type typedParameter struct {
	typ reflect.Type
	val any
}

func (p typedParameter) matches(f formalParam) bool {
	if p.typ == nil {
		return false
	}
	return p.typ == f.typ || p.typ.AssignableTo(f.typ)
}

func (p typedParameter) value() any { return p.val }

func (p typedParameter) String() string {
	return fmt.Sprintf("Typed(%v)", p.typ)
}

// Named creates a parameter that binds to the constructor parameter with the
// given name. Names are only available when the registration declared them
// (Go reflection does not expose parameter names).
//
// Example:
//
//	container.Locate((*Server)(nil), ceangal.Named("host", "localhost"))
func Named(name string, value any) Parameter {
	return namedParameter{name: name, val: value}
}

// Positional creates a parameter that binds to the constructor parameter at
// the given zero-based position.
//
// Example:
//
//	container.Locate((*Server)(nil), ceangal.Positional(2, true))
func Positional(index int, value any) Parameter {
	return positionalParameter{index: index, val: value}
}

// Typed creates a parameter that binds to the first constructor parameter
// whose declared type the value's runtime type equals or implements.
//
// Example:
//
//	container.Locate((*Server)(nil), ceangal.Typed(&tls.Config{}))
func Typed(value any) Parameter {
	return typedParameter{typ: reflect.TypeOf(value), val: value}
}

// TypedAs behaves like Typed but matches using an explicitly supplied type
// token instead of the value's runtime type. Use it when the value should
// bind as one of the interfaces it implements.
//
// Example:
//
//	ceangal.TypedAs(&memorySink{}, (*Sink)(nil))
func TypedAs(value, typeToken any) Parameter {
	return typedParameter{typ: typeOfToken(typeToken), val: value}
}

// assignParam converts a supplied override value into an argument for the
// formal parameter, or reports why it cannot be used.
func assignParam(f formalParam, v any) (reflect.Value, error) {
	if v == nil {
		switch f.typ.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return reflect.Zero(f.typ), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil is not a valid value for parameter type %v", f.typ)
		}
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == f.typ || rv.Type().AssignableTo(f.typ) {
		return rv, nil
	}
	return reflect.Value{}, fmt.Errorf("override value of type %v is not assignable to parameter type %v", rv.Type(), f.typ)
}

package ceangal

import (
	"fmt"
	"reflect"
)

// Constructor describes one candidate constructor for a registered type.
// The function's parameters are bound by the four-step algorithm documented
// on Container.Locate: registration overrides, call-site overrides,
// recursive resolution, declared defaults.
//
// Supported signatures:
//   - func(...) T
//   - func(...) (T, error)
//
// ParamNames optionally declares the formal parameter names in order; Go
// reflection does not expose them, and Named() overrides can only match
// parameters whose names were declared here. Defaults optionally declares
// per-position fallback values used when a parameter cannot be bound any
// other way.
//
// Example:
//
//	&ceangal.Constructor{
//	    Fn:         NewServer, // func(host string, port int, useTLS bool) *Server
//	    ParamNames: []string{"host", "port", "useTLS"},
//	    Defaults:   map[int]any{2: false},
//	}
type Constructor struct {
	Fn         any
	ParamNames []string
	Defaults   map[int]any
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// constructorInfo is the compiled form of a Constructor: the formal
// parameter metadata plus a factory that instantiates from already-resolved
// argument values with no name or type lookups on the hot path.
type constructorInfo struct {
	params  []formalParam
	factory func(args []reflect.Value) (any, error)
}

// compileConstructor validates a constructor descriptor against the
// registration's concrete type and compiles it.
func compileConstructor(ctor *Constructor, concreteType reflect.Type) (*constructorInfo, error) {
	if ctor == nil || ctor.Fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(ctor.Fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (T) or (T, error), got %d return values", numOut)
	}
	returnsError := false
	if numOut == 2 {
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}
	if concreteType != nil && !fnType.Out(0).AssignableTo(concreteType) {
		return nil, fmt.Errorf("constructor returns %v, which is not assignable to registered type %v", fnType.Out(0), concreteType)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported")
	}

	numIn := fnType.NumIn()
	if len(ctor.ParamNames) != 0 && len(ctor.ParamNames) != numIn {
		return nil, fmt.Errorf("constructor has %d parameters but %d names were declared", numIn, len(ctor.ParamNames))
	}

	params := make([]formalParam, numIn)
	for i := 0; i < numIn; i++ {
		p := formalParam{position: i, typ: fnType.In(i)}
		if len(ctor.ParamNames) != 0 {
			p.name = ctor.ParamNames[i]
		}
		if def, ok := ctor.Defaults[i]; ok {
			if _, err := assignParam(p, def); err != nil {
				return nil, fmt.Errorf("default for parameter %d: %w", i, err)
			}
			p.hasDefault = true
			p.def = def
		}
		params[i] = p
	}

	factory := func(args []reflect.Value) (any, error) {
		results := fnValue.Call(args)
		if returnsError {
			if errValue := results[1]; !errValue.IsNil() {
				return nil, fmt.Errorf("constructor returned error: %w", errValue.Interface().(error))
			}
		}
		return results[0].Interface(), nil
	}

	return &constructorInfo{params: params, factory: factory}, nil
}

// zeroValueConstructor compiles the implicit default constructor for a
// pointer-to-struct type: a factory producing a zero-valued instance.
func zeroValueConstructor(concreteType reflect.Type) (*constructorInfo, error) {
	if concreteType.Kind() != reflect.Ptr || concreteType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %v has no default constructor", concreteType)
	}
	elem := concreteType.Elem()
	return &constructorInfo{
		factory: func([]reflect.Value) (any, error) {
			return reflect.New(elem).Interface(), nil
		},
	}, nil
}

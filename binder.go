package ceangal

import (
	"reflect"
)

// dependencyResolver resolves a constructor parameter's declared type. It
// reports whether the type was registered at all; resolution errors for
// registered types fail the parameter rather than falling through to a
// declared default.
type dependencyResolver func(t reflect.Type) (value any, registered bool, err error)

// bindConstructor produces one argument value per formal parameter of the
// candidate constructor, or reports the first parameter that cannot be
// bound. For each formal parameter, in declaration order:
//
//  1. Registration-time overrides are scanned in order; the first whose
//     predicate matches and that no earlier parameter consumed wins.
//  2. Call-site overrides are scanned the same way.
//  3. If the parameter's declared type is registered (directly or via an
//     alias), it is resolved recursively with no further overrides.
//  4. A declared default value is used if one exists.
//  5. Otherwise binding fails and the constructor is rejected.
//
// Each override and each formal parameter participates in at most one match
// per call.
func bindConstructor(target reflect.Type, info *constructorInfo, regOverrides, callOverrides []Parameter, resolve dependencyResolver) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(info.params))
	consumedReg := make([]bool, len(regOverrides))
	consumedCall := make([]bool, len(callOverrides))

	for i, param := range info.params {
		arg, bound, err := bindOverride(target, param, regOverrides, consumedReg)
		if err != nil {
			return nil, err
		}
		if !bound {
			arg, bound, err = bindOverride(target, param, callOverrides, consumedCall)
			if err != nil {
				return nil, err
			}
		}
		if !bound {
			value, registered, resolveErr := resolve(param.typ)
			if registered {
				if resolveErr != nil {
					return nil, &UnresolvableParameterError{
						Type:      target,
						Name:      param.name,
						Position:  param.position,
						ParamType: param.typ,
						Cause:     resolveErr,
					}
				}
				arg, err = assignParam(param, value)
				if err != nil {
					return nil, &UnresolvableParameterError{
						Type:      target,
						Name:      param.name,
						Position:  param.position,
						ParamType: param.typ,
						Cause:     err,
					}
				}
				bound = true
			}
		}
		if !bound && param.hasDefault {
			arg, err = assignParam(param, param.def)
			if err != nil {
				return nil, err
			}
			bound = true
		}
		if !bound {
			return nil, &UnresolvableParameterError{
				Type:      target,
				Name:      param.name,
				Position:  param.position,
				ParamType: param.typ,
			}
		}
		args[i] = arg
	}

	return args, nil
}

// bindOverride scans one override list in order and binds the first
// unconsumed override whose predicate matches the formal parameter. A
// matched override whose value cannot be assigned rejects the whole
// constructor rather than falling through to later binding steps.
func bindOverride(target reflect.Type, param formalParam, overrides []Parameter, consumed []bool) (reflect.Value, bool, error) {
	for i, override := range overrides {
		if consumed[i] || !override.matches(param) {
			continue
		}
		arg, err := assignParam(param, override.value())
		if err != nil {
			return reflect.Value{}, false, &UnresolvableParameterError{
				Type:      target,
				Name:      param.name,
				Position:  param.position,
				ParamType: param.typ,
				Cause:     err,
			}
		}
		consumed[i] = true
		return arg, true, nil
	}
	return reflect.Value{}, false, nil
}

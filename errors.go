package ceangal

import (
	"fmt"
	"reflect"
	"strings"
)

// UnresolvableParameterError is returned when a constructor parameter cannot
// be bound by any override, registration, or declared default.
type UnresolvableParameterError struct {
	Type      reflect.Type
	Name      string
	Position  int
	ParamType reflect.Type
	Cause     error
}

func (e *UnresolvableParameterError) Error() string {
	name := e.Name
	if name == "" {
		name = "_"
	}
	msg := fmt.Sprintf("cannot bind parameter %s (position %d, type %v) of %v",
		name, e.Position, e.ParamType, e.Type)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error, if any.
func (e *UnresolvableParameterError) Unwrap() error {
	return e.Cause
}

// NoViableConstructorError is returned when none of a type's candidate
// constructors can be fully bound.
type NoViableConstructorError struct {
	Type       reflect.Type
	Candidates int
	Causes     []error
}

func (e *NoViableConstructorError) Error() string {
	if e.Candidates == 0 {
		return fmt.Sprintf("no constructor available for %v. Did you forget to register it with Export()?", e.Type)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "no viable constructor for %v (%d candidate(s) rejected)", e.Type, e.Candidates)
	for _, cause := range e.Causes {
		fmt.Fprintf(&b, "\n  %v", cause)
	}
	return b.String()
}

func (e *NoViableConstructorError) Unwrap() []error {
	return e.Causes
}

// ScopeRequiredError is returned when a scoped type is resolved outside a scope.
type ScopeRequiredError struct {
	Type reflect.Type
}

func (e *ScopeRequiredError) Error() string {
	return fmt.Sprintf("type %v is registered as scoped and must be resolved through Scope.Locate(), not Container.Locate()", e.Type)
}

// ObjectDisposedError is returned when an operation is attempted on a
// disposed scope.
type ObjectDisposedError struct {
	Object string
}

func (e *ObjectDisposedError) Error() string {
	return fmt.Sprintf("%s has been disposed", e.Object)
}

// CircularDependencyError indicates that resolution recursed into a type that
// is already under construction on the same call stack.
type CircularDependencyError struct {
	Path []reflect.Type
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	names := make([]string, len(e.Path))
	for i, t := range e.Path {
		names[i] = t.String()
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(names, " -> "))
}

// InvalidRegistrationError is returned when a registration has invalid parameters.
type InvalidRegistrationError struct {
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration: %s", e.Reason)
}

// ResolutionError wraps a failure while resolving a requested type. The
// requested type is always carried so misconfiguration is diagnosable
// without a debugger.
type ResolutionError struct {
	Type  reflect.Type
	Cause error
}

func (e *ResolutionError) Error() string {
	typeStr := "unknown"
	if e.Type != nil {
		typeStr = e.Type.String()
	}
	if e.Cause == nil {
		return fmt.Sprintf("failed to resolve %s", typeStr)
	}
	return fmt.Sprintf("failed to resolve %s: %v", typeStr, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates one or more failures raised while disposing
// instances. The registry or scope is already consistent when it is returned.
type DisposalError struct {
	Err error
}

func (e *DisposalError) Error() string {
	return fmt.Sprintf("disposal failed: %v", e.Err)
}

func (e *DisposalError) Unwrap() error {
	return e.Err
}

package ceangal

// Lifetime represents the lifecycle strategy for a registered type.
type Lifetime string

const (
	// LifetimeTransient creates a new instance on every resolution.
	// This is the default lifetime for Export() registrations.
	LifetimeTransient Lifetime = "transient"

	// LifetimeSingleton creates a single instance shared by all resolutions.
	// The instance is created lazily on first resolution; creation is
	// double-checked so racing callers always observe the same instance.
	LifetimeSingleton Lifetime = "singleton"

	// LifetimeScoped creates one instance per scope.
	// Each scope maintains its own instance cache, isolated from other scopes.
	// Resolving a scoped type outside a scope fails with a ScopeRequiredError.
	LifetimeScoped Lifetime = "scoped"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

package ceangal

import (
	"go.uber.org/zap"
)

// Option configures a container at construction time.
type Option func(*Container) error

// WithLogger sets the container's structured logger. The default is a no-op
// logger.
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	container := ceangal.New(ceangal.WithLogger(logger))
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithEagerPlans compiles construction plans at registration time instead
// of on first resolution, trading registration latency for first-resolution
// latency. Invalid constructors then surface from Register rather than
// from Locate.
func WithEagerPlans() Option {
	return func(c *Container) error {
		c.eagerPlans = true
		return nil
	}
}

// WithoutCycleDetection disables the in-progress-resolution guard that
// converts recursion through a type under construction into a
// CircularDependencyError. Only disable it for hot paths whose dependency
// graph is known to be acyclic.
func WithoutCycleDetection() Option {
	return func(c *Container) error {
		c.detectCycles = false
		return nil
	}
}

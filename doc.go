// Package ceangal provides a concurrent, in-process service locator for Go.
//
// Ceangal (Irish: "tie" or "bond") builds and returns fully-wired instances
// on demand, resolving transitive constructor dependencies automatically.
// Types may be registered and unregistered at any time, from any goroutine,
// with no upfront build phase; repeat resolution of an already-planned type
// costs a couple of map reads.
//
// # Features
//
//   - Constructor injection with per-parameter overrides (by name, position,
//     or type)
//   - Multiple lifetime strategies (Transient, Singleton, Scoped)
//   - Alias sets: several implementations behind one interface, resolvable
//     singly (first registered wins) or as a collection snapshot
//   - Live registry: register, replace, and unregister types while other
//     goroutines resolve, with cascade invalidation of cached plans
//   - Disposal contracts (sync and context-aware) honoured on scope
//     disposal and unregistration
//   - Registration/unregistration notifications for observers
//   - Circular dependency detection
//   - Structured logging via zap
//
// # Quick start
//
// Create a container and export services:
//
//	container := ceangal.New()
//	container.Export(NewConsoleLogger).As((*Logger)(nil)).Transient()
//
//	logger, err := container.Locate((*Logger)(nil))
//
// # Lifetimes
//
// Transient - new instance each time:
//
//	container.Export(NewWorker).Transient()
//
// Singleton - single shared instance, created lazily and race-free:
//
//	container.Export(NewCache).As((*Cache)(nil)).Singleton()
//
// Scoped - one instance per scope:
//
//	scope := container.CreateScope()
//	defer scope.Dispose()
//	uow, err := scope.Locate((*UnitOfWork)(nil))
//
// # Parameter overrides
//
// Constructor parameters bind in four steps: registration-time overrides,
// call-site overrides, recursive resolution of registered parameter types,
// declared defaults. Overrides match by name, position, or type, first
// match wins, each consumed at most once:
//
//	container.Export(NewServer, "host", "port", "useTLS").
//	    WithParameter(ceangal.Positional(0, "localhost"), ceangal.Positional(1, 8080)).
//	    Singleton()
//
//	srv, err := container.Locate((*Server)(nil), ceangal.Named("useTLS", true))
//
// # Hot swapping
//
// Unregistering a type removes it from every alias set, invalidates its
// cached construction plan, and disposes its singleton instance if one was
// created. A replacement registered under the same alias is picked up by
// the very next resolution:
//
//	container.Unregister((*FileLogger)(nil))
//	container.Export(NewCloudLogger).As((*Logger)(nil)).Singleton()
//
// # Thread safety
//
// All operations are safe for concurrent use. Resolution never holds a
// global lock; the only blocking is the short critical section for
// first-time singleton construction and scope-disposal bookkeeping.
package ceangal

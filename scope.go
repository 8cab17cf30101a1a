package ceangal

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Disposable represents an instance that requires cleanup. Instances
// implementing it are disposed when their owning scope is disposed, or when
// their singleton registration is unregistered.
//
// Example:
//
//	type DatabaseConnection struct{}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.conn.Close()
//	}
type Disposable interface {
	Dispose() error
}

// ContextDisposable represents an instance whose cleanup is asynchronous.
// Synchronous disposal paths block on it with a background context; the
// context-aware entry points (Scope.DisposeContext, UnregisterContext) pass
// the caller's context through.
type ContextDisposable interface {
	DisposeContext(ctx context.Context) error
}

// disposeInstance invokes the instance's disposal contract, if any. It
// reports whether a contract was invoked.
func disposeInstance(ctx context.Context, instance any) (bool, error) {
	switch d := instance.(type) {
	case ContextDisposable:
		return true, d.DisposeContext(ctx)
	case Disposable:
		return true, d.Dispose()
	default:
		return false, nil
	}
}

// Scope is an isolated resolution context. Scoped types resolve to one
// instance per scope; every disposable instance created within the scope is
// released exactly once when the scope is disposed. Scopes are cheap to
// create, fully independent of each other, and safe for concurrent use.
//
// Example:
//
//	scope := container.CreateScope()
//	defer scope.Dispose()
//
//	uow, err := scope.Locate((*UnitOfWork)(nil))
type Scope struct {
	id        uuid.UUID
	container *Container

	mu          sync.RWMutex
	slots       map[reflect.Type]*scopeSlot
	disposables []any // creation order, for reverse disposal
	disposed    bool
}

// scopeSlot holds one scope-bound instance; the Once guarantees a single
// construction per slot even under concurrent first access.
type scopeSlot struct {
	value any
	err   error
	once  sync.Once
}

// newScope creates a new scope bound to the given container.
func newScope(c *Container) *Scope {
	return &Scope{
		id:        uuid.New(),
		container: c,
		slots:     make(map[reflect.Type]*scopeSlot),
	}
}

// ID returns the scope's unique identifier, for logging and diagnostics.
func (s *Scope) ID() uuid.UUID {
	return s.id
}

// Locate behaves exactly like Container.Locate except that scoped types
// resolve against this scope's private slots instead of failing. Transient
// and disposable instances created through the scope are released when the
// scope is disposed; singletons remain owned by the container.
func (s *Scope) Locate(token any, overrides ...Parameter) (any, error) {
	if err := s.checkDisposed(); err != nil {
		return nil, err
	}
	res := &resolution{container: s.container, scope: s}
	return s.container.resolve(res, typeOfToken(token), overrides)
}

// MustLocate is like Locate but panics on failure.
func (s *Scope) MustLocate(token any, overrides ...Parameter) any {
	instance, err := s.Locate(token, overrides...)
	if err != nil {
		panic(err)
	}
	return instance
}

// LocateAll behaves like Container.LocateAll with this scope active, so
// scoped implementations resolve instead of failing.
func (s *Scope) LocateAll(aliasToken any) ([]any, error) {
	if err := s.checkDisposed(); err != nil {
		return nil, err
	}
	res := &resolution{container: s.container, scope: s}
	return s.container.resolveAll(res, typeOfToken(aliasToken))
}

func (s *Scope) checkDisposed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return &ObjectDisposedError{Object: fmt.Sprintf("scope %s", s.id)}
	}
	return nil
}

// getOrCreate returns the scope-bound instance for the given type, creating
// it with the factory on first access. The per-type slot guarantees racing
// callers observe a single instance, and construction never holds the scope
// lock, so scoped types may depend on other scoped types.
func (s *Scope) getOrCreate(t reflect.Type, factory func() (any, error)) (any, error) {
	// Fast path: existing slot under read lock
	s.mu.RLock()
	slot, exists := s.slots[t]
	disposed := s.disposed
	s.mu.RUnlock()

	if !exists {
		if disposed {
			return nil, &ObjectDisposedError{Object: fmt.Sprintf("scope %s", s.id)}
		}
		s.mu.Lock()
		// Double-check after acquiring write lock
		slot, exists = s.slots[t]
		if !exists {
			if s.disposed {
				s.mu.Unlock()
				return nil, &ObjectDisposedError{Object: fmt.Sprintf("scope %s", s.id)}
			}
			slot = &scopeSlot{}
			s.slots[t] = slot
		}
		s.mu.Unlock()
	}

	slot.once.Do(func() {
		slot.value, slot.err = factory()
		if slot.err == nil {
			s.track(slot.value)
		}
	})

	return slot.value, slot.err
}

// track records a disposable instance created within this scope.
func (s *Scope) track(instance any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.trackLocked(instance)
}

func (s *Scope) trackLocked(instance any) {
	switch instance.(type) {
	case Disposable, ContextDisposable:
		s.disposables = append(s.disposables, instance)
	}
}

// Dispose releases every disposable instance created within the scope, in
// reverse creation order, then clears the scope. Disposing twice is a
// no-op. Resolution from a disposed scope fails with ObjectDisposedError.
func (s *Scope) Dispose() error {
	disposables, done := s.takeDisposables()
	if done {
		return nil
	}

	var errs error
	for i := len(disposables) - 1; i >= 0; i-- {
		if _, err := disposeInstance(context.Background(), disposables[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("disposing %T: %w", disposables[i], err))
		}
	}

	s.container.logger.Debug("scope disposed",
		zap.String("scope", s.id.String()),
		zap.Int("disposables", len(disposables)),
	)
	if errs != nil {
		return &DisposalError{Err: errs}
	}
	return nil
}

// DisposeContext releases the scope's disposables concurrently, honouring
// the caller's context for context-aware cleanup. Like Dispose, it is
// idempotent.
func (s *Scope) DisposeContext(ctx context.Context) error {
	disposables, done := s.takeDisposables()
	if done {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, instance := range disposables {
		instance := instance
		g.Go(func() error {
			if _, err := disposeInstance(ctx, instance); err != nil {
				return fmt.Errorf("disposing %T: %w", instance, err)
			}
			return nil
		})
	}

	err := g.Wait()
	s.container.logger.Debug("scope disposed",
		zap.String("scope", s.id.String()),
		zap.Int("disposables", len(disposables)),
	)
	if err != nil {
		return &DisposalError{Err: err}
	}
	return nil
}

// takeDisposables atomically marks the scope disposed and detaches its
// bookkeeping. The second return reports that the scope was already
// disposed.
func (s *Scope) takeDisposables() ([]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, true
	}
	s.disposed = true
	disposables := s.disposables
	s.disposables = nil
	s.slots = make(map[reflect.Type]*scopeSlot)
	return disposables, false
}

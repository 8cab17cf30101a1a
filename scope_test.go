package ceangal

import (
	"context"
	"errors"
	"testing"
)

// Test types for scoping and cleanup

type unitOfWork struct {
	disposed int
}

func (u *unitOfWork) Dispose() error {
	u.disposed++
	return nil
}

func newUnitOfWork() *unitOfWork {
	return &unitOfWork{}
}

type asyncResource struct {
	disposed int
	ctxSeen  context.Context
}

func (a *asyncResource) DisposeContext(ctx context.Context) error {
	a.disposed++
	a.ctxSeen = ctx
	return nil
}

type failingDisposable struct{}

func (f *failingDisposable) Dispose() error {
	return errors.New("disposal failed")
}

type disposalRecorder struct {
	order *[]string
	name  string
}

func (d *disposalRecorder) Dispose() error {
	*d.order = append(*d.order, d.name)
	return nil
}

func TestScope_Isolation(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Scoped()

	scope1 := container.CreateScope()
	scope2 := container.CreateScope()
	defer scope1.Dispose()
	defer scope2.Dispose()

	first, err := scope1.Locate((*unitOfWork)(nil))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	second, _ := scope2.Locate((*unitOfWork)(nil))
	if first == second {
		t.Error("distinct scopes must not share scoped instances")
	}

	again, _ := scope1.Locate((*unitOfWork)(nil))
	if first != again {
		t.Error("repeated resolution within one scope must be reference-stable")
	}
}

func TestScope_IDsAreUnique(t *testing.T) {
	container := New()
	scope1 := container.CreateScope()
	scope2 := container.CreateScope()
	if scope1.ID() == scope2.ID() {
		t.Error("scopes must have unique identifiers")
	}
}

func TestScopedType_FailsOutsideScope(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Scoped()

	_, err := container.Locate((*unitOfWork)(nil))
	if err == nil {
		t.Fatal("scoped resolution outside a scope must fail")
	}
	var scopeErr *ScopeRequiredError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("expected ScopeRequiredError, got %T", err)
	}
}

func TestScopedDependency_FailsOutsideScopeViaInjection(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Scoped()
	container.Export(func(u *unitOfWork) *asyncResource { return &asyncResource{} }).Transient()

	// Constructor injection of a scoped type without a scope must not
	// silently fall back to transient behaviour.
	_, err := container.Locate((*asyncResource)(nil))
	if err == nil {
		t.Fatal("expected failure resolving scoped dependency outside a scope")
	}
	var scopeErr *ScopeRequiredError
	if !errors.As(err, &scopeErr) {
		t.Fatalf("expected ScopeRequiredError in chain, got %v", err)
	}
}

func TestScope_SingletonDelegatesToContainer(t *testing.T) {
	container := New()
	container.Export(NewCloudLogger).As((*Logger)(nil)).Singleton()

	scope := container.CreateScope()
	defer scope.Dispose()

	fromScope, err := scope.Locate((*Logger)(nil))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	fromRoot, _ := container.Locate((*Logger)(nil))
	if fromScope != fromRoot {
		t.Error("singletons resolved in a scope must be the container-wide instance")
	}
}

func TestScope_DisposesScopedInstances(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Scoped()

	scope := container.CreateScope()
	instance, _ := scope.Locate((*unitOfWork)(nil))

	if err := scope.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if instance.(*unitOfWork).disposed != 1 {
		t.Errorf("instance disposed %d times, want 1", instance.(*unitOfWork).disposed)
	}
}

func TestScope_DisposesTransientsCreatedWithin(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Transient()

	scope := container.CreateScope()
	instance, _ := scope.Locate((*unitOfWork)(nil))

	scope.Dispose()
	if instance.(*unitOfWork).disposed != 1 {
		t.Error("transient disposable created in scope must be disposed with it")
	}
}

func TestScope_DisposalIsReverseCreationOrder(t *testing.T) {
	container := New()
	var order []string
	container.Export(func() *disposalRecorder { return &disposalRecorder{order: &order, name: "first"} }).Scoped()

	scope := container.CreateScope()
	scope.Locate((*disposalRecorder)(nil))

	second := &disposalRecorder{order: &order, name: "second"}
	scope.track(second)

	scope.Dispose()
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("disposal order = %v, want [second first]", order)
	}
}

func TestScope_DisposeTwiceIsNoOp(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Scoped()

	scope := container.CreateScope()
	instance, _ := scope.Locate((*unitOfWork)(nil))

	if err := scope.Dispose(); err != nil {
		t.Fatalf("first Dispose failed: %v", err)
	}
	if err := scope.Dispose(); err != nil {
		t.Fatalf("second Dispose must be a no-op, got: %v", err)
	}
	if instance.(*unitOfWork).disposed != 1 {
		t.Errorf("instance disposed %d times, want exactly 1", instance.(*unitOfWork).disposed)
	}
}

func TestScope_LocateAfterDisposeFails(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).Scoped()

	scope := container.CreateScope()
	scope.Dispose()

	_, err := scope.Locate((*unitOfWork)(nil))
	if err == nil {
		t.Fatal("resolution from a disposed scope must fail")
	}
	var disposedErr *ObjectDisposedError
	if !errors.As(err, &disposedErr) {
		t.Fatalf("expected ObjectDisposedError, got %T", err)
	}
}

func TestScope_DisposeReportsFailures(t *testing.T) {
	container := New()
	container.ExportType((*failingDisposable)(nil)).Scoped()

	scope := container.CreateScope()
	scope.Locate((*failingDisposable)(nil))

	err := scope.Dispose()
	if err == nil {
		t.Fatal("expected disposal error")
	}
	var dispErr *DisposalError
	if !errors.As(err, &dispErr) {
		t.Fatalf("expected DisposalError, got %T", err)
	}
}

func TestScope_DisposeContext(t *testing.T) {
	container := New()
	container.ExportType((*asyncResource)(nil)).Scoped()

	scope := container.CreateScope()
	instance, _ := scope.Locate((*asyncResource)(nil))

	if err := scope.DisposeContext(context.Background()); err != nil {
		t.Fatalf("DisposeContext failed: %v", err)
	}
	res := instance.(*asyncResource)
	if res.disposed != 1 {
		t.Errorf("disposed %d times, want 1", res.disposed)
	}
	if res.ctxSeen == nil {
		t.Error("context was not threaded through disposal")
	}

	if err := scope.DisposeContext(context.Background()); err != nil {
		t.Errorf("second DisposeContext must be a no-op, got: %v", err)
	}
}

func TestScope_LocateAllResolvesScopedMembers(t *testing.T) {
	container := New()
	container.Export(newUnitOfWork).As((*Disposable)(nil)).Scoped()

	scope := container.CreateScope()
	defer scope.Dispose()

	instances, err := scope.LocateAll((*Disposable)(nil))
	if err != nil {
		t.Fatalf("LocateAll failed: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(instances))
	}

	again, _ := scope.Locate((*Disposable)(nil))
	if instances[0] != again {
		t.Error("scoped collection member must be the scope-bound instance")
	}
}

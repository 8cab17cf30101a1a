package ceangal

import (
	"errors"
	"testing"
)

type cache interface {
	Get(key string) (string, bool)
}

type memoryCache struct {
	entries map[string]string
}

func NewMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (m *memoryCache) Get(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

type redisCache struct {
	addr string
	db   int
}

func NewRedisCache(addr string, db int) *redisCache {
	return &redisCache{addr: addr, db: db}
}

func (r *redisCache) Get(string) (string, bool) { return "", false }

func NewLocalRedisCache() *redisCache {
	return &redisCache{addr: "localhost:6379"}
}

func TestExport_ConstructorAndAlias(t *testing.T) {
	container := New()

	err := container.Export(NewMemoryCache).As((*cache)(nil)).Singleton()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	c, err := container.Locate((*cache)(nil))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if _, ok := c.(*memoryCache); !ok {
		t.Errorf("resolved %T, want *memoryCache", c)
	}
}

func TestExport_ParameterOverridesAndDefaults(t *testing.T) {
	container := New()

	err := container.Export(NewRedisCache, "addr", "db").
		As((*cache)(nil)).
		WithParameter(Named("addr", "redis:6379")).
		WithDefault(1, 3).
		Transient()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	c := container.MustLocate((*redisCache)(nil)).(*redisCache)
	if c.addr != "redis:6379" {
		t.Errorf("addr = %q", c.addr)
	}
	if c.db != 3 {
		t.Errorf("db = %d", c.db)
	}
}

func TestExportType_ZeroValue(t *testing.T) {
	container := New()

	if err := container.ExportType((*memoryCache)(nil)).Transient(); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	c := container.MustLocate((*memoryCache)(nil)).(*memoryCache)
	if c.entries != nil {
		t.Error("zero-value construction must not run any constructor")
	}
}

func TestExportType_RejectsNonStructToken(t *testing.T) {
	container := New()

	err := container.ExportType((*cache)(nil)).Transient()
	var invalid *InvalidRegistrationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRegistrationError, got %v", err)
	}
}

func TestExportInstance(t *testing.T) {
	container := New()
	prebuilt := NewMemoryCache()

	if err := container.ExportInstance(prebuilt).As((*cache)(nil)).Singleton(); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	if got := container.MustLocate((*cache)(nil)); got != prebuilt {
		t.Error("prebuilt instance must be served as-is")
	}
}

func TestExport_ChainErrorShortCircuits(t *testing.T) {
	container := New()

	// The nil constructor poisons the chain; later calls must not panic and
	// the terminal call must surface the first error.
	err := container.Export(NewMemoryCache).
		WithConstructor(nil).
		As((*cache)(nil)).
		WithParameter(Named("addr", "x")).
		Singleton()
	if err == nil {
		t.Fatal("expected chain error")
	}
	if container.IsRegistered((*memoryCache)(nil)) {
		t.Error("failed chain must not register anything")
	}
}

func TestExport_WithDefaultRequiresConstructor(t *testing.T) {
	container := New()

	err := container.ExportType((*memoryCache)(nil)).WithDefault(0, "x").Transient()
	if err == nil {
		t.Fatal("expected error for WithDefault without a constructor")
	}
}

func TestExport_MultipleConstructorCandidates(t *testing.T) {
	container := New()

	err := container.Export(NewRedisCache, "addr", "db").
		WithConstructor(NewLocalRedisCache).
		As((*cache)(nil)).
		Transient()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// Neither addr nor db is bindable, so the two-parameter candidate is
	// rejected and the zero-parameter fallback constructs the instance.
	c, err := container.Locate((*redisCache)(nil))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if c.(*redisCache).addr != "localhost:6379" {
		t.Errorf("fallback constructor not used, addr = %q", c.(*redisCache).addr)
	}
}

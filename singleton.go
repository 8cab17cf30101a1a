package ceangal

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/toutaio/toutago-ceangal-service-locator/registry"
)

// singletonSlot holds a singleton value and ensures it is created only once.
// owner is the registration the slot was created for; callers holding a
// different registration of the same type must not be served from it. done
// distinguishes a populated slot from one whose construction is still in
// flight or never happened.
type singletonSlot struct {
	owner *registry.Registration
	value any
	err   error
	once  sync.Once
	done  atomic.Bool
}

// singletonCache manages singleton instances with thread-safe lazy
// initialization and removal. Slots are stamped with the registration they
// were created for, so a resolver that raced an unregister or replacement
// can never pin a stale instance under the current registration: the owner
// mismatch is visible to every later caller, who evicts the slot and
// rebuilds. Removing a slot while another goroutine is mid-construction
// orphans that construction: it completes against the detached slot.
type singletonCache struct {
	instances map[reflect.Type]*singletonSlot
	mu        sync.RWMutex
}

// newSingletonCache creates a new singleton cache.
func newSingletonCache() *singletonCache {
	return &singletonCache{
		instances: make(map[reflect.Type]*singletonSlot),
	}
}

// getOrCreate retrieves or creates the singleton slot for reg's concrete
// type and returns the slot's value along with the registration that owns
// it. The factory is called exactly once per slot, even under concurrent
// access. When the existing slot is owned by evict, it is replaced with a
// fresh slot owned by reg; deciding whether an owner mismatch means the
// slot or the caller is stale is the caller's job, since only the registry
// knows which registration is current.
//
// This method is goroutine-safe.
func (sc *singletonCache) getOrCreate(reg, evict *registry.Registration, factory func() (any, error)) (any, *registry.Registration, error) {
	t := reg.ConcreteType

	// Fast path: check if the slot exists (read lock)
	sc.mu.RLock()
	slot, exists := sc.instances[t]
	sc.mu.RUnlock()

	if !exists || (evict != nil && slot.owner == evict) {
		// Slow path: create the slot holder (write lock)
		sc.mu.Lock()
		// Double-check after acquiring write lock
		slot, exists = sc.instances[t]
		if !exists || (evict != nil && slot.owner == evict) {
			slot = &singletonSlot{owner: reg}
			sc.instances[t] = slot
		}
		sc.mu.Unlock()
	}

	slot.once.Do(func() {
		slot.value, slot.err = factory()
		slot.done.Store(true)
	})

	return slot.value, slot.owner, slot.err
}

// store populates the slot for a prebuilt instance, replacing any existing
// slot.
//
// This method is goroutine-safe.
func (sc *singletonCache) store(reg *registry.Registration, value any) {
	slot := &singletonSlot{owner: reg}
	slot.once.Do(func() {
		slot.value = value
		slot.done.Store(true)
	})

	sc.mu.Lock()
	sc.instances[reg.ConcreteType] = slot
	sc.mu.Unlock()
}

// take removes the slot for the given type and returns its instance if
// construction had completed. A slot that exists but is still constructing
// reports no instance; the in-flight construction finishes against the
// detached slot.
//
// This method is goroutine-safe.
func (sc *singletonCache) take(concreteType reflect.Type) (any, bool) {
	sc.mu.Lock()
	slot, exists := sc.instances[concreteType]
	delete(sc.instances, concreteType)
	sc.mu.Unlock()

	if !exists || !slot.done.Load() || slot.err != nil {
		return nil, false
	}
	return slot.value, true
}

// drop removes the slot for the given type without returning the instance.
func (sc *singletonCache) drop(concreteType reflect.Type) {
	sc.mu.Lock()
	delete(sc.instances, concreteType)
	sc.mu.Unlock()
}

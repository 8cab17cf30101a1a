package ceangal

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// RegisterEvent carries the details of one successful registration.
type RegisterEvent struct {
	Type        reflect.Type
	Aliases     []reflect.Type
	Lifetime    Lifetime
	HasInstance bool
}

// UnregisterEvent carries the details of one successful unregistration.
// Instance is the removed singleton instance, or nil if none had been
// created; Disposed reports whether a disposal contract was invoked on it.
type UnregisterEvent struct {
	Type     reflect.Type
	Instance any
	Disposed bool
}

// eventBus fans registration notifications out to subscribed handlers.
// Handlers are fire-and-observe: the container never depends on their
// outcome, and a panicking handler is isolated and logged rather than
// allowed to corrupt registry state.
type eventBus struct {
	mu           sync.RWMutex
	onRegister   []func(RegisterEvent)
	onUnregister []func(UnregisterEvent)
	logger       *zap.Logger
}

func newEventBus(logger *zap.Logger) *eventBus {
	return &eventBus{logger: logger}
}

func (b *eventBus) subscribeRegister(handler func(RegisterEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onRegister = append(b.onRegister, handler)
}

func (b *eventBus) subscribeUnregister(handler func(UnregisterEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onUnregister = append(b.onUnregister, handler)
}

func (b *eventBus) fireRegister(event RegisterEvent) {
	b.mu.RLock()
	handlers := b.onRegister
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(func() { handler(event) }, "register", event.Type)
	}
}

func (b *eventBus) fireUnregister(event UnregisterEvent) {
	b.mu.RLock()
	handlers := b.onUnregister
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(func() { handler(event) }, "unregister", event.Type)
	}
}

func (b *eventBus) invoke(fn func(), kind string, t reflect.Type) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", kind),
				zap.String("type", t.String()),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

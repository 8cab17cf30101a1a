package ceangal

import (
	"fmt"
	"reflect"

	"github.com/toutaio/toutago-ceangal-service-locator/registry"
)

// ServiceProvider is a configuration pass that yields a batch of related
// registrations. Providers keep registration concerns modular: a database
// provider exports its pool and unit-of-work types, a logging provider its
// sinks, and so on.
//
// Example:
//
//	type DatabaseProvider struct{ dsn string }
//
//	func (p *DatabaseProvider) Registrations(c *ceangal.Container) ([]registry.Registration, error) {
//	    return []registry.Registration{
//	        {
//	            ConcreteType: reflect.TypeOf((*PgPool)(nil)),
//	            Lifetime:     "singleton",
//	            Aliases:      []reflect.Type{reflect.TypeOf((*Pool)(nil)).Elem()},
//	            Constructors: []any{&ceangal.Constructor{Fn: NewPgPool}},
//	        },
//	    }, nil
//	}
type ServiceProvider interface {
	Registrations(c *Container) ([]registry.Registration, error)
}

// BootableProvider is an optional interface for providers that need a boot
// phase once every provider's registrations have been applied.
type BootableProvider interface {
	ServiceProvider
	Boot(c *Container) error
}

// providerEntry tracks a registered provider.
type providerEntry struct {
	provider ServiceProvider
	booted   bool
}

// RegisterProvider applies a provider's registrations to the container. A
// provider of a type that was already registered is skipped. If the
// provider implements BootableProvider, its Boot method runs when
// BootProviders is invoked.
//
// Example:
//
//	container.RegisterProvider(&DatabaseProvider{dsn: dsn})
//	container.RegisterProvider(&LoggingProvider{})
//	container.BootProviders()
func (c *Container) RegisterProvider(provider ServiceProvider) error {
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	// Deduplicate by provider type
	providerType := reflect.TypeOf(provider)
	for _, entry := range c.providers {
		if reflect.TypeOf(entry.provider) == providerType {
			return nil
		}
	}

	regs, err := provider.Registrations(c)
	if err != nil {
		return fmt.Errorf("provider registration failed: %w", err)
	}
	if err := c.RegisterAll(regs); err != nil {
		return fmt.Errorf("provider registration failed: %w", err)
	}

	c.providers = append(c.providers, &providerEntry{provider: provider})
	return nil
}

// BootProviders calls Boot on every registered provider that implements
// BootableProvider, once each, in registration order.
func (c *Container) BootProviders() error {
	for _, entry := range c.providers {
		if entry.booted {
			continue
		}
		if bootable, ok := entry.provider.(BootableProvider); ok {
			if err := bootable.Boot(c); err != nil {
				return fmt.Errorf("provider boot failed: %w", err)
			}
			entry.booted = true
		}
	}
	return nil
}

// Providers returns the registered providers, for debugging and
// introspection.
func (c *Container) Providers() []ServiceProvider {
	providers := make([]ServiceProvider, len(c.providers))
	for i, entry := range c.providers {
		providers[i] = entry.provider
	}
	return providers
}

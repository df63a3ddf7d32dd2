package provider

import (
	"context"
	"fmt"
	"sync"
)

// DefaultRegistry is a thread-safe Registry implementation.
type DefaultRegistry struct {
	mu        sync.RWMutex
	providers map[string]ConversionProvider
	chain     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		providers: make(map[string]ConversionProvider),
	}
}

// RegisterProvider adds a provider. The first registered provider becomes the
// head of the fallback chain; later ones are appended.
func (r *DefaultRegistry) RegisterProvider(name string, p ConversionProvider) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	r.chain = append(r.chain, name)
	return nil
}

// GetProvider returns a provider by name.
func (r *DefaultRegistry) GetProvider(name string) (ConversionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %q not found", name)
	}
	return p, nil
}

// ListProviders returns all registered provider names.
func (r *DefaultRegistry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// FallbackChain returns a copy of the current fallback order.
func (r *DefaultRegistry) FallbackChain() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]string, len(r.chain))
	copy(chain, r.chain)
	return chain
}

// SetFallbackChain replaces the fallback order. Every name must refer to a
// registered provider.
func (r *DefaultRegistry) SetFallbackChain(names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if _, exists := r.providers[name]; !exists {
			return fmt.Errorf("provider %q not found", name)
		}
	}
	r.chain = make([]string, len(names))
	copy(r.chain, names)
	return nil
}

// HealthCheckAll runs health checks on every registered provider.
func (r *DefaultRegistry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make(map[string]ConversionProvider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	for name, p := range providers {
		results[name] = p.HealthCheck(ctx)
	}
	return results
}

// global registry used by provider packages that self-register in init()

var (
	globalMu       sync.Mutex
	globalRegistry = NewRegistry()
)

// Register adds a provider to the global registry, panicking on conflicts so
// a duplicate registration is caught at startup.
func Register(name string, p ConversionProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if err := globalRegistry.RegisterProvider(name, p); err != nil {
		panic(fmt.Sprintf("provider registration failed: %v", err))
	}
}

// GlobalRegistry returns the registry populated by provider package imports.
func GlobalRegistry() *DefaultRegistry {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalRegistry
}

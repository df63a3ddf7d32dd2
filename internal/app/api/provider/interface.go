package provider

import (
	"context"
)

// ConversionProvider is the contract every image-to-3D provider implements.
// Providers are interchangeable; the orchestrator walks them in fallback
// order until one succeeds.
type ConversionProvider interface {
	// Convert runs one conversion attempt. Implementations must respect the
	// context deadline; the orchestrator bounds every attempt with a timeout.
	Convert(ctx context.Context, req *ConversionRequest) (*ConversionResult, error)

	// GetProviderInfo returns provider metadata and capabilities.
	GetProviderInfo() ProviderInfo

	// HealthCheck verifies the provider is reachable and configured.
	HealthCheck(ctx context.Context) error
}

// Registry manages the registered conversion providers and their fallback
// order.
type Registry interface {
	RegisterProvider(name string, p ConversionProvider) error
	GetProvider(name string) (ConversionProvider, error)
	ListProviders() []string

	// FallbackChain returns provider names in the order the orchestrator
	// should try them.
	FallbackChain() []string
	SetFallbackChain(names []string) error

	HealthCheckAll(ctx context.Context) map[string]error
}

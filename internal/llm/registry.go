package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// Registry manages LLM provider registration, discovery, and health monitoring.
// It provides a centralized registry for all providers with thread-safe
// operations and built-in health aggregation.
type Registry interface {
	// RegisterProvider registers a provider with the registry
	RegisterProvider(provider Provider) error

	// UnregisterProvider removes a provider from the registry by name
	UnregisterProvider(name string) error

	// GetProvider retrieves a provider by name
	GetProvider(name string) (Provider, error)

	// ListProviders returns the names of all registered providers
	ListProviders() []string

	// Health returns the overall health status of the registry
	// Health states:
	// - Healthy: all providers are healthy
	// - Degraded: some providers are unhealthy
	// - Unhealthy: all providers are unhealthy or no providers registered
	Health(ctx context.Context) types.HealthStatus
}

// DefaultRegistry implements Registry with thread-safe operations.
// It uses a sync.RWMutex to protect concurrent access to the provider map.
type DefaultRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new DefaultRegistry instance
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		providers: make(map[string]Provider),
	}
}

// RegisterProvider registers a provider with the registry.
// Returns ErrProviderAlreadyExists if a provider with the same name is already
// registered, and ErrProviderInvalidInput if the provider is nil or unnamed.
func (r *DefaultRegistry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return types.NewError(ErrProviderInvalidInput, "provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return types.NewError(ErrProviderInvalidInput, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return types.NewError(ErrProviderAlreadyExists, fmt.Sprintf("provider %q already registered", name))
	}

	r.providers[name] = provider

	return nil
}

// UnregisterProvider removes a provider from the registry by name.
// Returns ErrProviderNotFound if the provider doesn't exist.
func (r *DefaultRegistry) UnregisterProvider(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", name))
	}

	delete(r.providers, name)

	return nil
}

// GetProvider retrieves a provider by name.
// Returns ErrProviderNotFound if the provider doesn't exist.
func (r *DefaultRegistry) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, types.NewError(ErrProviderNotFound, fmt.Sprintf("provider %q not found", name))
	}

	return provider, nil
}

// ListProviders returns the names of all registered providers.
// The returned slice is sorted alphabetically for consistent ordering.
func (r *DefaultRegistry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Health returns the overall health status of the registry.
func (r *DefaultRegistry) Health(ctx context.Context) types.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.providers) == 0 {
		return types.Unhealthy("no providers registered")
	}

	healthyCount := 0
	unhealthyCount := 0
	totalProviders := len(r.providers)

	for _, provider := range r.providers {
		status := provider.Health(ctx)
		if status.IsHealthy() {
			healthyCount++
		} else {
			unhealthyCount++
		}
	}

	if unhealthyCount == 0 {
		return types.Healthy(fmt.Sprintf("all %d providers healthy", totalProviders))
	} else if healthyCount == 0 {
		return types.Unhealthy(fmt.Sprintf("all %d providers unhealthy", totalProviders))
	}
	return types.Degraded(fmt.Sprintf("%d/%d providers healthy", healthyCount, totalProviders))
}

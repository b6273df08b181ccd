package resilience

import (
	"sync"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is the observable health of an upstream provider,
// derived from its circuit breaker. Reported by the ops endpoints.
type ProviderHealth struct {
	// Name is the provider identifier.
	Name string

	// CircuitState is the current circuit breaker state.
	CircuitState gobreaker.State

	// Counts contains circuit breaker statistics.
	Counts gobreaker.Counts
}

// IsHealthy reports whether the provider circuit is closed.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// Registry tracks upstream provider clients so their circuit state can be
// surfaced on the readiness endpoint.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Client
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*Client),
	}
}

// Register adds a provider client to the registry.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = client
}

// GetHealth returns the health of a specific provider, or nil if the
// provider is not registered.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.providers[name]
	if !ok {
		return nil
	}

	return &ProviderHealth{
		Name:         name,
		CircuitState: client.CircuitBreakerState(),
		Counts:       client.CircuitBreakerCounts(),
	}
}

// GetAllHealth returns the health of all registered providers.
func (r *Registry) GetAllHealth() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.providers))
	for name, client := range r.providers {
		health = append(health, &ProviderHealth{
			Name:         name,
			CircuitState: client.CircuitBreakerState(),
			Counts:       client.CircuitBreakerCounts(),
		})
	}

	return health
}

package scraper

import (
	"context"
	"sort"
	"sync"
)

// Provider fetches current prices for a query. Implementations must be
// stateless and idempotent: no mutable session state may affect correctness
// across calls. Retries and rate limiting are the caller's job, never the
// provider's.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]PriceResult, error)
}

// Factory builds a Provider instance. Registered per provider name.
type Factory func() Provider

// Registry maps provider names to factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get resolves a provider by name. Returns *UnknownProviderError for names
// that were never registered.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownProviderError{Provider: name, Available: r.Names()}
	}
	return f(), nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullProvider struct{ name string }

func (p nullProvider) Name() string { return p.name }

func (p nullProvider) Fetch(context.Context, Query) ([]PriceResult, error) { return nil, nil }

func TestRegistryResolvesRegisteredProvider(t *testing.T) {
	registry := NewRegistry()
	registry.Register("kayak", func() Provider { return nullProvider{name: "kayak"} })

	provider, err := registry.Get("kayak")
	require.NoError(t, err)
	assert.Equal(t, "kayak", provider.Name())
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewRegistry()
	registry.Register("kayak", func() Provider { return nullProvider{name: "kayak"} })
	registry.Register("amadeus", func() Provider { return nullProvider{name: "amadeus"} })

	_, err := registry.Get("nope")
	require.Error(t, err)

	var unknown *UnknownProviderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Provider)
	assert.Equal(t, []string{"amadeus", "kayak"}, unknown.Available)
	assert.True(t, IsTerminal(err), "unknown provider is a configuration error, never retried")
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		registry.Register(name, func() Provider { return nullProvider{} })
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, registry.Names())
}

func TestRegistryRegisterReplaces(t *testing.T) {
	registry := NewRegistry()
	registry.Register("kayak", func() Provider { return nullProvider{name: "old"} })
	registry.Register("kayak", func() Provider { return nullProvider{name: "new"} })

	provider, err := registry.Get("kayak")
	require.NoError(t, err)
	assert.Equal(t, "new", provider.Name())
}

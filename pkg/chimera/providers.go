package chimera

import (
	"fmt"
	"sort"
	"sync"

	"github.com/harunnryd/chimera/pkg/llm"
	"github.com/harunnryd/chimera/pkg/providers/mock"
	"github.com/harunnryd/chimera/pkg/providers/openai"
)

// ClientFactory builds an LLM client from the loaded configuration.
type ClientFactory func(cfg *Config) (llm.Client, error)

// ProviderRegistry maps provider names to client factories so new backends
// can be plugged in without touching the engine.
type ProviderRegistry struct {
	mu        sync.RWMutex
	factories map[string]ClientFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{factories: make(map[string]ClientFactory)}
}

// DefaultProviders returns a registry with the built-in backends.
func DefaultProviders() *ProviderRegistry {
	r := NewProviderRegistry()
	r.Register("openai", func(cfg *Config) (llm.Client, error) {
		adapter := openai.NewAdapter(cfg.LLM.Model, cfg.LLM.BaseURL)
		if cfg.LLM.Temperature > 0 {
			adapter.Temperature = cfg.LLM.Temperature
		}
		return adapter, nil
	})
	r.Register("mock", func(*Config) (llm.Client, error) {
		return mock.NewLLMClient(), nil
	})
	return r
}

func (r *ProviderRegistry) Register(name string, factory ClientFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Build constructs the client named by cfg.LLM.Provider.
func (r *ProviderRegistry) Build(cfg *Config) (llm.Client, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.LLM.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q, registered: %v", cfg.LLM.Provider, r.Names())
	}
	return factory(cfg)
}

func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

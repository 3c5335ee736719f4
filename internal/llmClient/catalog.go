package llmclient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ClientFactory builds a client for the given model.
type ClientFactory func(model string) (ProviderClient, error)

// ProviderRegistration describes one selectable provider family.
type ProviderRegistration struct {
	Provider     string
	DefaultModel string
	Factory      ClientFactory
}

// Registry maps provider names to factories.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]ProviderRegistration
}

// NewRegistry returns a registry with the built-in providers registered.
func NewRegistry() *Registry {
	r := &Registry{specs: map[string]ProviderRegistration{}}
	for _, spec := range builtinProviders() {
		_ = r.Register(spec)
	}
	return r
}

func builtinProviders() []ProviderRegistration {
	return []ProviderRegistration{
		{
			Provider:     "anthropic",
			DefaultModel: "claude-3-5-sonnet-20241022",
			Factory: func(model string) (ProviderClient, error) {
				return NewAnthropicClient(AnthropicConfig{Model: model}), nil
			},
		},
		{
			Provider:     "openai",
			DefaultModel: "gpt-4-turbo-preview",
			Factory: func(model string) (ProviderClient, error) {
				return NewOpenAIClient(OpenAIConfig{Model: model}), nil
			},
		},
		{
			Provider:     "groq",
			DefaultModel: "llama-3.3-70b-versatile",
			Factory: func(model string) (ProviderClient, error) {
				return NewGroqClient(model), nil
			},
		},
		{
			Provider:     "gemini",
			DefaultModel: "gemini-2.5-flash",
			Factory: func(model string) (ProviderClient, error) {
				return NewGeminiClient("", model), nil
			},
		},
	}
}

func (r *Registry) Register(spec ProviderRegistration) error {
	name := strings.ToLower(strings.TrimSpace(spec.Provider))
	if name == "" {
		return fmt.Errorf("llmclient: provider name is empty")
	}
	if spec.Factory == nil {
		return fmt.Errorf("llmclient: provider %q has no factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	spec.Provider = name
	r.specs[name] = spec
	return nil
}

// Providers lists registered provider names in sorted order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds a client for provider; an empty model selects the provider default.
func (r *Registry) New(provider, model string) (ProviderClient, error) {
	name := strings.ToLower(strings.TrimSpace(provider))
	r.mu.RLock()
	spec, ok := r.specs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{Provider: name, Msg: "unknown provider"}
	}
	if strings.TrimSpace(model) == "" {
		model = spec.DefaultModel
	}
	return spec.Factory(model)
}

// DefaultModel returns the registered default model for provider.
func (r *Registry) DefaultModel(provider string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.specs[strings.ToLower(strings.TrimSpace(provider))].DefaultModel
}

// Lazy defers New until the first Complete call.
func (r *Registry) Lazy(provider, model string, wrap func(ProviderClient) ProviderClient) *Lazy {
	return NewLazy(provider, func(context.Context) (ProviderClient, error) {
		c, err := r.New(provider, model)
		if err != nil {
			return nil, err
		}
		if wrap != nil {
			c = wrap(c)
		}
		return c, nil
	})
}

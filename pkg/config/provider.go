package config

import (
	"fmt"
	"sync"
)

// ProviderKind distinguishes the wire dialect used to reach a provider.
type ProviderKind string

const (
	ProviderKindOpenAICompatible ProviderKind = "openai_compatible" // OpenAI, Mistral, Together, local BGE servers
	ProviderKindAnthropic        ProviderKind = "anthropic"
	ProviderKindLocal            ProviderKind = "local" // deterministic, free, in-process embedder
)

// ProviderConfig describes how to reach one named provider (spec §4.A).
// Credentials are read from the environment at construction time, never
// stored in the registry itself.
type ProviderConfig struct {
	Name       string       `yaml:"name"`
	Kind       ProviderKind `yaml:"kind"`
	BaseURL    string       `yaml:"base_url,omitempty"`
	APIKeyEnv  string       `yaml:"api_key_env,omitempty"`
	// LocalEmbeddingDim is only meaningful for ProviderKindLocal: the fixed
	// dimension of the deterministic embedder (spec §4.A, "Local embeddings").
	LocalEmbeddingDim int `yaml:"local_embedding_dim,omitempty"`
}

// ProviderRegistry stores provider configurations in memory with thread-safe
// access, modeled on the teacher's LLMProviderRegistry.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]*ProviderConfig
}

// NewProviderRegistry builds a registry from a defensive copy of providers.
func NewProviderRegistry(providers map[string]*ProviderConfig) *ProviderRegistry {
	copied := make(map[string]*ProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &ProviderRegistry{providers: copied}
}

// Get retrieves a provider configuration by name.
func (r *ProviderRegistry) Get(name string) (*ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// GetAll returns a defensive copy of every registered provider.
func (r *ProviderRegistry) GetAll() map[string]*ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]*ProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has reports whether a provider is registered.
func (r *ProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// DefaultProviderRegistry returns the built-in set of providers spec §4.A
// names explicitly: OpenAI, Anthropic, Mistral, Together, HuggingFace, and a
// free local deterministic embedder. Mistral and Together speak the
// OpenAI-compatible wire format against their own base URLs.
func DefaultProviderRegistry() *ProviderRegistry {
	return NewProviderRegistry(map[string]*ProviderConfig{
		"openai": {
			Name:      "openai",
			Kind:      ProviderKindOpenAICompatible,
			BaseURL:   "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		"anthropic": {
			Name:      "anthropic",
			Kind:      ProviderKindAnthropic,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		"mistral": {
			Name:      "mistral",
			Kind:      ProviderKindOpenAICompatible,
			BaseURL:   "https://api.mistral.ai/v1",
			APIKeyEnv: "MISTRAL_API_KEY",
		},
		"together": {
			Name:      "together",
			Kind:      ProviderKindOpenAICompatible,
			BaseURL:   "https://api.together.xyz/v1",
			APIKeyEnv: "TOGETHER_API_KEY",
		},
		"huggingface": {
			Name:      "huggingface",
			Kind:      ProviderKindOpenAICompatible,
			BaseURL:   "https://api-inference.huggingface.co/v1",
			APIKeyEnv: "HUGGINGFACE_API_KEY",
		},
		"local-bge": {
			Name:              "local-bge",
			Kind:              ProviderKindLocal,
			LocalEmbeddingDim: 384,
		},
	})
}

package provider

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/config"
)

// Registry is the uniform front the rest of the system calls through: it
// resolves a provider name to its lazily-constructed Capability, applies a
// per-provider rate limiter ahead of every call, and exposes the pricing
// table for cost accounting. Constructed once at startup and passed
// explicitly rather than held as a package-level singleton.
type Registry struct {
	cfg     *config.ProviderRegistry
	pricing *config.PricingTable

	mu        sync.Mutex
	instances map[string]Capability
	limiters  map[string]*rate.Limiter
}

// NewRegistry builds a Registry over the given static provider and pricing
// configuration. Concrete clients are constructed on first use.
func NewRegistry(cfg *config.ProviderRegistry, pricing *config.PricingTable) *Registry {
	return &Registry{
		cfg:       cfg,
		pricing:   pricing,
		instances: make(map[string]Capability),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Embedder resolves the named provider's embedding capability, constructing
// it lazily. A provider missing its credential, or lacking the capability
// entirely, fails with apperrors.KindProviderAuth / KindInputInvalid
// respectively.
func (r *Registry) Embedder(name string) (Embedder, error) {
	cap, err := r.capability(name)
	if err != nil {
		return nil, err
	}
	if cap.Embedder == nil {
		return nil, apperrors.New(apperrors.KindInputInvalid, "provider %q does not support embedding", name)
	}
	return rateLimitedEmbedder{inner: cap.Embedder, limiter: r.limiterFor(name)}, nil
}

// Generator resolves the named provider's generation capability.
func (r *Registry) Generator(name string) (Generator, error) {
	cap, err := r.capability(name)
	if err != nil {
		return nil, err
	}
	if cap.Generator == nil {
		return nil, apperrors.New(apperrors.KindInputInvalid, "provider %q does not support generation", name)
	}
	return rateLimitedGenerator{inner: cap.Generator, limiter: r.limiterFor(name)}, nil
}

// PricePer1kPrompt returns the prompt-token price for provider/model.
func (r *Registry) PricePer1kPrompt(provider, model string) float64 {
	return r.pricing.PricePer1kPrompt(provider, model)
}

// PricePer1kCompletion returns the completion-token price for provider/model.
func (r *Registry) PricePer1kCompletion(provider, model string) float64 {
	return r.pricing.PricePer1kCompletion(provider, model)
}

func (r *Registry) capability(name string) (Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap, ok := r.instances[name]; ok {
		return cap, nil
	}

	pc, err := r.cfg.Get(name)
	if err != nil {
		return Capability{}, apperrors.Wrap(apperrors.KindInputInvalid, err, "unknown provider %q", name)
	}

	cap, err := buildCapability(pc)
	if err != nil {
		return Capability{}, err
	}
	r.instances[name] = cap
	return cap, nil
}

func (r *Registry) limiterFor(name string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[name]; ok {
		return l
	}
	// 10 requests/sec steady state with a burst of 20: generous enough not
	// to throttle a single evaluation's worker pool under normal operation,
	// while still bounding runaway concurrent fan-out per provider.
	l := rate.NewLimiter(rate.Limit(10), 20)
	r.limiters[name] = l
	return l
}

func buildCapability(pc *config.ProviderConfig) (Capability, error) {
	switch pc.Kind {
	case config.ProviderKindOpenAICompatible:
		client, err := newOpenAICompatibleClient(pc)
		if err != nil {
			return Capability{}, err
		}
		return Capability{Embedder: client, Generator: client}, nil
	case config.ProviderKindAnthropic:
		client, err := newAnthropicClient(pc)
		if err != nil {
			return Capability{}, err
		}
		return Capability{Generator: client}, nil
	case config.ProviderKindLocal:
		return Capability{Embedder: newLocalEmbedder(pc)}, nil
	default:
		return Capability{}, apperrors.New(apperrors.KindInternal, "unrecognized provider kind %q for %q", pc.Kind, pc.Name)
	}
}

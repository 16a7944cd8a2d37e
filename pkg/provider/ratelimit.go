package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedEmbedder blocks on the provider's token bucket before
// delegating, so concurrent callers across the worker pool throttle
// themselves instead of tripping the upstream API's own rate limiter.
type rateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

func (e rateLimitedEmbedder) Embed(ctx context.Context, model string, texts []string) (EmbedResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return EmbedResult{}, ctx.Err()
	}
	return e.inner.Embed(ctx, model, texts)
}

type rateLimitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

func (g rateLimitedGenerator) Generate(ctx context.Context, model string, prompt string, temperature float64, maxTokens int) (GenerateResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return GenerateResult{}, ctx.Err()
	}
	return g.inner.Generate(ctx, model, prompt, temperature, maxTokens)
}

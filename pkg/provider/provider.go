// Package provider gives a uniform front over third-party LLM and embedding
// APIs: a capability interface per concern (Embedder, Generator), a factory
// keyed by provider name, and shared retry/rate-limit/cost-accounting
// middleware wrapped around each concrete client.
package provider

import "context"

// EmbedResult is the outcome of one embedding call.
type EmbedResult struct {
	Vectors    [][]float32
	Dimension  int
	TokenCount int
}

// Embedder embeds a batch of texts with a single model.
type Embedder interface {
	Embed(ctx context.Context, model string, texts []string) (EmbedResult, error)
}

// GenerateResult is the outcome of one text-generation call.
type GenerateResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator produces a single completion from a prompt.
type Generator interface {
	Generate(ctx context.Context, model string, prompt string, temperature float64, maxTokens int) (GenerateResult, error)
}

// Capability bundles the operations a single named provider may implement.
// A provider need not implement both — local-bge implements only Embedder,
// for instance.
type Capability struct {
	Embedder  Embedder
	Generator Generator
}

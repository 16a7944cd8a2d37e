package provider

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/maxwell-labs/ragbench/pkg/config"
)

// localEmbedder is a deterministic, free, offline stand-in for a local
// sentence-embedding model (e.g. BGE-small). It never calls out to a
// network, so it has no rate limiter, no retries, and no failure modes
// beyond a context cancellation. Dimension is fixed per provider config so
// the Vector Index can validate it like any other embedding source.
type localEmbedder struct {
	dimension int
}

func newLocalEmbedder(pc *config.ProviderConfig) *localEmbedder {
	dim := pc.LocalEmbeddingDim
	if dim <= 0 {
		dim = 384
	}
	return &localEmbedder{dimension: dim}
}

// Embed produces a deterministic unit vector per text derived from a
// hash-based pseudo-random projection. It carries no semantic meaning; it
// exists so the system is fully exercisable offline, for tests and
// demonstrations, without an external embedding credential.
func (e *localEmbedder) Embed(ctx context.Context, model string, texts []string) (EmbedResult, error) {
	if err := ctx.Err(); err != nil {
		return EmbedResult{}, err
	}
	vectors := make([][]float32, len(texts))
	tokenCount := 0
	for i, text := range texts {
		vectors[i] = deterministicVector(text, e.dimension)
		tokenCount += approxTokenCount(text)
	}
	return EmbedResult{Vectors: vectors, Dimension: e.dimension, TokenCount: tokenCount}, nil
}

func deterministicVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	h := fnv.New64a()
	var sumSq float64
	for i := 0; i < dim; i++ {
		h.Reset()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		v := float32(int64(h.Sum64()%2000001)-1000000) / 1000000
		vec[i] = v
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func approxTokenCount(text string) int {
	return (len(text) + 3) / 4
}

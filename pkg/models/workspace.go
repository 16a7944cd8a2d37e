// Package models holds the domain entities shared across the catalog,
// ingestion, and evaluation packages (spec §3).
package models

import "time"

// Workspace is configuration for an ingestion corpus. Immutable after its
// first document is embedded, because changing embedding dimensions would
// invalidate the index (spec §3).
type Workspace struct {
	ID                 string
	Name               string
	EmbeddingProvider  string
	EmbeddingModel     string
	ChunkSizeTokens    int
	ChunkOverlapTokens int
	// EmbeddingDim is fixed the first time a document is embedded into this
	// workspace; zero until then.
	EmbeddingDim int
	CreatedAt    time.Time
}

// Locked reports whether the workspace's embedding configuration may no
// longer change (at least one document has been embedded into it).
func (w Workspace) Locked() bool {
	return w.EmbeddingDim > 0
}

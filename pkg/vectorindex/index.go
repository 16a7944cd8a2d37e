// Package vectorindex implements the workspace-scoped vector store of
// spec §4.C: upsert and cosine top-k query against pgvector, enforcing a
// single embedding dimension per workspace.
package vectorindex

import (
	"context"

	"github.com/google/uuid"
)

// Record is one chunk's vector plus its full text, stored alongside the
// embedding so retrieved_context can be reconstructed from Query results
// alone, without a second trip to the chunks table.
type Record struct {
	ChunkID     uuid.UUID
	DocumentID  uuid.UUID
	ChunkIndex  int
	Embedding   []float32
	TextExcerpt string
}

// Match is one result row from Query, ordered by descending similarity.
// TextExcerpt is the chunk's full text, not a truncated preview.
type Match struct {
	ChunkID     uuid.UUID
	DocumentID  uuid.UUID
	ChunkIndex  int
	Score       float64
	TextExcerpt string
}

// Index is the workspace-scoped vector store contract. Implementations
// must guarantee: all records in one Upsert call become visible to readers
// atomically or not at all, and Query results break score ties by
// ascending (document_id, chunk_index).
type Index interface {
	// Upsert inserts or replaces vectors for workspaceID. Fails with
	// apperrors.KindIndexSchemaConflict if any record's dimension differs
	// from the workspace's established dimension.
	Upsert(ctx context.Context, workspaceID uuid.UUID, records []Record) error

	// Query returns up to topK records for workspaceID ordered by
	// descending cosine similarity, omitting scores below
	// similarityThreshold (0 disables the filter).
	Query(ctx context.Context, workspaceID uuid.UUID, embedding []float32, topK int, similarityThreshold float64) ([]Match, error)

	// DeleteWorkspace removes every vector record owned by workspaceID.
	DeleteWorkspace(ctx context.Context, workspaceID uuid.UUID) error

	// DeleteDocument removes every vector record for one document within
	// a workspace, used when re-driving a failed ingestion.
	DeleteDocument(ctx context.Context, workspaceID, documentID uuid.UUID) error
}

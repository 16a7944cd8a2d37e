package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

// PGIndex is the pgvector-backed Index implementation: vector storage lives
// in the vector_records table alongside the relational catalog, and
// dimension state is tracked on workspaces.embedding_dim so the first
// upsert into a workspace fixes its dimension for every subsequent call.
type PGIndex struct {
	pool *pgxpool.Pool
}

// NewPGIndex wraps pool as an Index.
func NewPGIndex(pool *pgxpool.Pool) *PGIndex {
	return &PGIndex{pool: pool}
}

func (idx *PGIndex) Upsert(ctx context.Context, workspaceID uuid.UUID, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	dim := len(records[0].Embedding)
	for _, r := range records {
		if len(r.Embedding) != dim {
			return apperrors.New(apperrors.KindIndexSchemaConflict, "mixed embedding dimensions within one upsert call (%d vs %d)", dim, len(r.Embedding))
		}
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "beginning upsert transaction")
	}
	defer tx.Rollback(ctx)

	var existingDim int
	err = tx.QueryRow(ctx, `SELECT embedding_dim FROM workspaces WHERE id = $1 FOR UPDATE`, workspaceID).Scan(&existingDim)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "loading workspace dimension")
	}
	if existingDim == 0 {
		if _, err := tx.Exec(ctx, `UPDATE workspaces SET embedding_dim = $1 WHERE id = $2`, dim, workspaceID); err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "fixing workspace dimension")
		}
	} else if existingDim != dim {
		return apperrors.New(apperrors.KindIndexSchemaConflict, "workspace embedding dimension is %d, upsert supplied %d", existingDim, dim)
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO vector_records (chunk_id, workspace_id, document_id, chunk_index, embedding, text_excerpt)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (chunk_id) DO UPDATE SET
				embedding = EXCLUDED.embedding,
				text_excerpt = EXCLUDED.text_excerpt,
				chunk_index = EXCLUDED.chunk_index`,
			r.ChunkID, workspaceID, r.DocumentID, r.ChunkIndex, pgvector.NewVector(r.Embedding), r.TextExcerpt)
	}
	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return apperrors.Wrap(apperrors.KindInternal, err, "upserting vector record")
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "closing upsert batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "committing upsert transaction")
	}
	return nil
}

func (idx *PGIndex) Query(ctx context.Context, workspaceID uuid.UUID, embedding []float32, topK int, similarityThreshold float64) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	// pgvector's <=> operator is cosine distance; similarity = 1 - distance.
	// Ties on similarity break by (document_id, chunk_index) ascending, per
	// spec §4.C, via the secondary ORDER BY keys. The threshold is applied
	// in the WHERE clause, before LIMIT, so a low-scoring row within the
	// top-k distance ranking never displaces a qualifying one. A threshold
	// of 0 or below disables the filter entirely (pkg/vectorindex/index.go
	// "0 disables the filter") rather than excluding the negative-cosine
	// half of the score range.
	const q = `
		SELECT chunk_id, document_id, chunk_index, text_excerpt, score FROM (
			SELECT chunk_id, document_id, chunk_index, text_excerpt, 1 - (embedding <=> $1) AS score
			FROM vector_records
			WHERE workspace_id = $2
		) scored
		WHERE $4 <= 0 OR score >= $4
		ORDER BY score DESC, document_id ASC, chunk_index ASC
		LIMIT $3`

	rows, err := idx.pool.Query(ctx, q, pgvector.NewVector(embedding), workspaceID, topK, similarityThreshold)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "querying vector index")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.ChunkIndex, &m.TextExcerpt, &m.Score); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "scanning vector match")
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "iterating vector matches")
	}
	return matches, nil
}

func (idx *PGIndex) DeleteWorkspace(ctx context.Context, workspaceID uuid.UUID) error {
	if _, err := idx.pool.Exec(ctx, `DELETE FROM vector_records WHERE workspace_id = $1`, workspaceID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "deleting workspace vectors")
	}
	return nil
}

func (idx *PGIndex) DeleteDocument(ctx context.Context, workspaceID, documentID uuid.UUID) error {
	if _, err := idx.pool.Exec(ctx, `DELETE FROM vector_records WHERE workspace_id = $1 AND document_id = $2`, workspaceID, documentID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, fmt.Sprintf("deleting document %s vectors", documentID))
	}
	return nil
}

var _ Index = (*PGIndex)(nil)

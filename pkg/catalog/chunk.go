package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

// ChunkService persists the immutable text spans produced by the chunker
// (spec §3, §4.D stage 3).
type ChunkService struct {
	pool *pgxpool.Pool
}

// NewChunkService wraps pool as a ChunkService.
func NewChunkService(pool *pgxpool.Pool) *ChunkService {
	return &ChunkService{pool: pool}
}

// ChunkInput is one chunk awaiting a generated id, supplied by the chunker.
type ChunkInput struct {
	ChunkIndex int
	Text       string
	TokenCount int
}

// InsertAll writes every chunk for a document in one batch and returns them
// with their generated ids, in chunk_index order.
func (s *ChunkService) InsertAll(ctx context.Context, documentID uuid.UUID, inputs []ChunkInput) ([]models.Chunk, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.KindExtractEmpty, "no chunks to persist for document %s", documentID)
	}

	batch := &pgx.Batch{}
	for _, c := range inputs {
		batch.Queue(`
			INSERT INTO chunks (document_id, chunk_index, text, token_count)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			documentID, c.ChunkIndex, c.Text, c.TokenCount)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	out := make([]models.Chunk, len(inputs))
	for i, c := range inputs {
		var id uuid.UUID
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "inserting chunk %d", c.ChunkIndex)
		}
		out[i] = models.Chunk{
			ID:         id.String(),
			DocumentID: documentID.String(),
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			TokenCount: c.TokenCount,
		}
	}
	return out, nil
}

// DeleteByDocument removes every chunk belonging to documentID, used before
// a redrive wipes and replaces a document's ingestion output.
func (s *ChunkService) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "deleting chunks for document %s", documentID)
	}
	return nil
}

// ListByDocument returns every chunk for a document ordered by chunk_index.
func (s *ChunkService) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, chunk_index, text, token_count FROM chunks
		WHERE document_id = $1 ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "listing chunks")
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var id uuid.UUID
		if err := rows.Scan(&id, &c.ChunkIndex, &c.Text, &c.TokenCount); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "scanning chunk")
		}
		c.ID = id.String()
		c.DocumentID = documentID.String()
		out = append(out, c)
	}
	return out, rows.Err()
}

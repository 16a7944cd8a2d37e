package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/chunker"
	"github.com/maxwell-labs/ragbench/pkg/models"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/secretmask"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

const embedTimeout = 60 * time.Second

// Pipeline drives a Document through extract, chunk, embed, and upsert
// (spec §4.D). One Pipeline is shared across all ingestion runs; it holds
// no per-document state between calls.
type Pipeline struct {
	documents  *catalog.DocumentService
	chunks     *catalog.ChunkService
	index      vectorindex.Index
	registry   *provider.Registry
	embedBatch int
}

// NewPipeline wires a Pipeline over its collaborators. embedBatchSize
// bounds the number of chunks per embed provider call (spec §4.D stage 3).
func NewPipeline(documents *catalog.DocumentService, chunks *catalog.ChunkService, index vectorindex.Index, registry *provider.Registry, embedBatchSize int) *Pipeline {
	if embedBatchSize <= 0 {
		embedBatchSize = 64
	}
	return &Pipeline{
		documents:  documents,
		chunks:     chunks,
		index:      index,
		registry:   registry,
		embedBatch: embedBatchSize,
	}
}

// WorkspaceSettings are the embedding and chunking parameters a workspace
// fixes for every document ingested into it.
type WorkspaceSettings struct {
	WorkspaceID        uuid.UUID
	EmbeddingProvider  string
	EmbeddingModel     string
	ChunkSizeTokens    int
	ChunkOverlapTokens int
}

// Run executes one ingestion attempt for documentID, taking it from
// pending or failed through processing to completed or failed. Errors from
// any stage are captured into the Document's error_message and never
// propagated to the caller, per spec §7: background tasks never surface
// unhandled errors to the trigger.
func (p *Pipeline) Run(ctx context.Context, ws WorkspaceSettings, documentID uuid.UUID, sourceBytesRef, contentType string) {
	log := slog.With("document_id", documentID, "workspace_id", ws.WorkspaceID)

	if err := p.documents.MarkProcessing(ctx, documentID); err != nil {
		log.Warn("document not eligible for processing", "error", err)
		return
	}

	// A redrive may be wiping a prior partial attempt; clear it before
	// writing anything new (spec §4.D: "re-driving wipes any partial
	// Chunks and VectorRecords for that document first").
	if err := p.chunks.DeleteByDocument(ctx, documentID); err != nil {
		p.fail(ctx, log, documentID, err)
		return
	}
	if err := p.index.DeleteDocument(ctx, ws.WorkspaceID, documentID); err != nil {
		p.fail(ctx, log, documentID, err)
		return
	}

	text, err := extract(contentType, sourceBytesRef)
	if err != nil {
		p.fail(ctx, log, documentID, err)
		return
	}

	splits, err := chunker.Split(text, ws.ChunkSizeTokens, ws.ChunkOverlapTokens)
	if err != nil {
		p.fail(ctx, log, documentID, err)
		return
	}

	chunkInputs := make([]catalog.ChunkInput, len(splits))
	for i, c := range splits {
		chunkInputs[i] = catalog.ChunkInput{ChunkIndex: c.ChunkIndex, Text: c.Text, TokenCount: c.TokenCount}
	}
	persisted, err := p.chunks.InsertAll(ctx, documentID, chunkInputs)
	if err != nil {
		p.fail(ctx, log, documentID, err)
		return
	}

	if err := p.embedAndUpsert(ctx, ws, documentID, persisted); err != nil {
		p.fail(ctx, log, documentID, err)
		return
	}

	if err := p.documents.MarkCompleted(ctx, documentID, len(persisted)); err != nil {
		log.Error("failed to finalize completed document", "error", err)
		return
	}
	log.Info("document ingestion completed", "total_chunks", len(persisted))
}

// embedAndUpsert embeds chunks in bounded batches, sequentially per
// document to preserve ordering (spec §5), and upserts each batch's
// vectors before moving to the next.
func (p *Pipeline) embedAndUpsert(ctx context.Context, ws WorkspaceSettings, documentID uuid.UUID, chunks []models.Chunk) error {
	embedder, err := p.registry.Embedder(ws.EmbeddingProvider)
	if err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += p.embedBatch {
		end := start + p.embedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
		result, err := embedder.Embed(embedCtx, ws.EmbeddingModel, texts)
		cancel()
		if err != nil {
			return err
		}
		if len(result.Vectors) != len(batch) {
			return apperrors.New(apperrors.KindProviderBadRequest, "embedding provider returned %d vectors for %d inputs", len(result.Vectors), len(batch))
		}

		records := make([]vectorindex.Record, len(batch))
		for i, c := range batch {
			chunkID, err := uuid.Parse(c.ID)
			if err != nil {
				return apperrors.Wrap(apperrors.KindInternal, err, "parsing chunk id")
			}
			records[i] = vectorindex.Record{
				ChunkID:     chunkID,
				DocumentID:  documentID,
				ChunkIndex:  c.ChunkIndex,
				Embedding:   result.Vectors[i],
				TextExcerpt: c.Text,
			}
		}
		if err := p.index.Upsert(ctx, ws.WorkspaceID, records); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, log *slog.Logger, documentID uuid.UUID, cause error) {
	if err := p.documents.MarkFailed(ctx, documentID, secretmask.Mask(cause.Error())); err != nil {
		log.Error("failed to record document failure", "cause", cause, "error", err)
		return
	}
	log.Warn("document ingestion failed", "error", cause)
}

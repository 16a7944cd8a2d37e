package ingestion

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Dispatcher bounds the number of documents ingesting concurrently across
// the whole process, independent of which workspace they belong to (spec
// §5: "different documents may ingest concurrently"). Submission is
// fire-and-forget: the HTTP handler that triggers ingestion does not wait
// for the pipeline to finish.
type Dispatcher struct {
	pipeline *Pipeline
	sem      *semaphore.Weighted
}

// NewDispatcher bounds concurrent documents to maxConcurrent.
func NewDispatcher(pipeline *Pipeline, maxConcurrent int64) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Dispatcher{pipeline: pipeline, sem: semaphore.NewWeighted(maxConcurrent)}
}

// Submit starts ingestion for documentID in the background. If the process
// is already at its concurrency bound, the document waits in a goroutine
// rather than blocking the caller.
func (d *Dispatcher) Submit(ws WorkspaceSettings, documentID uuid.UUID, sourceBytesRef, contentType string) {
	go func() {
		ctx := context.Background()
		if err := d.sem.Acquire(ctx, 1); err != nil {
			slog.Error("dispatcher failed to acquire ingestion slot", "document_id", documentID, "error", err)
			return
		}
		defer d.sem.Release(1)
		d.pipeline.Run(ctx, ws, documentID, sourceBytesRef, contentType)
	}()
}

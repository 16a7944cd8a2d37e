package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

// DocumentService manages document lifecycle within a workspace (spec §3,
// §4.D, §6 /workspace/{id}/upload and /rag/{document_id}/process).
type DocumentService struct {
	pool *pgxpool.Pool
}

// NewDocumentService wraps pool as a DocumentService.
func NewDocumentService(pool *pgxpool.Pool) *DocumentService {
	return &DocumentService{pool: pool}
}

// CreateDocument registers a newly uploaded document as pending.
func (s *DocumentService) CreateDocument(ctx context.Context, workspaceID uuid.UUID, sourceBytesRef, contentType string) (*models.Document, error) {
	return s.CreateDocumentWithID(ctx, uuid.New(), workspaceID, sourceBytesRef, contentType)
}

// NewDocumentID reserves a document id the caller can use to compute a
// storage path before the row exists, so CreateDocumentWithID's
// source_bytes_ref can point at where the upload was actually written.
func (s *DocumentService) NewDocumentID() uuid.UUID {
	return uuid.New()
}

// CreateDocumentWithID registers a newly uploaded document as pending under
// a caller-chosen id, letting the caller compute its storage path ahead of
// the insert (spec §6 upload: content is written before the row is visible
// to readers).
func (s *DocumentService) CreateDocumentWithID(ctx context.Context, id uuid.UUID, workspaceID uuid.UUID, sourceBytesRef, contentType string) (*models.Document, error) {
	if sourceBytesRef == "" {
		return nil, validationError("source_bytes_ref: required")
	}
	if contentType == "" {
		return nil, validationError("content_type: required")
	}

	var doc models.Document
	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (id, workspace_id, source_bytes_ref, content_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at, updated_at`,
		id, workspaceID, sourceBytesRef, contentType,
	).Scan(&id, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "creating document")
	}

	doc.ID = id.String()
	doc.WorkspaceID = workspaceID.String()
	doc.SourceBytesRef = sourceBytesRef
	doc.ContentType = contentType
	return &doc, nil
}

// GetDocument loads a document by id, scoped to workspaceID.
func (s *DocumentService) GetDocument(ctx context.Context, workspaceID, documentID uuid.UUID) (*models.Document, error) {
	var doc models.Document
	var id, wsID uuid.UUID
	err := s.pool.QueryRow(ctx, `
		SELECT id, workspace_id, source_bytes_ref, content_type, status, error_message, total_chunks, created_at, updated_at
		FROM documents WHERE id = $1 AND workspace_id = $2`, documentID, workspaceID,
	).Scan(&id, &wsID, &doc.SourceBytesRef, &doc.ContentType, &doc.Status, &doc.ErrorMessage, &doc.TotalChunks, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindInputInvalid, "document %s not found in workspace %s", documentID, workspaceID)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "loading document")
	}
	doc.ID = id.String()
	doc.WorkspaceID = wsID.String()
	return &doc, nil
}

// ListDocuments returns every document in a workspace, newest first.
func (s *DocumentService) ListDocuments(ctx context.Context, workspaceID uuid.UUID) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, workspace_id, source_bytes_ref, content_type, status, error_message, total_chunks, created_at, updated_at
		FROM documents WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "listing documents")
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var doc models.Document
		var id, wsID uuid.UUID
		if err := rows.Scan(&id, &wsID, &doc.SourceBytesRef, &doc.ContentType, &doc.Status, &doc.ErrorMessage, &doc.TotalChunks, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "scanning document")
		}
		doc.ID = id.String()
		doc.WorkspaceID = wsID.String()
		out = append(out, doc)
	}
	return out, rows.Err()
}

// MarkProcessing transitions a pending or failed document to processing,
// the compare-and-set entry point for a (re)drive (spec §4.D).
func (s *DocumentService) MarkProcessing(ctx context.Context, documentID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET status = $1, error_message = '', updated_at = now()
		WHERE id = $2 AND status IN ($3, $4)`,
		models.DocumentStatusProcessing, documentID, models.DocumentStatusPending, models.DocumentStatusFailed)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marking document processing")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindStateConflict, "document %s is not pending or failed", documentID)
	}
	return nil
}

// MarkCompleted transitions a processing document to completed, recording
// its final chunk count.
func (s *DocumentService) MarkCompleted(ctx context.Context, documentID uuid.UUID, totalChunks int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET status = $1, total_chunks = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		models.DocumentStatusCompleted, totalChunks, documentID, models.DocumentStatusProcessing)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marking document completed")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindStateConflict, "document %s is not processing", documentID)
	}
	return nil
}

// MarkFailed transitions a processing document to failed with the given
// error message. Idempotent under concurrent failure reports: only the
// first report that observes the processing state wins the row.
func (s *DocumentService) MarkFailed(ctx context.Context, documentID uuid.UUID, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET status = $1, error_message = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		models.DocumentStatusFailed, errMsg, documentID, models.DocumentStatusProcessing)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marking document failed")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindStateConflict, "document %s is not processing", documentID)
	}
	return nil
}

// Redrive validates that a document is eligible for re-ingestion without
// mutating it; the caller drives the actual status transition through
// MarkProcessing and then clears prior chunks and vectors.
func (s *DocumentService) Redrive(ctx context.Context, workspaceID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.GetDocument(ctx, workspaceID, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.CanRedrive() {
		return nil, apperrors.New(apperrors.KindStateConflict, "document %s in status %q cannot be redriven", documentID, doc.Status)
	}
	return doc, nil
}

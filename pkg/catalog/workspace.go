package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

const writeTimeout = 10 * time.Second

// WorkspaceService manages workspace creation and lookup (spec §3, §6
// /workspace/create).
type WorkspaceService struct {
	pool *pgxpool.Pool
}

// NewWorkspaceService wraps pool as a WorkspaceService.
func NewWorkspaceService(pool *pgxpool.Pool) *WorkspaceService {
	return &WorkspaceService{pool: pool}
}

// CreateWorkspaceRequest is the input to CreateWorkspace.
type CreateWorkspaceRequest struct {
	OwnerID            uuid.UUID
	Name               string
	EmbeddingProvider  string
	EmbeddingModel     string
	ChunkSizeTokens    int
	ChunkOverlapTokens int
}

// CreateWorkspace inserts a new workspace with embedding_dim unset, locked
// open for configuration until its first document is embedded.
func (s *WorkspaceService) CreateWorkspace(httpCtx context.Context, req CreateWorkspaceRequest) (*models.Workspace, error) {
	if req.Name == "" {
		return nil, validationError("name: required")
	}
	if req.EmbeddingProvider == "" {
		return nil, validationError("embedding_provider: required")
	}
	if req.EmbeddingModel == "" {
		return nil, validationError("embedding_model: required")
	}
	if req.ChunkSizeTokens <= 0 {
		return nil, validationError("chunk_size_tokens: must be positive")
	}
	if req.ChunkOverlapTokens < 0 || req.ChunkOverlapTokens >= req.ChunkSizeTokens {
		return nil, validationError("chunk_overlap_tokens: must be non-negative and less than chunk_size_tokens")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var ws models.Workspace
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO workspaces (owner_id, name, embedding_provider, embedding_model, chunk_size_tokens, chunk_overlap_tokens)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		req.OwnerID, req.Name, req.EmbeddingProvider, req.EmbeddingModel, req.ChunkSizeTokens, req.ChunkOverlapTokens,
	).Scan(&id, &ws.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.New(apperrors.KindStateConflict, "workspace %q already exists for this owner", req.Name)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "creating workspace")
	}

	ws.ID = id.String()
	ws.Name = req.Name
	ws.EmbeddingProvider = req.EmbeddingProvider
	ws.EmbeddingModel = req.EmbeddingModel
	ws.ChunkSizeTokens = req.ChunkSizeTokens
	ws.ChunkOverlapTokens = req.ChunkOverlapTokens
	return &ws, nil
}

// GetWorkspace loads a workspace by id.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	var ws models.Workspace
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, embedding_provider, embedding_model, chunk_size_tokens, chunk_overlap_tokens, embedding_dim, created_at
		FROM workspaces WHERE id = $1`, workspaceID,
	).Scan(&id, &ws.Name, &ws.EmbeddingProvider, &ws.EmbeddingModel, &ws.ChunkSizeTokens, &ws.ChunkOverlapTokens, &ws.EmbeddingDim, &ws.CreatedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInputInvalid, err, "workspace %s not found", workspaceID)
	}
	ws.ID = id.String()
	return &ws, nil
}

// ListWorkspaces returns every workspace owned by ownerID, newest first.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context, ownerID uuid.UUID) ([]models.Workspace, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, embedding_provider, embedding_model, chunk_size_tokens, chunk_overlap_tokens, embedding_dim, created_at
		FROM workspaces WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "listing workspaces")
	}
	defer rows.Close()

	var out []models.Workspace
	for rows.Next() {
		var ws models.Workspace
		var id uuid.UUID
		if err := rows.Scan(&id, &ws.Name, &ws.EmbeddingProvider, &ws.EmbeddingModel, &ws.ChunkSizeTokens, &ws.ChunkOverlapTokens, &ws.EmbeddingDim, &ws.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "scanning workspace")
		}
		ws.ID = id.String()
		out = append(out, ws)
	}
	return out, rows.Err()
}

package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/ingestion"
)

// processDocumentHandler handles POST /rag/{document_id}/process, the
// redrive entry point for a pending or failed document (spec §4.D).
func (s *Server) processDocumentHandler(c *echo.Context) error {
	documentID, err := uuid.Parse(c.Param("document_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "document_id: must be a uuid")
	}

	workspaceIDParam := c.QueryParam("workspace_id")
	workspaceID, err := uuid.Parse(workspaceIDParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace_id: required query parameter, must be a uuid")
	}

	doc, err := s.documents.Redrive(c.Request().Context(), workspaceID, documentID)
	if err != nil {
		return mapAppError(err)
	}

	ws, err := s.workspaces.GetWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return mapAppError(err)
	}

	s.dispatcher.Submit(ingestion.WorkspaceSettings{
		WorkspaceID:        workspaceID,
		EmbeddingProvider:  ws.EmbeddingProvider,
		EmbeddingModel:     ws.EmbeddingModel,
		ChunkSizeTokens:    ws.ChunkSizeTokens,
		ChunkOverlapTokens: ws.ChunkOverlapTokens,
	}, documentID, doc.SourceBytesRef, doc.ContentType)

	return c.JSON(http.StatusAccepted, &DocumentResponse{
		ID:          doc.ID,
		WorkspaceID: doc.WorkspaceID,
		Status:      string(doc.Status),
		ContentType: doc.ContentType,
	})
}

// ragQueryHandler handles POST /rag/query: embeds the query text with the
// workspace's embedding provider/model and returns the top-k nearest
// chunks (spec §4.C, §6).
func (s *Server) ragQueryHandler(c *echo.Context) error {
	var req RAGQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query: required")
	}
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace_id: must be a uuid")
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	ws, err := s.workspaces.GetWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return mapAppError(err)
	}

	embedder, err := s.registry.Embedder(ws.EmbeddingProvider)
	if err != nil {
		return mapAppError(err)
	}

	result, err := embedder.Embed(c.Request().Context(), ws.EmbeddingModel, []string{req.Query})
	if err != nil {
		return mapAppError(err)
	}
	if len(result.Vectors) != 1 {
		return mapAppError(apperrors.New(apperrors.KindProviderBadRequest, "embedding provider returned %d vectors for 1 input", len(result.Vectors)))
	}

	matches, err := s.index.Query(c.Request().Context(), workspaceID, result.Vectors[0], topK, 0)
	if err != nil {
		return mapAppError(err)
	}

	resp := &RAGQueryResponse{Matches: make([]RAGMatchResponse, len(matches))}
	for i, m := range matches {
		resp.Matches[i] = RAGMatchResponse{
			ChunkID: m.ChunkID.String(),
			Score:   m.Score,
			Text:    m.TextExcerpt,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

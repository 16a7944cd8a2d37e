package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/ingestion"
)

// createWorkspaceHandler handles POST /workspace/create.
func (s *Server) createWorkspaceHandler(c *echo.Context) error {
	var req CreateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := userFromContext(c.Request().Context())
	ownerID, err := uuid.Parse(user.ID)
	if err != nil {
		return mapAppError(apperrors.Wrap(apperrors.KindInternal, err, "parsing authenticated user id"))
	}

	if req.ChunkSize == 0 {
		req.ChunkSize = s.cfg.Workspace.ChunkSizeTokens
		if req.ChunkOverlap == 0 {
			req.ChunkOverlap = s.cfg.Workspace.ChunkOverlapTokens
		}
	}

	ws, err := s.workspaces.CreateWorkspace(c.Request().Context(), catalog.CreateWorkspaceRequest{
		OwnerID:            ownerID,
		Name:               req.Name,
		EmbeddingProvider:  req.EmbeddingProvider,
		EmbeddingModel:     req.EmbeddingModel,
		ChunkSizeTokens:    req.ChunkSize,
		ChunkOverlapTokens: req.ChunkOverlap,
	})
	if err != nil {
		return mapAppError(err)
	}

	return c.JSON(http.StatusCreated, &WorkspaceResponse{
		ID:                 ws.ID,
		Name:               ws.Name,
		EmbeddingProvider:  ws.EmbeddingProvider,
		EmbeddingModel:     ws.EmbeddingModel,
		ChunkSizeTokens:    ws.ChunkSizeTokens,
		ChunkOverlapTokens: ws.ChunkOverlapTokens,
		CreatedAt:          ws.CreatedAt,
	})
}

// uploadDocumentHandler handles POST /workspace/{id}/upload. The document
// body is taken as the multipart field "file"; ingestion starts
// immediately and runs in the background (spec §6).
func (s *Server) uploadDocumentHandler(c *echo.Context) error {
	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id: must be a uuid")
	}

	ws, err := s.workspaces.GetWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return mapAppError(err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file: required multipart field")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return mapAppError(apperrors.Wrap(apperrors.KindInternal, err, "opening uploaded file"))
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	docID := s.documents.NewDocumentID()
	path, err := s.storage.Save(ws.ID, docID.String(), f)
	if err != nil {
		return mapAppError(err)
	}

	doc, err := s.documents.CreateDocumentWithID(c.Request().Context(), docID, workspaceID, path, contentType)
	if err != nil {
		return mapAppError(err)
	}

	s.dispatcher.Submit(ingestion.WorkspaceSettings{
		WorkspaceID:        workspaceID,
		EmbeddingProvider:  ws.EmbeddingProvider,
		EmbeddingModel:     ws.EmbeddingModel,
		ChunkSizeTokens:    ws.ChunkSizeTokens,
		ChunkOverlapTokens: ws.ChunkOverlapTokens,
	}, docID, path, contentType)

	return c.JSON(http.StatusAccepted, &DocumentResponse{
		ID:          doc.ID,
		WorkspaceID: doc.WorkspaceID,
		Status:      string(doc.Status),
		ContentType: doc.ContentType,
	})
}

package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/evaluation"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

// createEvaluationHandler handles POST /evaluation/create. The run itself
// is dispatched in the background; the caller polls GET /evaluation/{id}
// for status (spec §4.E, §7: background tasks never block the trigger).
func (s *Server) createEvaluationHandler(c *echo.Context) error {
	var req CreateEvaluationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	datasetID, err := uuid.Parse(req.DatasetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "dataset_id: must be a uuid")
	}
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace_id: must be a uuid")
	}

	candidates := make([]models.CandidateModel, len(req.CandidateModels))
	for i, cm := range req.CandidateModels {
		candidates[i] = models.CandidateModel{Provider: cm.Provider, Model: cm.Model}
	}

	settings := models.EvaluationSettings{
		TopK:                s.cfg.Evaluation.TopK,
		Temperature:         s.cfg.Evaluation.Temperature,
		MaxTokens:           s.cfg.Evaluation.MaxTokens,
		SimilarityThreshold: s.cfg.Evaluation.SimilarityThreshold,
		WorkerPoolSize:      s.cfg.Queue.WorkerPoolSize,
	}
	if req.Settings != nil {
		if req.Settings.TopK > 0 {
			settings.TopK = req.Settings.TopK
		}
		settings.Temperature = req.Settings.Temperature
		if req.Settings.MaxTokens > 0 {
			settings.MaxTokens = req.Settings.MaxTokens
		}
		settings.SimilarityThreshold = req.Settings.SimilarityThreshold
		if req.Settings.WorkerPoolSize > 0 {
			settings.WorkerPoolSize = req.Settings.WorkerPoolSize
		}
	}

	eval, err := s.evalStore.Create(c.Request().Context(), evaluation.CreateRequest{
		DatasetID:       datasetID,
		WorkspaceID:     workspaceID,
		CandidateModels: candidates,
		JudgeModel:      models.CandidateModel{Provider: req.JudgeModel.Provider, Model: req.JudgeModel.Model},
		Settings:        settings,
	})
	if err != nil {
		return mapAppError(err)
	}

	evalID, err := uuid.Parse(eval.ID)
	if err == nil {
		// Scoped to the process lifetime, not the request, so the run
		// outlives this handler but stops on shutdown (spec §5).
		go s.executor.Run(s.backgroundCtx, evalID)
	}

	return c.JSON(http.StatusAccepted, evaluationToResponse(eval))
}

// getEvaluationHandler handles GET /evaluation/{id}.
func (s *Server) getEvaluationHandler(c *echo.Context) error {
	evalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id: must be a uuid")
	}

	eval, err := s.evalStore.Get(c.Request().Context(), evalID)
	if err != nil {
		return mapAppError(err)
	}

	return c.JSON(http.StatusOK, evaluationToResponse(eval))
}

func evaluationToResponse(eval *models.Evaluation) *EvaluationResponse {
	return &EvaluationResponse{
		ID:           eval.ID,
		DatasetID:    eval.DatasetID,
		WorkspaceID:  eval.WorkspaceID,
		Status:       string(eval.Status),
		ErrorMessage: eval.ErrorMessage,
		CreatedAt:    eval.CreatedAt,
		CompletedAt:  eval.CompletedAt,
	}
}

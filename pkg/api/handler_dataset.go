package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/catalog"
)

// createDatasetHandler handles POST /evaluation/dataset/create.
func (s *Server) createDatasetHandler(c *echo.Context) error {
	var req CreateDatasetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace_id: must be a uuid")
	}

	ds, err := s.datasets.CreateDataset(c.Request().Context(), workspaceID, req.Name)
	if err != nil {
		return mapAppError(err)
	}

	return c.JSON(http.StatusCreated, &DatasetResponse{
		ID:          ds.ID,
		WorkspaceID: ds.WorkspaceID,
		Name:        ds.Name,
	})
}

// addQuestionsHandler handles POST /evaluation/dataset/{id}/questions.
func (s *Server) addQuestionsHandler(c *echo.Context) error {
	datasetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id: must be a uuid")
	}

	var req AddQuestionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	inputs := make([]catalog.QuestionInput, len(req.Questions))
	for i, q := range req.Questions {
		inputs[i] = catalog.QuestionInput{
			QuestionText:     q.QuestionText,
			ExpectedAnswer:   q.ExpectedAnswer,
			ContextReference: q.ContextReference,
		}
	}

	questions, err := s.datasets.AddQuestions(c.Request().Context(), datasetID, inputs)
	if err != nil {
		return mapAppError(err)
	}

	resp := &QuestionsResponse{Questions: make([]QuestionResponse, len(questions))}
	for i, q := range questions {
		resp.Questions[i] = QuestionResponse{
			ID:               q.ID,
			QuestionIndex:    q.QuestionIndex,
			QuestionText:     q.QuestionText,
			ExpectedAnswer:   q.ExpectedAnswer,
			ContextReference: q.ContextReference,
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

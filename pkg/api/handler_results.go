package api

import (
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/maxwell-labs/ragbench/pkg/models"
)

// resultsSummaryHandler handles GET /results/{eval_id}/summary.
func (s *Server) resultsSummaryHandler(c *echo.Context) error {
	evalID, err := uuid.Parse(c.Param("eval_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "eval_id: must be a uuid")
	}

	summary, err := s.evalStore.GetSummary(c.Request().Context(), evalID)
	if err != nil {
		return mapAppError(err)
	}

	resp := &SummaryResponse{
		EvaluationID: summary.EvaluationID,
		Candidates:   make([]CandidateSummaryResponse, len(summary.Candidates)),
	}
	for i, cs := range summary.Candidates {
		resp.Candidates[i] = CandidateSummaryResponse{
			Provider:               cs.CandidateModel.Provider,
			Model:                  cs.CandidateModel.Model,
			MeanAccuracy:           cs.MeanAccuracy,
			MeanFaithfulness:       cs.MeanFaithfulness,
			MeanReasoning:          cs.MeanReasoning,
			MeanContextUtilization: cs.MeanContextUtilization,
			MeanLatencyMS:          cs.MeanLatencyMS,
			MeanCostUSD:            cs.MeanCostUSD,
			TotalCostUSD:           cs.TotalCostUSD,
			OverallScore:           cs.OverallScore,
			SuccessfulCount:        cs.SuccessfulCount,
			FailedCount:            cs.FailedCount,
			TotalCount:             cs.TotalCount,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// resultsDetailedHandler handles GET /results/{eval_id}/detailed.
func (s *Server) resultsDetailedHandler(c *echo.Context) error {
	evalID, err := uuid.Parse(c.Param("eval_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "eval_id: must be a uuid")
	}

	eval, err := s.evalStore.Get(c.Request().Context(), evalID)
	if err != nil {
		return mapAppError(err)
	}

	results, metrics, err := s.evalStore.ListResultsOrdered(c.Request().Context(), evalID, eval.CandidateModels)
	if err != nil {
		return mapAppError(err)
	}

	resp := &DetailedResponse{
		EvaluationID: eval.ID,
		Results:      make([]ModelResultResponse, len(results)),
	}
	for i := range results {
		resp.Results[i] = modelResultToResponse(results[i], metrics[i])
	}
	return c.JSON(http.StatusOK, resp)
}

// resultsByModelHandler handles GET /results/{eval_id}/metrics-by-model,
// grouping every ModelResult under its "{provider}/{model}" key (spec §6).
func (s *Server) resultsByModelHandler(c *echo.Context) error {
	evalID, err := uuid.Parse(c.Param("eval_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "eval_id: must be a uuid")
	}

	eval, err := s.evalStore.Get(c.Request().Context(), evalID)
	if err != nil {
		return mapAppError(err)
	}

	results, metrics, err := s.evalStore.ListResultsOrdered(c.Request().Context(), evalID, eval.CandidateModels)
	if err != nil {
		return mapAppError(err)
	}

	byModel := make(map[string][]ModelResultResponse)
	for i := range results {
		key := results[i].CandidateModel.Key()
		byModel[key] = append(byModel[key], modelResultToResponse(results[i], metrics[i]))
	}

	return c.JSON(http.StatusOK, &MetricsByModelResponse{
		EvaluationID: eval.ID,
		Metrics:      byModel,
	})
}

func modelResultToResponse(r models.ModelResult, m models.QuestionMetrics) ModelResultResponse {
	return ModelResultResponse{
		QuestionIndex:    r.QuestionIndex,
		Provider:         r.CandidateModel.Provider,
		Model:            r.CandidateModel.Model,
		GeneratedAnswer:  r.GeneratedAnswer,
		RetrievedContext: r.RetrievedContext,
		LatencyMS:        r.LatencyMS,
		CostUSD:          r.CostUSD,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		Error:            r.Error,
		Metrics: QuestionMetricsResponse{
			Accuracy:            m.Accuracy,
			AccuracyExplanation: m.AccuracyExplanation,
			Faithfulness:        m.Faithfulness,
			FaithfulnessExplain: m.FaithfulnessExplain,
			Reasoning:           m.Reasoning,
			ReasoningExplain:    m.ReasoningExplain,
			ContextUtilization:  m.ContextUtilization,
			ContextUtilExplain:  m.ContextUtilExplain,
		},
	}
}

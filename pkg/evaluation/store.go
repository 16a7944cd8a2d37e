package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

// Store persists Evaluations, ModelResults, QuestionMetrics, and
// EvaluationSummaries (spec §3, §6).
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps pool as a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateRequest is the input to Create.
type CreateRequest struct {
	DatasetID       uuid.UUID
	WorkspaceID     uuid.UUID
	CandidateModels []models.CandidateModel
	JudgeModel      models.CandidateModel
	Settings        models.EvaluationSettings
}

// Create inserts a pending Evaluation.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.Evaluation, error) {
	if len(req.CandidateModels) == 0 {
		return nil, apperrors.New(apperrors.KindInputInvalid, "candidate_models: at least one required")
	}
	if req.JudgeModel.Provider == "" || req.JudgeModel.Model == "" {
		return nil, apperrors.New(apperrors.KindInputInvalid, "judge_model: provider and model required")
	}

	candidatesJSON, err := json.Marshal(req.CandidateModels)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "marshaling candidate models")
	}
	settingsJSON, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "marshaling evaluation settings")
	}

	var id uuid.UUID
	var createdAt time.Time
	err = s.pool.QueryRow(ctx, `
		INSERT INTO evaluations (dataset_id, workspace_id, candidate_models, judge_provider, judge_model, settings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		req.DatasetID, req.WorkspaceID, candidatesJSON, req.JudgeModel.Provider, req.JudgeModel.Model, settingsJSON,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "creating evaluation")
	}

	return &models.Evaluation{
		ID: id.String(), DatasetID: req.DatasetID.String(), WorkspaceID: req.WorkspaceID.String(),
		CandidateModels: req.CandidateModels, JudgeModel: req.JudgeModel, Settings: req.Settings,
		Status: models.EvaluationStatusPending, CreatedAt: createdAt,
	}, nil
}

// Get loads an evaluation by id.
func (s *Store) Get(ctx context.Context, evaluationID uuid.UUID) (*models.Evaluation, error) {
	var e models.Evaluation
	var id, datasetID, workspaceID uuid.UUID
	var candidatesJSON, settingsJSON []byte
	var judgeProvider, judgeModel string
	err := s.pool.QueryRow(ctx, `
		SELECT id, dataset_id, workspace_id, candidate_models, judge_provider, judge_model, settings, status, error_message, created_at, completed_at
		FROM evaluations WHERE id = $1`, evaluationID,
	).Scan(&id, &datasetID, &workspaceID, &candidatesJSON, &judgeProvider, &judgeModel, &settingsJSON, &e.Status, &e.ErrorMessage, &e.CreatedAt, &e.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindInputInvalid, "evaluation %s not found", evaluationID)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "loading evaluation")
	}
	if err := json.Unmarshal(candidatesJSON, &e.CandidateModels); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "unmarshaling candidate models")
	}
	if err := json.Unmarshal(settingsJSON, &e.Settings); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "unmarshaling evaluation settings")
	}
	e.ID, e.DatasetID, e.WorkspaceID = id.String(), datasetID.String(), workspaceID.String()
	e.JudgeModel = models.CandidateModel{Provider: judgeProvider, Model: judgeModel}
	return &e, nil
}

// MarkRunning transitions a pending evaluation to running.
func (s *Store) MarkRunning(ctx context.Context, evaluationID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE evaluations SET status = $1 WHERE id = $2 AND status = $3`,
		models.EvaluationStatusRunning, evaluationID, models.EvaluationStatusPending)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marking evaluation running")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindStateConflict, "evaluation %s is not pending", evaluationID)
	}
	return nil
}

// MarkCompleted transitions a running evaluation to completed.
func (s *Store) MarkCompleted(ctx context.Context, evaluationID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE evaluations SET status = $1, completed_at = now() WHERE id = $2 AND status = $3`,
		models.EvaluationStatusCompleted, evaluationID, models.EvaluationStatusRunning)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marking evaluation completed")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindStateConflict, "evaluation %s is not running", evaluationID)
	}
	return nil
}

// MarkFailed transitions an evaluation to failed from pending or running,
// recording errMsg (spec §4.E: setup failure or cancellation).
func (s *Store) MarkFailed(ctx context.Context, evaluationID uuid.UUID, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE evaluations SET status = $1, error_message = $2, completed_at = now()
		WHERE id = $3 AND status IN ($4, $5)`,
		models.EvaluationStatusFailed, errMsg, evaluationID, models.EvaluationStatusPending, models.EvaluationStatusRunning)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marking evaluation failed")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindStateConflict, "evaluation %s already terminal", evaluationID)
	}
	return nil
}

// SaveUnitOutcome persists one ModelResult and its QuestionMetrics in a
// single transaction (spec §4.E: "Persist one ModelResult + one
// QuestionMetrics per unit").
func (s *Store) SaveUnitOutcome(ctx context.Context, evaluationID uuid.UUID, outcome unitOutcome) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "beginning unit outcome transaction")
	}
	defer tx.Rollback(ctx)

	var resultID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO model_results (evaluation_id, question_index, candidate_provider, candidate_model, generated_answer, retrieved_context, latency_ms, cost_usd, prompt_tokens, completion_tokens, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (evaluation_id, question_index, candidate_provider, candidate_model) DO UPDATE SET
			generated_answer = EXCLUDED.generated_answer, retrieved_context = EXCLUDED.retrieved_context,
			latency_ms = EXCLUDED.latency_ms, cost_usd = EXCLUDED.cost_usd, prompt_tokens = EXCLUDED.prompt_tokens,
			completion_tokens = EXCLUDED.completion_tokens, error = EXCLUDED.error
		RETURNING id`,
		evaluationID, outcome.QuestionIndex, outcome.Candidate.Provider, outcome.Candidate.Model,
		outcome.Result.GeneratedAnswer, jsonRetrievedContext(outcome.Result.RetrievedContext),
		outcome.Result.LatencyMS, outcome.Result.CostUSD, outcome.Result.PromptTokens, outcome.Result.CompletionTokens, outcome.Result.Error,
	).Scan(&resultID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "upserting model result")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO question_metrics (model_result_id, accuracy, accuracy_explanation, faithfulness, faithfulness_explanation, reasoning, reasoning_explanation, context_utilization, context_utilization_explanation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (model_result_id) DO UPDATE SET
			accuracy = EXCLUDED.accuracy, accuracy_explanation = EXCLUDED.accuracy_explanation,
			faithfulness = EXCLUDED.faithfulness, faithfulness_explanation = EXCLUDED.faithfulness_explanation,
			reasoning = EXCLUDED.reasoning, reasoning_explanation = EXCLUDED.reasoning_explanation,
			context_utilization = EXCLUDED.context_utilization, context_utilization_explanation = EXCLUDED.context_utilization_explanation`,
		resultID, outcome.Metrics.Accuracy, outcome.Metrics.AccuracyExplanation, outcome.Metrics.Faithfulness, outcome.Metrics.FaithfulnessExplain,
		outcome.Metrics.Reasoning, outcome.Metrics.ReasoningExplain, outcome.Metrics.ContextUtilization, outcome.Metrics.ContextUtilExplain,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "upserting question metrics")
	}

	return tx.Commit(ctx)
}

// jsonRetrievedContext stores retrieved_context as a single-element JSON
// array of the concatenated text, matching the retrieved_context JSONB
// column's shape for future per-chunk breakdown without a migration.
func jsonRetrievedContext(text string) []byte {
	b, _ := json.Marshal([]string{text})
	return b
}

// SaveSummary upserts the per-candidate aggregate rows for an evaluation.
func (s *Store) SaveSummary(ctx context.Context, evaluationID uuid.UUID, summary models.EvaluationSummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "beginning summary transaction")
	}
	defer tx.Rollback(ctx)

	for _, c := range summary.Candidates {
		_, err := tx.Exec(ctx, `
			INSERT INTO evaluation_summaries (evaluation_id, candidate_provider, candidate_model, mean_accuracy, mean_faithfulness, mean_reasoning, mean_context_util, mean_latency_ms, mean_cost_usd, total_cost_usd, overall_score, successful_count, failed_count, total_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (evaluation_id, candidate_provider, candidate_model) DO UPDATE SET
				mean_accuracy = EXCLUDED.mean_accuracy, mean_faithfulness = EXCLUDED.mean_faithfulness,
				mean_reasoning = EXCLUDED.mean_reasoning, mean_context_util = EXCLUDED.mean_context_util,
				mean_latency_ms = EXCLUDED.mean_latency_ms, mean_cost_usd = EXCLUDED.mean_cost_usd,
				total_cost_usd = EXCLUDED.total_cost_usd, overall_score = EXCLUDED.overall_score,
				successful_count = EXCLUDED.successful_count, failed_count = EXCLUDED.failed_count, total_count = EXCLUDED.total_count`,
			evaluationID, c.CandidateModel.Provider, c.CandidateModel.Model, c.MeanAccuracy, c.MeanFaithfulness, c.MeanReasoning, c.MeanContextUtilization,
			c.MeanLatencyMS, c.MeanCostUSD, c.TotalCostUSD, c.OverallScore, c.SuccessfulCount, c.FailedCount, c.TotalCount,
		)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInternal, err, "upserting candidate summary")
		}
	}
	return tx.Commit(ctx)
}

// GetSummary loads the ranked per-candidate summary for an evaluation.
func (s *Store) GetSummary(ctx context.Context, evaluationID uuid.UUID) (models.EvaluationSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT candidate_provider, candidate_model, mean_accuracy, mean_faithfulness, mean_reasoning, mean_context_util, mean_latency_ms, mean_cost_usd, total_cost_usd, overall_score, successful_count, failed_count, total_count
		FROM evaluation_summaries WHERE evaluation_id = $1 ORDER BY overall_score DESC, mean_latency_ms ASC, mean_cost_usd ASC`, evaluationID)
	if err != nil {
		return models.EvaluationSummary{}, apperrors.Wrap(apperrors.KindInternal, err, "loading evaluation summary")
	}
	defer rows.Close()

	summary := models.EvaluationSummary{EvaluationID: evaluationID.String()}
	for rows.Next() {
		var c models.CandidateSummary
		if err := rows.Scan(&c.CandidateModel.Provider, &c.CandidateModel.Model, &c.MeanAccuracy, &c.MeanFaithfulness, &c.MeanReasoning, &c.MeanContextUtilization,
			&c.MeanLatencyMS, &c.MeanCostUSD, &c.TotalCostUSD, &c.OverallScore, &c.SuccessfulCount, &c.FailedCount, &c.TotalCount); err != nil {
			return models.EvaluationSummary{}, apperrors.Wrap(apperrors.KindInternal, err, "scanning candidate summary")
		}
		summary.Candidates = append(summary.Candidates, c)
	}
	return summary, rows.Err()
}

// ListResultsOrdered returns every ModelResult with its QuestionMetrics for
// an evaluation, ordered by question_index ascending then candidate
// declaration order (spec §4.E "Ordering & tie-breaks").
func (s *Store) ListResultsOrdered(ctx context.Context, evaluationID uuid.UUID, declaredOrder []models.CandidateModel) ([]models.ModelResult, []models.QuestionMetrics, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.question_index, r.candidate_provider, r.candidate_model, r.generated_answer, r.retrieved_context, r.latency_ms, r.cost_usd, r.prompt_tokens, r.completion_tokens, r.error,
			m.accuracy, m.accuracy_explanation, m.faithfulness, m.faithfulness_explanation, m.reasoning, m.reasoning_explanation, m.context_utilization, m.context_utilization_explanation
		FROM model_results r
		LEFT JOIN question_metrics m ON m.model_result_id = r.id
		WHERE r.evaluation_id = $1`, evaluationID)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindInternal, err, "listing model results")
	}
	defer rows.Close()

	var results []models.ModelResult
	var metrics []models.QuestionMetrics
	for rows.Next() {
		var resultID uuid.UUID
		var r models.ModelResult
		var m models.QuestionMetrics
		var retrievedContextJSON []byte
		if err := rows.Scan(&resultID, &r.QuestionIndex, &r.CandidateModel.Provider, &r.CandidateModel.Model, &r.GeneratedAnswer, &retrievedContextJSON,
			&r.LatencyMS, &r.CostUSD, &r.PromptTokens, &r.CompletionTokens, &r.Error,
			&m.Accuracy, &m.AccuracyExplanation, &m.Faithfulness, &m.FaithfulnessExplain, &m.Reasoning, &m.ReasoningExplain, &m.ContextUtilization, &m.ContextUtilExplain); err != nil {
			return nil, nil, apperrors.Wrap(apperrors.KindInternal, err, "scanning model result")
		}
		r.ID = resultID.String()
		r.EvaluationID = evaluationID.String()
		m.ID = resultID.String() // one-to-one with the model result row
		m.ModelResultID = resultID.String()
		var texts []string
		if err := json.Unmarshal(retrievedContextJSON, &texts); err == nil && len(texts) > 0 {
			r.RetrievedContext = texts[0]
		}
		results = append(results, r)
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	order := declarationOrderIndex(declaredOrder)
	sortResultsAndMetrics(results, metrics, order)
	return results, metrics, nil
}

func declarationOrderIndex(candidates []models.CandidateModel) map[string]int {
	idx := make(map[string]int, len(candidates))
	for i, c := range candidates {
		idx[c.Key()] = i
	}
	return idx
}

// sortResultsAndMetrics orders the parallel results/metrics slices by
// question_index ascending, then by each candidate's declared position.
func sortResultsAndMetrics(results []models.ModelResult, metrics []models.QuestionMetrics, order map[string]int) {
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := results[idx[a]], results[idx[b]]
		if ra.QuestionIndex != rb.QuestionIndex {
			return ra.QuestionIndex < rb.QuestionIndex
		}
		return order[ra.CandidateModel.Key()] < order[rb.CandidateModel.Key()]
	})

	sortedResults := make([]models.ModelResult, len(results))
	sortedMetrics := make([]models.QuestionMetrics, len(metrics))
	for newPos, oldPos := range idx {
		sortedResults[newPos] = results[oldPos]
		sortedMetrics[newPos] = metrics[oldPos]
	}
	copy(results, sortedResults)
	copy(metrics, sortedMetrics)
}

package evaluation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/models"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/secretmask"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

const defaultWorkerPoolSize = 8

// Executor runs one Evaluation to completion: validates setup, fans out
// every (question, candidate) unit across a bounded worker pool, persists
// each outcome as it lands, and aggregates the final summary (spec §4.E).
type Executor struct {
	store      *Store
	questions  *catalog.DatasetService
	workspaces *catalog.WorkspaceService
	index      vectorindex.Index
	registry   *provider.Registry
}

// NewExecutor wires an Executor from its collaborators.
func NewExecutor(store *Store, questions *catalog.DatasetService, workspaces *catalog.WorkspaceService, index vectorindex.Index, registry *provider.Registry) *Executor {
	return &Executor{store: store, questions: questions, workspaces: workspaces, index: index, registry: registry}
}

// Run drives evaluationID from pending through completion. Called from a
// background goroutine after the evaluation is created; every failure short
// of a cancellation is recorded on the Evaluation row rather than returned,
// since nothing is listening synchronously (spec §7 background failures
// never propagate to a caller).
func (ex *Executor) Run(ctx context.Context, evaluationID uuid.UUID) {
	log := slog.With("evaluation_id", evaluationID)

	eval, err := ex.store.Get(ctx, evaluationID)
	if err != nil {
		log.Error("loading evaluation for run", "error", err)
		return
	}

	datasetID, err := uuid.Parse(eval.DatasetID)
	if err != nil {
		ex.fail(ctx, log, evaluationID, apperrors.New(apperrors.KindInternal, "evaluation has malformed dataset id"))
		return
	}
	workspaceID, err := uuid.Parse(eval.WorkspaceID)
	if err != nil {
		ex.fail(ctx, log, evaluationID, apperrors.New(apperrors.KindInternal, "evaluation has malformed workspace id"))
		return
	}

	questions, err := ex.questions.ListQuestions(ctx, datasetID)
	if err != nil {
		ex.fail(ctx, log, evaluationID, apperrors.Wrap(apperrors.KindInputInvalid, err, "dataset unreadable"))
		return
	}
	if len(questions) == 0 {
		ex.fail(ctx, log, evaluationID, apperrors.New(apperrors.KindInputInvalid, "dataset has no questions"))
		return
	}

	ws, err := ex.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		ex.fail(ctx, log, evaluationID, apperrors.Wrap(apperrors.KindInputInvalid, err, "workspace unreadable"))
		return
	}

	// Resolving every candidate's and the judge's capability now surfaces
	// unknown providers and missing credentials as setup failures (spec
	// §4.E: "unknown candidate model", "judge auth failure on first use"),
	// before any unit starts.
	for _, c := range eval.CandidateModels {
		if _, err := ex.registry.Generator(c.Provider); err != nil {
			ex.fail(ctx, log, evaluationID, apperrors.Wrap(apperrors.KindInputInvalid, err, "candidate model %s unresolvable", c.Key()))
			return
		}
	}
	if _, err := ex.registry.Generator(eval.JudgeModel.Provider); err != nil {
		ex.fail(ctx, log, evaluationID, apperrors.Wrap(apperrors.KindProviderAuth, err, "judge model %s unresolvable", eval.JudgeModel.Key()))
		return
	}
	if _, err := ex.registry.Embedder(ws.EmbeddingProvider); err != nil {
		ex.fail(ctx, log, evaluationID, apperrors.Wrap(apperrors.KindInputInvalid, err, "workspace embedding provider unresolvable"))
		return
	}

	if err := ex.store.MarkRunning(ctx, evaluationID); err != nil {
		log.Error("marking evaluation running", "error", err)
		return
	}

	deps := unitDeps{
		registry:            ex.registry,
		index:               ex.index,
		workspaceID:         workspaceID,
		embeddingProvider:   ws.EmbeddingProvider,
		embeddingModel:      ws.EmbeddingModel,
		judgeProvider:       eval.JudgeModel.Provider,
		judgeModel:          eval.JudgeModel.Model,
		topK:                eval.Settings.TopK,
		similarityThreshold: eval.Settings.SimilarityThreshold,
		temperature:         eval.Settings.Temperature,
		maxTokens:           eval.Settings.MaxTokens,
	}

	poolSize := eval.Settings.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = defaultWorkerPoolSize
	}

	outcomes := ex.runUnits(ctx, log, evaluationID, deps, questions, eval.CandidateModels, poolSize)

	// A cancelled run (workspace or evaluation deleted mid-flight) stops
	// dispatching new units but leaves already-persisted results in place;
	// it is not reported as a setup failure since work did happen.
	if ctx.Err() != nil {
		log.Warn("evaluation run cancelled", "error", ctx.Err())
		_ = ex.store.MarkFailed(context.WithoutCancel(ctx), evaluationID, "cancelled")
		return
	}

	summary := aggregate(evaluationID.String(), eval.CandidateModels, outcomes)
	if err := ex.store.SaveSummary(ctx, evaluationID, summary); err != nil {
		log.Error("saving evaluation summary", "error", err)
	}

	if err := ex.store.MarkCompleted(ctx, evaluationID); err != nil {
		log.Error("marking evaluation completed", "error", err)
	}
}

// runUnits fans out runUnit across every (question, candidate) pair bounded
// by poolSize concurrent units, persisting each outcome as it completes so
// partial progress survives a later cancellation.
func (ex *Executor) runUnits(ctx context.Context, log *slog.Logger, evaluationID uuid.UUID, deps unitDeps, questions []models.TestQuestion, candidates []models.CandidateModel, poolSize int) []unitOutcome {
	sem := semaphore.NewWeighted(int64(poolSize))

	var mu sync.Mutex
	var wg sync.WaitGroup
	outcomes := make([]unitOutcome, 0, len(questions)*len(candidates))

dispatch:
	for _, q := range questions {
		for _, c := range candidates {
			if ctx.Err() != nil {
				break dispatch
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				break dispatch
			}
			wg.Add(1)
			go func(q models.TestQuestion, c models.CandidateModel) {
				defer wg.Done()
				defer sem.Release(1)

				outcome := runUnit(ctx, deps, q, c)
				if err := ex.store.SaveUnitOutcome(ctx, evaluationID, outcome); err != nil {
					log.Error("persisting unit outcome", "question_index", q.QuestionIndex, "candidate", c.Key(), "error", err)
				}

				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}(q, c)
		}
	}

	wg.Wait()
	return outcomes
}

// fail records cause as the terminal reason for evaluationID.
func (ex *Executor) fail(ctx context.Context, log *slog.Logger, evaluationID uuid.UUID, cause error) {
	log.Error("evaluation setup failed", "error", cause)
	if err := ex.store.MarkFailed(ctx, evaluationID, secretmask.Mask(cause.Error())); err != nil {
		log.Error("marking evaluation failed", "error", err)
	}
}

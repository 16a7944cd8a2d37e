package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maxwell-labs/ragbench/pkg/models"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

const (
	generateTimeout = 120 * time.Second
	judgeTimeout    = 60 * time.Second
	retrieveTimeout = 60 * time.Second
)

// unitDeps bundles one evaluation's shared collaborators, passed to every
// concurrent unit rather than held as package state (spec §9: no
// module-level singletons).
type unitDeps struct {
	registry            *provider.Registry
	index               vectorindex.Index
	workspaceID         uuid.UUID
	embeddingProvider   string
	embeddingModel      string
	judgeProvider       string
	judgeModel          string
	topK                int
	similarityThreshold float64
	temperature         float64
	maxTokens           int
}

// unitOutcome is the persisted result of one (question, candidate) unit.
type unitOutcome struct {
	QuestionIndex int
	Candidate     models.CandidateModel
	Result        models.ModelResult
	Metrics       models.QuestionMetrics
}

// runUnit executes retrieve, generate, and judge for one question against
// one candidate model (spec §4.E). Errors from retrieve or generate are
// captured into Result.Error rather than returned; setup-level failures
// (missing provider capability) of the whole evaluation are detected by the
// executor before units start and recorded on the Evaluation row.
func runUnit(ctx context.Context, deps unitDeps, q models.TestQuestion, candidate models.CandidateModel) unitOutcome {
	outcome := unitOutcome{
		QuestionIndex: q.QuestionIndex,
		Candidate:     candidate,
		Result:        models.ModelResult{QuestionIndex: q.QuestionIndex, CandidateModel: candidate},
	}

	retrievedContext, err := retrieve(ctx, deps, q.QuestionText)
	if err != nil {
		outcome.Result.Error = err.Error()
		return outcome
	}
	outcome.Result.RetrievedContext = retrievedContext

	generator, err := deps.registry.Generator(candidate.Provider)
	if err != nil {
		outcome.Result.Error = err.Error()
		return outcome
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	start := time.Now()
	genResult, err := generator.Generate(genCtx, candidate.Model, generationPrompt(retrievedContext, q.QuestionText), deps.temperature, deps.maxTokens)
	latency := time.Since(start)
	cancel()
	if err != nil {
		outcome.Result.Error = err.Error()
		return outcome
	}

	outcome.Result.GeneratedAnswer = genResult.Text
	outcome.Result.LatencyMS = latency.Milliseconds()
	outcome.Result.PromptTokens = genResult.PromptTokens
	outcome.Result.CompletionTokens = genResult.CompletionTokens
	outcome.Result.CostUSD = deps.registry.Cost(candidate.Provider, candidate.Model, genResult.PromptTokens, genResult.CompletionTokens)

	judgeGenerator, err := deps.registry.Generator(deps.judgeProvider)
	if err != nil {
		// Generation succeeded; the unit still counts as successful even
		// though judge scoring could not run at all (spec §4.E failure
		// policy treats per-metric judge failure as a null metric, not a
		// unit failure).
		return outcome
	}
	judgeCtx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()
	outcome.Metrics = runJudges(judgeCtx, judgeGenerator, deps.judgeModel, q, retrievedContext, genResult.Text)
	return outcome
}

// retrieve embeds the question and queries the workspace vector index,
// concatenating matches in descending-score order into retrieved_context.
func retrieve(ctx context.Context, deps unitDeps, question string) (string, error) {
	embedder, err := deps.registry.Embedder(deps.embeddingProvider)
	if err != nil {
		return "", err
	}
	embedCtx, cancel := context.WithTimeout(ctx, retrieveTimeout)
	defer cancel()

	embedResult, err := embedder.Embed(embedCtx, deps.embeddingModel, []string{question})
	if err != nil {
		return "", err
	}

	// Index.Query guarantees descending-score order with (document_id,
	// chunk_index) tie-breaks, so concatenation order here is already
	// retrieval order.
	matches, err := deps.index.Query(ctx, deps.workspaceID, embedResult.Vectors[0], deps.topK, deps.similarityThreshold)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.TextExcerpt
	}
	return strings.Join(texts, "\n\n"), nil
}

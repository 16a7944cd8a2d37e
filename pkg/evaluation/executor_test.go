package evaluation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/config"
	"github.com/maxwell-labs/ragbench/pkg/database"
	"github.com/maxwell-labs/ragbench/pkg/evaluation"
	"github.com/maxwell-labs/ragbench/pkg/models"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

type evalHarness struct {
	client     *database.Client
	workspaces *catalog.WorkspaceService
	datasets   *catalog.DatasetService
	store      *evaluation.Store
	index      *vectorindex.PGIndex
	ownerID    uuid.UUID
}

func newEvalHarness(t *testing.T) *evalHarness {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("ragbench_test"),
		postgres.WithUsername("ragbench"),
		postgres.WithPassword("ragbench"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgContainer) })

	host, _ := pgContainer.Host(ctx)
	port, _ := pgContainer.MappedPort(ctx, "5432/tcp")

	client, err := database.NewClient(ctx, database.Config{
		Host: host, Port: port.Int(), User: "ragbench", Password: "ragbench",
		Database: "ragbench_test", SSLMode: "disable",
		MaxOpenConns: 10, MaxIdleConns: 5,
		ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	var ownerID uuid.UUID
	require.NoError(t, client.Pool().QueryRow(ctx,
		`INSERT INTO users (email, api_key_hash) VALUES ('owner@example.com','x') RETURNING id`).Scan(&ownerID))

	return &evalHarness{
		client:     client,
		workspaces: catalog.NewWorkspaceService(client.Pool()),
		datasets:   catalog.NewDatasetService(client.Pool()),
		store:      evaluation.NewStore(client.Pool()),
		index:      vectorindex.NewPGIndex(client.Pool()),
		ownerID:    ownerID,
	}
}

// fakeChatServer returns an httptest server speaking the OpenAI chat
// completions wire format, always responding with content.
func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-test", "object": "chat.completion", "model": "test-model",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

// flakyServer always answers 503, modeling a provider outage.
func flakyServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
}

func testRegistry(t *testing.T, extra map[string]*config.ProviderConfig) *provider.Registry {
	t.Helper()
	providers := config.DefaultProviderRegistry().GetAll()
	for name, pc := range extra {
		providers[name] = pc
	}
	return provider.NewRegistry(config.NewProviderRegistry(providers), config.DefaultPricingTable())
}

func seedWorkspaceAndDataset(t *testing.T, h *evalHarness, questions []catalog.QuestionInput) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	ws, err := h.workspaces.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: h.ownerID, Name: "ws", EmbeddingProvider: "local-bge", EmbeddingModel: "local-bge-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	require.NoError(t, err)
	wsID, err := uuid.Parse(ws.ID)
	require.NoError(t, err)

	// At least one vector record is required for retrieval to return
	// non-empty context; fix the workspace's embedding dimension directly.
	require.NoError(t, h.index.Upsert(ctx, wsID, []vectorindex.Record{
		{ChunkID: uuid.New(), DocumentID: uuid.New(), ChunkIndex: 0, Embedding: fixedVector(384, 1), TextExcerpt: "retrieval augmented generation combines a retriever and a generator."},
	}))

	ds, err := h.datasets.CreateDataset(ctx, wsID, "golden")
	require.NoError(t, err)
	dsID, err := uuid.Parse(ds.ID)
	require.NoError(t, err)

	_, err = h.datasets.AddQuestions(ctx, dsID, questions)
	require.NoError(t, err)

	return wsID, dsID
}

func fixedVector(dim int, firstValue float32) []float32 {
	v := make([]float32, dim)
	v[0] = firstValue
	return v
}

func TestExecutor_RenormalizesOverallScoreWithoutExpectedAnswer(t *testing.T) {
	h := newEvalHarness(t)
	server := fakeChatServer(t, `{"score": 0.8, "explanation": "plausible"}`)
	defer server.Close()
	t.Setenv("TEST_GEN_API_KEY", "test-key")

	wsID, dsID := seedWorkspaceAndDataset(t, h, []catalog.QuestionInput{
		{QuestionText: "what is rag?"}, // no expected answer
	})

	registry := testRegistry(t, map[string]*config.ProviderConfig{
		"test-gen": {Name: "test-gen", Kind: config.ProviderKindOpenAICompatible, BaseURL: server.URL, APIKeyEnv: "TEST_GEN_API_KEY"},
	})

	eval, err := h.store.Create(context.Background(), evaluation.CreateRequest{
		DatasetID: dsID, WorkspaceID: wsID,
		CandidateModels: []models.CandidateModel{{Provider: "test-gen", Model: "candidate-1"}},
		JudgeModel:      models.CandidateModel{Provider: "test-gen", Model: "judge-1"},
		Settings:        models.EvaluationSettings{TopK: 5, Temperature: 0, MaxTokens: 256, WorkerPoolSize: 4},
	})
	require.NoError(t, err)
	evalID, err := uuid.Parse(eval.ID)
	require.NoError(t, err)

	executor := evaluation.NewExecutor(h.store, h.datasets, h.workspaces, h.index, registry)
	executor.Run(context.Background(), evalID)

	got, err := h.store.Get(context.Background(), evalID)
	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusCompleted, got.Status)

	summary, err := h.store.GetSummary(context.Background(), evalID)
	require.NoError(t, err)
	require.Len(t, summary.Candidates, 1)
	c := summary.Candidates[0]
	assert.Nil(t, c.MeanAccuracy)
	assert.InDelta(t, 0.8, c.OverallScore, 1e-6)
	assert.Equal(t, 1, c.SuccessfulCount)
}

func TestExecutor_ProviderOutageFailsEveryUnitButCompletes(t *testing.T) {
	h := newEvalHarness(t)
	server := flakyServer(t)
	defer server.Close()
	t.Setenv("FLAKY_API_KEY", "test-key")

	wsID, dsID := seedWorkspaceAndDataset(t, h, []catalog.QuestionInput{
		{QuestionText: "what is rag?", ExpectedAnswer: "retrieval augmented generation"},
	})

	registry := testRegistry(t, map[string]*config.ProviderConfig{
		"flaky-gen": {Name: "flaky-gen", Kind: config.ProviderKindOpenAICompatible, BaseURL: server.URL, APIKeyEnv: "FLAKY_API_KEY"},
	})

	eval, err := h.store.Create(context.Background(), evaluation.CreateRequest{
		DatasetID: dsID, WorkspaceID: wsID,
		CandidateModels: []models.CandidateModel{{Provider: "flaky-gen", Model: "candidate-1"}},
		JudgeModel:      models.CandidateModel{Provider: "flaky-gen", Model: "judge-1"},
		Settings:        models.EvaluationSettings{TopK: 5, Temperature: 0, MaxTokens: 256, WorkerPoolSize: 2},
	})
	require.NoError(t, err)
	evalID, err := uuid.Parse(eval.ID)
	require.NoError(t, err)

	executor := evaluation.NewExecutor(h.store, h.datasets, h.workspaces, h.index, registry)
	executor.Run(context.Background(), evalID)

	got, err := h.store.Get(context.Background(), evalID)
	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusCompleted, got.Status)

	summary, err := h.store.GetSummary(context.Background(), evalID)
	require.NoError(t, err)
	require.Len(t, summary.Candidates, 1)
	c := summary.Candidates[0]
	assert.Equal(t, 0, c.SuccessfulCount)
	assert.Equal(t, 1, c.FailedCount)
	assert.Equal(t, 0.0, c.OverallScore)
}

func TestExecutor_UnknownCandidateFailsSetupWithoutRunning(t *testing.T) {
	h := newEvalHarness(t)
	wsID, dsID := seedWorkspaceAndDataset(t, h, []catalog.QuestionInput{{QuestionText: "what is rag?"}})

	registry := testRegistry(t, nil)

	eval, err := h.store.Create(context.Background(), evaluation.CreateRequest{
		DatasetID: dsID, WorkspaceID: wsID,
		CandidateModels: []models.CandidateModel{{Provider: "nonexistent-provider", Model: "m"}},
		JudgeModel:      models.CandidateModel{Provider: "nonexistent-provider", Model: "m"},
		Settings:        models.EvaluationSettings{TopK: 5, MaxTokens: 256},
	})
	require.NoError(t, err)
	evalID, err := uuid.Parse(eval.ID)
	require.NoError(t, err)

	executor := evaluation.NewExecutor(h.store, h.datasets, h.workspaces, h.index, registry)
	executor.Run(context.Background(), evalID)

	got, err := h.store.Get(context.Background(), evalID)
	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestStore_CreateRejectsEmptyCandidateModels(t *testing.T) {
	h := newEvalHarness(t)
	_, dsID := seedWorkspaceAndDataset(t, h, []catalog.QuestionInput{{QuestionText: "q"}})

	_, err := h.store.Create(context.Background(), evaluation.CreateRequest{
		DatasetID: dsID, WorkspaceID: uuid.New(),
		JudgeModel: models.CandidateModel{Provider: "p", Model: "m"},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindInputInvalid))
}

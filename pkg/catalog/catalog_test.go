package catalog_test

import (
	"context"
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
	"github.com/maxwell-labs/ragbench/pkg/database"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

func newTestPool(t *testing.T) (*database.Client, uuid.UUID) {
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

	return client, ownerID
}

func TestWorkspaceService_CreateAndDuplicateName(t *testing.T) {
	client, ownerID := newTestPool(t)
	svc := catalog.NewWorkspaceService(client.Pool())
	ctx := context.Background()

	ws, err := svc.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: ownerID, Name: "docs", EmbeddingProvider: "openai", EmbeddingModel: "text-embedding-3-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ws.ID)
	assert.False(t, ws.Locked())

	_, err = svc.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: ownerID, Name: "docs", EmbeddingProvider: "openai", EmbeddingModel: "text-embedding-3-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindStateConflict))
}

func TestWorkspaceService_RejectsBadOverlap(t *testing.T) {
	client, ownerID := newTestPool(t)
	svc := catalog.NewWorkspaceService(client.Pool())

	_, err := svc.CreateWorkspace(context.Background(), catalog.CreateWorkspaceRequest{
		OwnerID: ownerID, Name: "bad", EmbeddingProvider: "openai", EmbeddingModel: "m",
		ChunkSizeTokens: 100, ChunkOverlapTokens: 100,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindInputInvalid))
}

func TestDocumentService_StatusTransitions(t *testing.T) {
	client, ownerID := newTestPool(t)
	wsSvc := catalog.NewWorkspaceService(client.Pool())
	docSvc := catalog.NewDocumentService(client.Pool())
	ctx := context.Background()

	ws, err := wsSvc.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: ownerID, Name: "ws", EmbeddingProvider: "openai", EmbeddingModel: "m",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	require.NoError(t, err)
	wsID, err := uuid.Parse(ws.ID)
	require.NoError(t, err)

	doc, err := docSvc.CreateDocument(ctx, wsID, "s3://bucket/key", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)
	docID, err := uuid.Parse(doc.ID)
	require.NoError(t, err)

	require.NoError(t, docSvc.MarkProcessing(ctx, docID))
	// A second concurrent MarkProcessing call loses the race.
	err = docSvc.MarkProcessing(ctx, docID)
	assert.True(t, apperrors.Is(err, apperrors.KindStateConflict))

	require.NoError(t, docSvc.MarkCompleted(ctx, docID, 7))
	got, err := docSvc.GetDocument(ctx, wsID, docID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, got.Status)
	assert.Equal(t, 7, got.TotalChunks)
	assert.False(t, got.CanRedrive())
}

func TestDatasetService_AddQuestionsContiguous(t *testing.T) {
	client, ownerID := newTestPool(t)
	wsSvc := catalog.NewWorkspaceService(client.Pool())
	dsSvc := catalog.NewDatasetService(client.Pool())
	ctx := context.Background()

	ws, err := wsSvc.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: ownerID, Name: "ws", EmbeddingProvider: "openai", EmbeddingModel: "m",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	require.NoError(t, err)
	wsID, err := uuid.Parse(ws.ID)
	require.NoError(t, err)

	ds, err := dsSvc.CreateDataset(ctx, wsID, "golden")
	require.NoError(t, err)
	dsID, err := uuid.Parse(ds.ID)
	require.NoError(t, err)

	first, err := dsSvc.AddQuestions(ctx, dsID, []catalog.QuestionInput{
		{QuestionText: "what is rag?"},
		{QuestionText: "what is a chunk?", ExpectedAnswer: "a span of text"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, []int{first[0].QuestionIndex, first[1].QuestionIndex})

	second, err := dsSvc.AddQuestions(ctx, dsID, []catalog.QuestionInput{{QuestionText: "what is an embedding?"}})
	require.NoError(t, err)
	assert.Equal(t, 2, second[0].QuestionIndex)

	all, err := dsSvc.ListQuestions(ctx, dsID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

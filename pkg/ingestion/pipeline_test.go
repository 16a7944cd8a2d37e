package ingestion_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/config"
	"github.com/maxwell-labs/ragbench/pkg/database"
	"github.com/maxwell-labs/ragbench/pkg/ingestion"
	"github.com/maxwell-labs/ragbench/pkg/models"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

type testHarness struct {
	client  *database.Client
	wsSvc   *catalog.WorkspaceService
	docSvc  *catalog.DocumentService
	chunks  *catalog.ChunkService
	index   *vectorindex.PGIndex
	ownerID uuid.UUID
}

func newHarness(t *testing.T) *testHarness {
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

	return &testHarness{
		client:  client,
		wsSvc:   catalog.NewWorkspaceService(client.Pool()),
		docSvc:  catalog.NewDocumentService(client.Pool()),
		chunks:  catalog.NewChunkService(client.Pool()),
		index:   vectorindex.NewPGIndex(client.Pool()),
		ownerID: ownerID,
	}
}

func TestPipeline_HappyPathIngest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ws, err := h.wsSvc.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: h.ownerID, Name: "ws", EmbeddingProvider: "local-bge", EmbeddingModel: "local-bge-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	require.NoError(t, err)
	wsID, err := uuid.Parse(ws.ID)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "doc.txt")
	paragraph := strings.Repeat("retrieval augmented generation combines a retriever with a generator to reduce hallucination. ", 60)
	content := paragraph + "\n\n" + paragraph + "\n\n" + paragraph
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := h.docSvc.CreateDocument(ctx, wsID, path, "text/plain")
	require.NoError(t, err)
	docID, err := uuid.Parse(doc.ID)
	require.NoError(t, err)

	registry := provider.NewRegistry(config.DefaultProviderRegistry(), config.DefaultPricingTable())
	pipeline := ingestion.NewPipeline(h.docSvc, h.chunks, h.index, registry, 64)

	pipeline.Run(ctx, ingestion.WorkspaceSettings{
		WorkspaceID: wsID, EmbeddingProvider: "local-bge", EmbeddingModel: "local-bge-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	}, docID, path, "text/plain")

	got, err := h.docSvc.GetDocument(ctx, wsID, docID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, got.Status)
	assert.Greater(t, got.TotalChunks, 0)

	persistedChunks, err := h.chunks.ListByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, persistedChunks, got.TotalChunks)

	queryVector := make([]float32, 384)
	queryVector[0] = 1
	matches, err := h.index.Query(ctx, wsID, queryVector, got.TotalChunks+5, 0)
	require.NoError(t, err)
	assert.Len(t, matches, got.TotalChunks)
}

func TestPipeline_RedriveWipesPriorPartialOutput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ws, err := h.wsSvc.CreateWorkspace(ctx, catalog.CreateWorkspaceRequest{
		OwnerID: h.ownerID, Name: "ws", EmbeddingProvider: "local-bge", EmbeddingModel: "local-bge-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	})
	require.NoError(t, err)
	wsID, err := uuid.Parse(ws.ID)
	require.NoError(t, err)

	emptyPath := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(emptyPath, []byte("   \n\t  "), 0o644))

	doc, err := h.docSvc.CreateDocument(ctx, wsID, emptyPath, "text/plain")
	require.NoError(t, err)
	docID, err := uuid.Parse(doc.ID)
	require.NoError(t, err)

	registry := provider.NewRegistry(config.DefaultProviderRegistry(), config.DefaultPricingTable())
	pipeline := ingestion.NewPipeline(h.docSvc, h.chunks, h.index, registry, 64)
	settings := ingestion.WorkspaceSettings{
		WorkspaceID: wsID, EmbeddingProvider: "local-bge", EmbeddingModel: "local-bge-small",
		ChunkSizeTokens: 500, ChunkOverlapTokens: 100,
	}

	pipeline.Run(ctx, settings, docID, emptyPath, "text/plain")
	failedDoc, err := h.docSvc.GetDocument(ctx, wsID, docID)
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusFailed, failedDoc.Status)
	assert.NotEmpty(t, failedDoc.ErrorMessage)
	require.True(t, failedDoc.CanRedrive())

	fixedPath := filepath.Join(t.TempDir(), "fixed.txt")
	require.NoError(t, os.WriteFile(fixedPath, []byte("now there is real content to chunk and embed successfully."), 0o644))

	_, err = h.docSvc.Redrive(ctx, wsID, docID)
	require.NoError(t, err)
	pipeline.Run(ctx, settings, docID, fixedPath, "text/plain")

	completedDoc, err := h.docSvc.GetDocument(ctx, wsID, docID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, completedDoc.Status)

	persistedChunks, err := h.chunks.ListByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, persistedChunks, completedDoc.TotalChunks)
}

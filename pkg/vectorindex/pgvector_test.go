package vectorindex_test

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

	"github.com/maxwell-labs/ragbench/pkg/database"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

func newTestIndex(t *testing.T) (*vectorindex.PGIndex, uuid.UUID) {
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
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(pgContainer)
	})

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

	pool := client.Pool()
	var ownerID uuid.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (email, api_key_hash) VALUES ('t@example.com','x') RETURNING id`).Scan(&ownerID))

	var workspaceID uuid.UUID
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO workspaces (owner_id, name, chunk_size_tokens, chunk_overlap_tokens) VALUES ($1,'ws',500,100) RETURNING id`,
		ownerID).Scan(&workspaceID))

	return vectorindex.NewPGIndex(pool), workspaceID
}

func TestPGIndex_UpsertAndQueryOrdering(t *testing.T) {
	idx, workspaceID := newTestIndex(t)
	ctx := context.Background()
	docID := uuid.New()

	records := []vectorindex.Record{
		{ChunkID: uuid.New(), DocumentID: docID, ChunkIndex: 0, Embedding: []float32{1, 0, 0}, TextExcerpt: "a"},
		{ChunkID: uuid.New(), DocumentID: docID, ChunkIndex: 1, Embedding: []float32{0, 1, 0}, TextExcerpt: "b"},
	}
	require.NoError(t, idx.Upsert(ctx, workspaceID, records))

	matches, err := idx.Query(ctx, workspaceID, []float32{1, 0, 0}, 5, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].TextExcerpt)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestPGIndex_DimensionConflict(t *testing.T) {
	idx, workspaceID := newTestIndex(t)
	ctx := context.Background()
	docID := uuid.New()

	require.NoError(t, idx.Upsert(ctx, workspaceID, []vectorindex.Record{
		{ChunkID: uuid.New(), DocumentID: docID, ChunkIndex: 0, Embedding: []float32{1, 0, 0}, TextExcerpt: "a"},
	}))

	err := idx.Upsert(ctx, workspaceID, []vectorindex.Record{
		{ChunkID: uuid.New(), DocumentID: docID, ChunkIndex: 1, Embedding: []float32{1, 0}, TextExcerpt: "b"},
	})
	assert.Error(t, err)
}

func TestPGIndex_DeleteDocument(t *testing.T) {
	idx, workspaceID := newTestIndex(t)
	ctx := context.Background()
	docID := uuid.New()

	require.NoError(t, idx.Upsert(ctx, workspaceID, []vectorindex.Record{
		{ChunkID: uuid.New(), DocumentID: docID, ChunkIndex: 0, Embedding: []float32{1, 0, 0}, TextExcerpt: "a"},
	}))
	require.NoError(t, idx.DeleteDocument(ctx, workspaceID, docID))

	matches, err := idx.Query(ctx, workspaceID, []float32{1, 0, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

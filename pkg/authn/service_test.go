package authn_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/authn"
	"github.com/maxwell-labs/ragbench/pkg/database"
)

func newTestClient(t *testing.T) *database.Client {
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
	return client
}

func TestService_SignupThenAuthenticate(t *testing.T) {
	client := newTestClient(t)
	svc := authn.NewService(client.Pool())
	ctx := context.Background()

	user, key, err := svc.Signup(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	got, err := svc.Authenticate(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestService_AuthenticateRejectsUnknownKey(t *testing.T) {
	client := newTestClient(t)
	svc := authn.NewService(client.Pool())

	_, err := svc.Authenticate(context.Background(), "not-a-real-key")
	assert.True(t, apperrors.Is(err, apperrors.KindInputInvalid))
}

func TestService_SignupRejectsDuplicateEmail(t *testing.T) {
	client := newTestClient(t)
	svc := authn.NewService(client.Pool())
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "bob@example.com")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "bob@example.com")
	assert.True(t, apperrors.Is(err, apperrors.KindStateConflict))
}

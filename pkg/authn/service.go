package authn

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
	"github.com/maxwell-labs/ragbench/pkg/models"
)

// Service manages user signup and API-key authentication against the
// users table.
type Service struct {
	pool *pgxpool.Pool
}

// NewService wraps pool as a Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Signup creates a user and mints its API key, returning the plaintext key
// exactly once.
func (s *Service) Signup(ctx context.Context, email string) (*models.User, string, error) {
	if email == "" {
		return nil, "", apperrors.New(apperrors.KindInputInvalid, "email: required")
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	var u models.User
	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (email, api_key_hash) VALUES ($1, $2)
		RETURNING id, created_at`,
		email, HashAPIKey(key),
	).Scan(&id, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", apperrors.New(apperrors.KindStateConflict, "user %q already exists", email)
		}
		return nil, "", apperrors.Wrap(apperrors.KindInternal, err, "creating user")
	}

	u.ID = id.String()
	u.Email = email
	return &u, key, nil
}

// Authenticate resolves the user owning apiKey, or apperrors.KindInputInvalid
// if the key is unrecognized.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*models.User, error) {
	if apiKey == "" {
		return nil, apperrors.New(apperrors.KindInputInvalid, "missing api key")
	}
	hash := HashAPIKey(apiKey)

	var u models.User
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, created_at FROM users WHERE api_key_hash = $1`, hash,
	).Scan(&id, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindInputInvalid, "invalid api key")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "authenticating api key")
	}
	u.ID = id.String()
	return &u, nil
}

package catalog

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

// DatasetService manages test datasets and their questions (spec §3, §6
// /evaluation/dataset/create and /evaluation/dataset/{id}/questions).
type DatasetService struct {
	pool *pgxpool.Pool
}

// NewDatasetService wraps pool as a DatasetService.
func NewDatasetService(pool *pgxpool.Pool) *DatasetService {
	return &DatasetService{pool: pool}
}

// CreateDataset creates an empty dataset within a workspace.
func (s *DatasetService) CreateDataset(ctx context.Context, workspaceID uuid.UUID, name string) (*models.TestDataset, error) {
	if name == "" {
		return nil, validationError("name: required")
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO test_datasets (workspace_id, name) VALUES ($1, $2) RETURNING id`,
		workspaceID, name,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.New(apperrors.KindStateConflict, "dataset %q already exists in this workspace", name)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "creating dataset")
	}

	return &models.TestDataset{ID: id.String(), WorkspaceID: workspaceID.String(), Name: name}, nil
}

// QuestionInput is one question supplied to AddQuestions.
type QuestionInput struct {
	QuestionText     string
	ExpectedAnswer   string
	ContextReference string
}

// AddQuestions appends questions to a dataset transactionally: either every
// question is persisted with a contiguous, gap-free index appended after
// the dataset's current question count, or none are.
func (s *DatasetService) AddQuestions(ctx context.Context, datasetID uuid.UUID, inputs []QuestionInput) ([]models.TestQuestion, error) {
	if len(inputs) == 0 {
		return nil, validationError("questions: at least one required")
	}
	for i, q := range inputs {
		if q.QuestionText == "" {
			return nil, validationError("questions[%d].question_text: required", i)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "beginning question batch transaction")
	}
	defer tx.Rollback(ctx)

	var nextIndex int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(question_index) + 1, 0) FROM test_questions WHERE dataset_id = $1`,
		datasetID,
	).Scan(&nextIndex); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "loading next question index")
	}

	batch := &pgx.Batch{}
	for i, q := range inputs {
		batch.Queue(`
			INSERT INTO test_questions (dataset_id, question_index, question_text, expected_answer, context_reference)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			datasetID, nextIndex+i, q.QuestionText, q.ExpectedAnswer, q.ContextReference)
	}
	results := tx.SendBatch(ctx, batch)

	out := make([]models.TestQuestion, len(inputs))
	for i, q := range inputs {
		var id uuid.UUID
		if err := results.QueryRow().Scan(&id); err != nil {
			results.Close()
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "inserting question %d", i)
		}
		out[i] = models.TestQuestion{
			ID:               id.String(),
			DatasetID:        datasetID.String(),
			QuestionIndex:    nextIndex + i,
			QuestionText:     q.QuestionText,
			ExpectedAnswer:   q.ExpectedAnswer,
			ContextReference: q.ContextReference,
		}
	}
	if err := results.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "closing question batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "committing question batch transaction")
	}
	return out, nil
}

// ListQuestions returns every question in a dataset ordered by index.
func (s *DatasetService) ListQuestions(ctx context.Context, datasetID uuid.UUID) ([]models.TestQuestion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_index, question_text, expected_answer, context_reference
		FROM test_questions WHERE dataset_id = $1 ORDER BY question_index ASC`, datasetID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "listing questions")
	}
	defer rows.Close()

	var out []models.TestQuestion
	for rows.Next() {
		var q models.TestQuestion
		var id uuid.UUID
		if err := rows.Scan(&id, &q.QuestionIndex, &q.QuestionText, &q.ExpectedAnswer, &q.ContextReference); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "scanning question")
		}
		q.ID = id.String()
		q.DatasetID = datasetID.String()
		out = append(out, q)
	}
	return out, rows.Err()
}

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateGINIndexes creates full-text search GIN indexes on chunk text for
// ad-hoc keyword queries; the service itself never calls it, and retrieval
// uses only the vector index. These are not part
// of the versioned migration files because they are optional query-plan
// accelerators rather than schema-defining changes.
func CreateGINIndexes(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_chunks_text_gin
		ON chunks USING gin(to_tsvector('english', text))`)
	if err != nil {
		return fmt.Errorf("creating chunks text GIN index: %w", err)
	}
	return nil
}

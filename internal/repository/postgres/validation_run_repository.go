package postgres

import (
	"context"
	"fmt"

	"github.com/stagehq/upload-validator/internal/domain"
)

// ValidationRunRepository persists one audit row per processed event.
type ValidationRunRepository struct {
	db *DB
}

func NewValidationRunRepository(db *DB) *ValidationRunRepository {
	return &ValidationRunRepository{db: db}
}

// Record inserts the audit row for a finished workflow run.
func (r *ValidationRunRepository) Record(ctx context.Context, run *domain.ValidationRun) error {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	query := `
		INSERT INTO validation_runs
			(request_id, bucket, object_key, version_id, valid, message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(ctx, query,
		run.RequestID, run.Bucket, run.ObjectKey, run.VersionID,
		run.Valid, run.Message, run.DurationMS)
	if err := row.Scan(&run.ID, &run.CreatedAt); err != nil {
		return fmt.Errorf("failed to record validation run: %w", err)
	}
	return nil
}

// RecentForObject returns the latest audit rows for one bucket/key pair,
// newest first.
func (r *ValidationRunRepository) RecentForObject(ctx context.Context, bucket, key string, limit int) ([]domain.ValidationRun, error) {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if limit < 1 {
		limit = 10
	}

	query := `
		SELECT id, request_id, bucket, object_key, version_id, valid, message, duration_ms, created_at
		FROM validation_runs
		WHERE bucket = $1 AND object_key = $2
		ORDER BY created_at DESC
		LIMIT $3`

	var runs []domain.ValidationRun
	if err := r.db.SelectContext(ctx, &runs, query, bucket, key, limit); err != nil {
		return nil, fmt.Errorf("failed to list validation runs: %w", err)
	}
	return runs, nil
}

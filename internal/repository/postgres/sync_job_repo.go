package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bmmregistration/internal/domain"
)

type syncJobRepository struct {
	DB *sql.DB
}

// NewSyncJobRepository returns the postgres-backed sync job store.
func NewSyncJobRepository(db *sql.DB) domain.SyncJobRepository {
	return &syncJobRepository{
		DB: db,
	}
}

func (r *syncJobRepository) Create(ctx context.Context, job *domain.SyncJob) error {
	query := `
		INSERT INTO sync_jobs (id, event_id, type, source, status, total, processed, errors, skipped, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID, job.EventID, job.Type, job.Source, job.Status,
		job.Total, job.Processed, job.Errors, job.Skipped, job.CreatedAt,
	)
	return err
}

func (r *syncJobRepository) GetByID(ctx context.Context, id string) (*domain.SyncJob, error) {
	query := `
		SELECT id, event_id, type, source, status, total, processed, errors, skipped,
		       started_at, finished_at, created_at
		FROM sync_jobs
		WHERE id = $1
	`
	job := &domain.SyncJob{}
	var startedAt, finishedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.EventID, &job.Type, &job.Source, &job.Status,
		&job.Total, &job.Processed, &job.Errors, &job.Skipped,
		&startedAt, &finishedAt, &job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	return job, nil
}

// MarkRunning claims a PENDING job. The status predicate makes the claim
// exclusive under queue re-delivery.
func (r *syncJobRepository) MarkRunning(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	query := `
		UPDATE sync_jobs
		SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.DB.ExecContext(ctx, query, domain.SyncJobRunning, startedAt, id, domain.SyncJobPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *syncJobRepository) SetTotal(ctx context.Context, id string, total int) error {
	query := `UPDATE sync_jobs SET total = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, total, id)
	return err
}

func (r *syncJobRepository) UpdateProgress(ctx context.Context, id string, processed, errs, skipped int) error {
	query := `UPDATE sync_jobs SET processed = $1, errors = $2, skipped = $3 WHERE id = $4`
	_, err := r.DB.ExecContext(ctx, query, processed, errs, skipped, id)
	return err
}

func (r *syncJobRepository) MarkFinished(ctx context.Context, id string, status domain.SyncJobStatus, finishedAt time.Time) error {
	query := `
		UPDATE sync_jobs
		SET status = $1, finished_at = $2
		WHERE id = $3 AND status = $4
	`
	_, err := r.DB.ExecContext(ctx, query, status, finishedAt, id, domain.SyncJobRunning)
	return err
}

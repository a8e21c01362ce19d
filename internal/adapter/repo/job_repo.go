package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"tourgen/internal/domain"
	"tourgen/internal/infra"
	"tourgen/internal/sqlinline"
)

// JobStorePG implements domain.JobStore on PostgreSQL. Every mutation
// is a single conditional statement, so concurrent writers serialize at
// the storage layer without any in-process locking.
type JobStorePG struct {
	sql infra.SQLExecutor
}

func NewJobStore(sql infra.SQLExecutor) *JobStorePG {
	return &JobStorePG{sql: sql}
}

func (r *JobStorePG) Create(ctx context.Context, job *domain.GenerationJob) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.OwnerID,
		job.SourceAssets,
		job.DurationSeconds,
		job.Quality,
		job.CreditsCharged,
	)
	return err
}

func (r *JobStorePG) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJobForOwner, jobID, ownerID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobStorePG) CompareAndSwapStatus(ctx context.Context, jobID string, expected, next domain.JobStatus, fields domain.TransitionFields) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCompareAndSwapStatus,
		jobID,
		expected,
		next,
		fields.CompletedAt,
		fields.ResultRef,
		fields.ErrorMessage,
	)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStaleStatus
		}
		return nil, err
	}
	return job, nil
}

func (r *JobStorePG) ListActiveOlderThan(ctx context.Context, cutoff time.Time) ([]domain.GenerationJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListActiveOlderThan, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *JobStorePG) MarkRefunded(ctx context.Context, jobID string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkJobRefunded, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	if err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Status,
		&job.SourceAssets,
		&job.DurationSeconds,
		&job.Quality,
		&job.CreditsCharged,
		&job.CreditsRefunded,
		&job.ResultRef,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

var _ domain.JobStore = (*JobStorePG)(nil)

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"product-importer-backend/internal/domains/importer/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the pgx-backed job store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const jobColumns = `id, job_id, status, filename,
       total_rows, processed_rows, created_rows, updated_rows, failed_rows,
       current_step, progress_percentage, error_message, errors, task_id,
       started_at, completed_at, created_at, updated_at`

func scanJob(row pgx.Row) (*model.ImportJob, error) {
	var job model.ImportJob
	var rowErrors []byte

	err := row.Scan(
		&job.ID,
		&job.JobID,
		&job.Status,
		&job.Filename,
		&job.TotalRows,
		&job.ProcessedRows,
		&job.CreatedRows,
		&job.UpdatedRows,
		&job.FailedRows,
		&job.CurrentStep,
		&job.ProgressPercentage,
		&job.ErrorMessage,
		&rowErrors,
		&job.TaskID,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(rowErrors) > 0 {
		if err := json.Unmarshal(rowErrors, &job.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job errors: %w", err)
		}
	}

	return &job, nil
}

func (r *postgresRepository) Create(ctx context.Context, job *model.ImportJob) error {
	query := `
        INSERT INTO jobs (job_id, status, filename, current_step, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `

	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	err := r.pool.QueryRow(ctx, query,
		job.JobID,
		job.Status,
		job.Filename,
		job.CurrentStep,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID)

	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByJobID(ctx context.Context, jobID string) (*model.ImportJob, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return job, nil
}

func (r *postgresRepository) List(ctx context.Context, limit, offset int) ([]*model.ImportJob, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.ImportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, total, nil
}

func (r *postgresRepository) Save(ctx context.Context, job *model.ImportJob) error {
	rowErrors, err := json.Marshal(job.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal job errors: %w", err)
	}

	// The status guard makes terminal states immutable at the store level:
	// an externally cancelled job silently wins over in-flight checkpoints.
	query := `
        UPDATE jobs
        SET status = $1,
            total_rows = $2,
            processed_rows = $3,
            created_rows = $4,
            updated_rows = $5,
            failed_rows = $6,
            current_step = $7,
            progress_percentage = $8,
            error_message = $9,
            errors = $10,
            task_id = $11,
            started_at = $12,
            completed_at = $13,
            updated_at = NOW()
        WHERE job_id = $14
          AND status NOT IN ('completed', 'failed', 'cancelled')
    `

	tag, err := r.pool.Exec(ctx, query,
		job.Status,
		job.TotalRows,
		job.ProcessedRows,
		job.CreatedRows,
		job.UpdatedRows,
		job.FailedRows,
		job.CurrentStep,
		job.ProgressPercentage,
		job.ErrorMessage,
		rowErrors,
		job.TaskID,
		job.StartedAt,
		job.CompletedAt,
		job.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.JobID, err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrJobTerminal
	}

	return nil
}

func (r *postgresRepository) Cancel(ctx context.Context, jobID string) error {
	query := `
        UPDATE jobs
        SET status = 'cancelled', completed_at = NOW(), updated_at = NOW()
        WHERE job_id = $1 AND status IN ('pending', 'processing')
    `

	tag, err := r.pool.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := r.GetByJobID(ctx, jobID)
		if err != nil {
			return err
		}
		if existing == nil {
			return model.ErrJobNotFound
		}
		return model.ErrJobTerminal
	}

	return nil
}

func (r *postgresRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
        DELETE FROM jobs
        WHERE status IN ('completed', 'failed', 'cancelled')
          AND completed_at IS NOT NULL
          AND completed_at < $1
    `

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}

package repository

import (
	"context"
	"time"

	"product-importer-backend/internal/domains/importer/model"
)

// Repository is the durable job store.
// GetByJobID returns (nil, nil) on a miss.
//
// Save persists every mutable field but refuses to touch a job whose stored
// status is already terminal, returning model.ErrJobTerminal instead. That
// guard is how an external cancellation wins against an in-flight import:
// the orchestrator simply stops when a checkpoint write is refused.
type Repository interface {
	Create(ctx context.Context, job *model.ImportJob) error
	GetByJobID(ctx context.Context, jobID string) (*model.ImportJob, error)
	List(ctx context.Context, limit, offset int) ([]*model.ImportJob, int, error)

	Save(ctx context.Context, job *model.ImportJob) error

	// Cancel marks a pending/processing job cancelled. Returns
	// model.ErrJobNotFound if absent, model.ErrJobTerminal if already done.
	Cancel(ctx context.Context, jobID string) error

	// DeleteTerminalOlderThan prunes finished jobs, returning how many rows
	// were removed. Used by the periodic cleanup task.
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/importer/model"
	"product-importer-backend/internal/domains/importer/repository"
	productModel "product-importer-backend/internal/domains/product/model"
	"product-importer-backend/internal/infrastructure/storage"
	"product-importer-backend/internal/shared"
	"product-importer-backend/internal/shared/queue"
	"product-importer-backend/pkg/database"
)

// EventDispatcher fans catalog change events out to webhook subscribers.
// The import pipeline calls it only after the owning batch has committed.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, payload shared.ProductEventPayload)
}

// ImportService owns the CSV import job lifecycle: creating jobs on upload,
// running them on the worker, and serving status reads.
type ImportService struct {
	jobs       repository.Repository
	resolver   *Resolver
	db         database.TxBeginner
	files      storage.FileSource
	publisher  ProgressPublisher
	dispatcher EventDispatcher
	enqueuer   queue.Enqueuer
	batchSize  int
}

func NewImportService(
	jobs repository.Repository,
	resolver *Resolver,
	db database.TxBeginner,
	files storage.FileSource,
	publisher ProgressPublisher,
	dispatcher EventDispatcher,
	enqueuer queue.Enqueuer,
	batchSize int,
) *ImportService {
	return &ImportService{
		jobs:       jobs,
		resolver:   resolver,
		db:         db,
		files:      files,
		publisher:  publisher,
		dispatcher: dispatcher,
		enqueuer:   enqueuer,
		batchSize:  batchSize,
	}
}

// CreateJob registers a pending job for an already stored upload and enqueues
// the background import task. The stored task id is tracing metadata only.
func (s *ImportService) CreateJob(ctx context.Context, filename, fileKey string) (*model.ImportJob, error) {
	job := &model.ImportJob{
		JobID:       uuid.NewString(),
		Status:      model.StatusPending,
		Filename:    filename,
		CurrentStep: "pending",
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(shared.ImportCSVPayload{
		JobID:    job.JobID,
		Filepath: fileKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeImportCSV, payload)
	info, err := s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue import task: %w", err)
	}

	job.TaskID = &info.ID
	if err := s.jobs.Save(ctx, job); err != nil && !errors.Is(err, model.ErrJobTerminal) {
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("failed to store task id on job")
	}

	return job, nil
}

// GetJob returns model.ErrJobNotFound on a miss.
func (s *ImportService) GetJob(ctx context.Context, jobID string) (*model.ImportJob, error) {
	job, err := s.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, model.ErrJobNotFound
	}
	return job, nil
}

func (s *ImportService) ListJobs(ctx context.Context, limit, offset int) ([]*model.ImportJob, int, error) {
	return s.jobs.List(ctx, limit, offset)
}

// CancelJob cancels a pending or processing job. A running import notices at
// its next checkpoint; rows committed before that stay committed.
func (s *ImportService) CancelJob(ctx context.Context, jobID string) error {
	return s.jobs.Cancel(ctx, jobID)
}

// pendingEvent is a catalog change staged until its batch commits.
type pendingEvent struct {
	eventType string
	payload   shared.ProductEventPayload
}

// Run executes one import job end to end. It returns a non-nil error only
// for infrastructure trouble worth a task retry; domain failures (bad file,
// malformed CSV) are recorded on the job and return nil.
func (s *ImportService) Run(ctx context.Context, jobID, fileKey string) error {
	job, err := s.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s: %w", jobID, asynq.SkipRetry)
	}
	if job.Status.IsTerminal() {
		// Cancelled (or otherwise finished) before the worker picked it up.
		log.Info().Str("job_id", jobID).Str("status", string(job.Status)).Msg("skipping terminal job")
		return nil
	}

	now := time.Now().UTC()
	job.Status = model.StatusProcessing
	job.StartedAt = &now
	job.CurrentStep = model.PhaseParsing
	if err := s.jobs.Save(ctx, job); err != nil {
		if errors.Is(err, model.ErrJobTerminal) {
			return nil
		}
		return err
	}

	total, err := s.countDataRows(ctx, fileKey)
	if err != nil {
		var parseErr *csv.ParseError
		switch {
		case errors.Is(err, storage.ErrFileNotFound):
			return s.failJob(ctx, job, NewProgressTracker(0), fmt.Sprintf("File not found: %s", fileKey))
		case errors.Is(err, errInvalidHeader):
			return s.failJob(ctx, job, NewProgressTracker(0), err.Error())
		case errors.As(err, &parseErr):
			return s.failJob(ctx, job, NewProgressTracker(0), fmt.Sprintf("CSV parsing error: %v", err))
		default:
			return s.failJob(ctx, job, NewProgressTracker(0), fmt.Sprintf("Unexpected error: %v", err))
		}
	}

	tracker := NewProgressTracker(total)
	job.CurrentStep = model.PhaseImporting
	tracker.ApplyTo(job)
	if err := s.jobs.Save(ctx, job); err != nil {
		if errors.Is(err, model.ErrJobTerminal) {
			return nil
		}
		return err
	}
	s.publisher.Publish(ctx, tracker.Event(job.JobID, model.PhaseImporting))

	if err := s.importRows(ctx, job, fileKey, tracker); err != nil {
		if errors.Is(err, model.ErrJobTerminal) {
			log.Info().Str("job_id", jobID).Msg("import stopped by external cancellation")
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return s.failJob(ctx, job, tracker, fmt.Sprintf("CSV parsing error: %v", err))
		}
		return s.failJob(ctx, job, tracker, fmt.Sprintf("Unexpected error: %v", err))
	}

	done := time.Now().UTC()
	job.Status = model.StatusCompleted
	job.CurrentStep = model.PhaseCompleted
	job.CompletedAt = &done
	tracker.ApplyTo(job)
	job.ProgressPercentage = 100
	if err := s.jobs.Save(ctx, job); err != nil {
		if errors.Is(err, model.ErrJobTerminal) {
			return nil
		}
		return err
	}

	event := tracker.Event(job.JobID, model.PhaseCompleted)
	event.ProgressPercentage = 100
	s.publisher.Publish(ctx, event)

	log.Info().
		Str("job_id", jobID).
		Int("processed", tracker.Processed()).
		Int("created", job.CreatedRows).
		Int("updated", job.UpdatedRows).
		Int("failed", job.FailedRows).
		Msg("import completed")

	return nil
}

// Header problems are file-level failures: the job fails before any row is
// processed.
var errInvalidHeader = errors.New("invalid CSV header")

// checkHeader requires the exact column names sku and name (case-sensitive).
func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		seen[strings.TrimSpace(col)] = true
	}
	for _, required := range []string{"sku", "name"} {
		if !seen[required] {
			return fmt.Errorf("%w: missing required column %q", errInvalidHeader, required)
		}
	}
	return nil
}

// countDataRows streams the file once to validate the header and learn the
// row total so progress percentages mean something during the import pass.
func (s *ImportService) countDataRows(ctx context.Context, fileKey string) (int, error) {
	f, err := s.files.Open(ctx, fileKey)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: header row is missing", errInvalidHeader)
		}
		return 0, err
	}
	if err := checkHeader(header); err != nil {
		return 0, err
	}

	total := 0
	for {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return 0, err
		}
		total++
	}
}

// importRows is the second pass: validate and upsert every data row, with a
// transactional commit and progress checkpoint every batchSize rows.
// model.ErrJobTerminal propagates out when a checkpoint save is refused.
func (s *ImportService) importRows(ctx context.Context, job *model.ImportJob, fileKey string, tracker *ProgressTracker) error {
	f, err := s.files.Open(ctx, fileKey)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// The header was already validated by the counting pass.
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var (
		tx      pgx.Tx
		inBatch int
		cache   = BatchCache{}
		pending []pendingEvent
	)

	// commit flushes the open batch and writes a durable checkpoint.
	commit := func() error {
		if tx != nil {
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			tx = nil
		}

		// Events only leave the process once their rows are durable.
		for _, ev := range pending {
			s.dispatcher.Dispatch(ctx, ev.eventType, ev.payload)
		}
		pending = pending[:0]
		clear(cache)
		inBatch = 0

		tracker.ApplyTo(job)
		if err := s.jobs.Save(ctx, job); err != nil {
			return err
		}
		// The completion event is the only one allowed to report 100%.
		if tracker.Processed() < tracker.total {
			s.publisher.Publish(ctx, tracker.Event(job.JobID, model.PhaseImporting))
		}
		return nil
	}

	defer func() {
		if tx != nil {
			tx.Rollback(ctx)
		}
	}()

	rowNum := 1 // header is line 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		rowNum++

		raw := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				raw[col] = record[i]
			}
		}

		row, err := ValidateRow(raw)
		if err != nil {
			tracker.Fail(rowNum, err.Error(), strings.TrimSpace(raw["sku"]))
		} else {
			if tx == nil {
				tx, err = s.db.Begin(ctx)
				if err != nil {
					return fmt.Errorf("failed to begin batch: %w", err)
				}
			}

			var (
				outcome Outcome
				product *productModel.Product
			)
			err = database.WithSavepoint(ctx, tx, func(sp pgx.Tx) error {
				var rerr error
				outcome, product, rerr = s.resolver.Resolve(ctx, sp, row, cache)
				return rerr
			})
			if err != nil {
				tracker.Fail(rowNum, fmt.Sprintf("Unexpected error: %v", err), row.SKU)
			} else {
				cache[product.SKUNorm] = product

				eventType := shared.EventProductUpdated
				if outcome == OutcomeCreated {
					eventType = shared.EventProductCreated
					tracker.Created()
				} else {
					tracker.Updated()
				}
				pending = append(pending, pendingEvent{
					eventType: eventType,
					payload: shared.ProductEventPayload{
						ID:          product.ID,
						SKU:         product.SKU,
						Name:        product.Name,
						Description: product.Description,
					},
				})
			}
		}

		inBatch++
		if inBatch >= s.batchSize {
			if err := commit(); err != nil {
				return err
			}
		}
	}

	if inBatch > 0 {
		return commit()
	}
	return nil
}

// failJob marks the job failed and broadcasts the final state. Always returns
// nil: a failed import is a recorded outcome, not a task to retry.
func (s *ImportService) failJob(ctx context.Context, job *model.ImportJob, tracker *ProgressTracker, message string) error {
	done := time.Now().UTC()
	job.Status = model.StatusFailed
	job.ErrorMessage = &message
	job.CompletedAt = &done
	tracker.ApplyTo(job)

	if err := s.jobs.Save(ctx, job); err != nil && !errors.Is(err, model.ErrJobTerminal) {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("failed to persist failed job")
	}

	event := tracker.Event(job.JobID, job.CurrentStep)
	s.publisher.Publish(ctx, event)

	log.Warn().Str("job_id", job.JobID).Str("reason", message).Msg("import failed")
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/importer/model"
)

// progressErrorWindow caps how many row errors ride along on a progress event.
const progressErrorWindow = 10

// ProgressTracker accumulates per-row outcomes for one import run.
// Counters only ever grow; processed is derived so
// processed = created + updated + failed holds by construction.
type ProgressTracker struct {
	total   int
	created int
	updated int
	failed  int
	errors  []model.RowError
}

func NewProgressTracker(totalRows int) *ProgressTracker {
	return &ProgressTracker{total: totalRows}
}

func (t *ProgressTracker) Created() { t.created++ }
func (t *ProgressTracker) Updated() { t.updated++ }

// Fail records one rejected row. Row numbers are file line numbers (data
// starts at 2, after the header).
func (t *ProgressTracker) Fail(row int, reason, sku string) {
	t.failed++
	t.errors = append(t.errors, model.RowError{Row: row, Error: reason, SKU: sku})
}

func (t *ProgressTracker) Processed() int { return t.created + t.updated + t.failed }

func (t *ProgressTracker) Errors() []model.RowError { return t.errors }

// Percentage floors processed/total into 0..100. While the total is still
// unknown (streaming parse has not finished counting) it reports 0 rather
// than guessing.
func (t *ProgressTracker) Percentage() int {
	if t.total <= 0 {
		return 0
	}
	pct := t.Processed() * 100 / t.total
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Event snapshots the tracker into a broadcastable progress event carrying
// only the most recent error window.
func (t *ProgressTracker) Event(jobID, step string) model.ProgressEvent {
	recent := t.errors
	if len(recent) > progressErrorWindow {
		recent = recent[len(recent)-progressErrorWindow:]
	}

	return model.ProgressEvent{
		JobID:              jobID,
		CurrentStep:        step,
		ProcessedRows:      t.Processed(),
		CreatedRows:        t.created,
		UpdatedRows:        t.updated,
		FailedRows:         t.failed,
		TotalRows:          t.total,
		ProgressPercentage: t.Percentage(),
		Errors:             recent,
	}
}

// ApplyTo copies the tracker's counters onto the job record before a
// checkpoint save. The full error list is persisted, not just the window.
func (t *ProgressTracker) ApplyTo(job *model.ImportJob) {
	job.TotalRows = t.total
	job.ProcessedRows = t.Processed()
	job.CreatedRows = t.created
	job.UpdatedRows = t.updated
	job.FailedRows = t.failed
	job.ProgressPercentage = t.Percentage()
	job.Errors = t.errors
}

// ProgressPublisher broadcasts checkpoint snapshots to live listeners.
// Publishing is fire-and-forget: a broken broadcast must never fail a job.
type ProgressPublisher interface {
	Publish(ctx context.Context, event model.ProgressEvent)
}

// RedisProgressPublisher publishes events on the per-job channel
// job:{job_id}:progress. Subscribers that are not listening miss the event;
// the job record remains the durable source of truth.
type RedisProgressPublisher struct {
	client *redis.Client
}

func NewRedisProgressPublisher(client *redis.Client) *RedisProgressPublisher {
	return &RedisProgressPublisher{client: client}
}

func (p *RedisProgressPublisher) Publish(ctx context.Context, event model.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("job_id", event.JobID).Msg("failed to marshal progress event")
		return
	}

	channel := fmt.Sprintf("job:%s:progress", event.JobID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("job_id", event.JobID).Msg("failed to publish progress event")
	}
}

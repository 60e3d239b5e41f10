package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/importer/repository"
	"product-importer-backend/internal/shared"
)

const defaultRetentionDays = 30

// CleanupHandler prunes terminal jobs past their retention window.
// Scheduled daily by the worker's asynq scheduler.
type CleanupHandler struct {
	jobs repository.Repository
}

func NewCleanupHandler(jobs repository.Repository) *CleanupHandler {
	return &CleanupHandler{jobs: jobs}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.CleanupJobsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal CleanupJobs payload")
		payload.OlderThanDays = defaultRetentionDays
	}
	if payload.OlderThanDays <= 0 {
		payload.OlderThanDays = defaultRetentionDays
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -payload.OlderThanDays)
	deleted, err := h.jobs.DeleteTerminalOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Pruned terminal import jobs")

	return nil
}

package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/importer/service"
	"product-importer-backend/internal/shared"
)

// ImportHandler runs one queued CSV import job.
type ImportHandler struct {
	imports *service.ImportService
}

func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

func (h *ImportHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ImportCSVPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ImportCSV payload")
		return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
	}

	log.Info().
		Str("job_id", payload.JobID).
		Str("filepath", payload.Filepath).
		Msg("Starting CSV import")

	return h.imports.Run(ctx, payload.JobID, payload.Filepath)
}

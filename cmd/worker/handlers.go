package main

import (
	"github.com/hibiken/asynq"

	importerJob "product-importer-backend/internal/domains/importer/job"
	webhookJob "product-importer-backend/internal/domains/webhook/job"
	"product-importer-backend/internal/shared"
	"product-importer-backend/pkg/container"
)

// HandlerRegistry holds all job handlers with their dependencies wired.
type HandlerRegistry struct {
	importCSV      *importerJob.ImportHandler
	cleanupJobs    *importerJob.CleanupHandler
	deliverWebhook *webhookJob.DeliverHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		importCSV:      importerJob.NewImportHandler(c.ImportService),
		cleanupJobs:    importerJob.NewCleanupHandler(c.JobRepo),
		deliverWebhook: webhookJob.NewDeliverHandler(c.DeliveryService),
	}
}

// RegisterHandlers binds every task type to its handler.
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeImportCSV, h.importCSV.ProcessTask)
	mux.HandleFunc(shared.TypeCleanupJobs, h.cleanupJobs.ProcessTask)
	mux.HandleFunc(shared.TypeDeliverWebhook, h.deliverWebhook.ProcessTask)
}

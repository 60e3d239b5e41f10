package main

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/shared"
	"product-importer-backend/pkg/container"
)

// asynqScheduler wraps asynq.Scheduler for graceful shutdown.
type asynqScheduler struct {
	*asynq.Scheduler
}

func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		nil,
	)

	// Prune terminal import jobs daily at 03:00.
	payload, err := json.Marshal(shared.CleanupJobsPayload{OlderThanDays: 30})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal cleanup payload")
	}

	task := asynq.NewTask(shared.TypeCleanupJobs, payload)
	if _, err := scheduler.Register("0 3 * * *", task, asynq.Queue(shared.QueueLow)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup schedule")
	}

	log.Info().Msg("Scheduler starting")
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Scheduler failed to start")
	}

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	log.Info().Msg("Scheduler shutting down")
	s.Scheduler.Shutdown()
}

package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/shared"
	"product-importer-backend/pkg/container"
)

// asynqServer wraps asynq.Server for graceful shutdown.
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	backoffCap := time.Duration(c.Config.Webhook.BackoffCapSec) * time.Second

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				shared.QueueHigh:    20,
				shared.QueueDefault: 10,
				shared.QueueLow:     5,
			},
			Concurrency: 20,
			// Exponential backoff: 1s, 2s, 4s, ... up to the cap.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Second << uint(n)
				if delay > backoffCap {
					delay = backoffCap
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error().
					Err(err).
					Str("task_type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("Task failed")
			}),
		},
	)

	go func() {
		log.Info().Msg("Worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Worker failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown stops the server, letting in-flight tasks finish.
func (s *asynqServer) Shutdown() {
	log.Info().Msg("Worker shutting down")
	s.Server.Shutdown()
}

package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// Enqueuer is the slice of asynq.Client the services depend on.
// Production wires the real client; tests wire an inline implementation that
// either records tasks or executes them synchronously, so pipeline code never
// knows whether execution is deferred.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

var _ Enqueuer = (*asynq.Client)(nil)

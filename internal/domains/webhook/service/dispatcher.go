package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/webhook/model"
	"product-importer-backend/internal/domains/webhook/repository"
	"product-importer-backend/internal/shared"
	"product-importer-backend/internal/shared/queue"
	pkgcache "product-importer-backend/pkg/cache"
)

const (
	subscriberCacheKeyPattern = "webhooks:subscribers:*"
	subscriberCacheTTL        = 30 * time.Second
)

// Dispatcher fans catalog events out to subscribed webhooks by enqueueing one
// independent delivery task per matching subscription. Dispatch never fails
// the caller: lookup and enqueue errors are logged and dropped, so a broken
// queue can never roll back or block the catalog mutation that fired the
// event.
type Dispatcher struct {
	repo        repository.Repository
	cache       pkgcache.Cache
	enqueuer    queue.Enqueuer
	maxAttempts int
}

func NewDispatcher(repo repository.Repository, cache pkgcache.Cache, enqueuer queue.Enqueuer, maxAttempts int) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		cache:       cache,
		enqueuer:    enqueuer,
		maxAttempts: maxAttempts,
	}
}

// Dispatch schedules one delivery per enabled subscription listening for
// eventType.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload shared.ProductEventPayload) {
	subscribers, err := d.subscribers(ctx, eventType)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to look up webhook subscribers")
		return
	}

	if len(subscribers) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to marshal event payload")
		return
	}

	for _, w := range subscribers {
		taskPayload, err := json.Marshal(shared.DeliverWebhookPayload{
			WebhookID: w.ID,
			EventType: eventType,
			Payload:   data,
		})
		if err != nil {
			log.Warn().Err(err).Int64("webhook_id", w.ID).Msg("Failed to marshal delivery payload")
			continue
		}

		task := asynq.NewTask(shared.TypeDeliverWebhook, taskPayload)

		// MaxRetry is attempts-1: the first run plus N retries.
		_, err = d.enqueuer.EnqueueContext(ctx, task,
			asynq.Queue(shared.QueueDefault),
			asynq.MaxRetry(d.maxAttempts-1),
		)
		if err != nil {
			log.Warn().
				Err(err).
				Int64("webhook_id", w.ID).
				Str("event_type", eventType).
				Msg("Failed to enqueue webhook delivery")
			continue
		}

		log.Debug().
			Int64("webhook_id", w.ID).
			Str("event_type", eventType).
			Msg("Webhook delivery enqueued")
	}
}

// subscribers returns the enabled webhooks listening for eventType,
// served from a short-lived cache to keep the dispatcher off the database
// during large imports.
func (d *Dispatcher) subscribers(ctx context.Context, eventType string) ([]*model.Webhook, error) {
	key := fmt.Sprintf("webhooks:subscribers:%s", eventType)

	var cached []*model.Webhook
	found, err := d.cache.Get(ctx, key, &cached)
	if err != nil {
		// Cache trouble falls through to the database.
		log.Debug().Err(err).Str("event_type", eventType).Msg("Subscriber cache read failed")
	}
	if found {
		return cached, nil
	}

	subscribers, err := d.repo.ListEnabledByEventType(ctx, eventType)
	if err != nil {
		return nil, err
	}

	if err := d.cache.Set(ctx, key, subscribers, subscriberCacheTTL); err != nil {
		log.Debug().Err(err).Str("event_type", eventType).Msg("Subscriber cache write failed")
	}

	return subscribers, nil
}

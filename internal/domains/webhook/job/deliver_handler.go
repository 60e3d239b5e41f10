package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/webhook/service"
	"product-importer-backend/internal/shared"
)

// DeliverHandler runs one webhook delivery attempt.
type DeliverHandler struct {
	delivery *service.DeliveryService
}

func NewDeliverHandler(delivery *service.DeliveryService) *DeliverHandler {
	return &DeliverHandler{delivery: delivery}
}

func (h *DeliverHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.DeliverWebhookPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal DeliverWebhook payload")
		return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	log.Info().
		Int64("webhook_id", payload.WebhookID).
		Str("event_type", payload.EventType).
		Int("attempt", retried+1).
		Msg("Delivering webhook")

	return h.delivery.Deliver(ctx, payload.WebhookID, payload.EventType, payload.Payload)
}

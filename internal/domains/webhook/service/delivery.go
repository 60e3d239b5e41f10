package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/webhook/model"
	"product-importer-backend/internal/domains/webhook/repository"
)

// maxErrorBodyBytes bounds how much of a response body is kept as last_error.
const maxErrorBodyBytes = 512

// DeliveryService executes single webhook delivery attempts.
//
// Retry policy: a returned error means "retry me"; asynq owns the attempt
// counter and the worker's RetryDelayFunc computes the backoff. Client-side
// rejections (4xx) wrap asynq.SkipRetry so the task is terminal after one
// attempt. Either way the webhook row records the outcome of the most recent
// attempt.
type DeliveryService struct {
	repo   repository.Repository
	client *http.Client
}

func NewDeliveryService(repo repository.Repository, timeout time.Duration) *DeliveryService {
	return &DeliveryService{
		repo: repo,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// deliveryBody is the JSON body POSTed to the subscriber.
type deliveryBody struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Deliver POSTs {event, data} to the subscription's URL and records the outcome.
func (s *DeliveryService) Deliver(ctx context.Context, webhookID int64, eventType string, payload json.RawMessage) error {
	w, err := s.repo.GetByID(ctx, webhookID)
	if err != nil {
		return fmt.Errorf("load webhook %d: %w", webhookID, err)
	}

	// Deleted or disabled since dispatch: the task is a no-op.
	if w == nil || !w.Enabled {
		log.Debug().Int64("webhook_id", webhookID).Msg("Skipping delivery for missing or disabled webhook")
		return nil
	}

	body, err := json.Marshal(deliveryBody{Event: eventType, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal delivery body: %w", asynq.SkipRetry)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		s.record(ctx, webhookID, model.DeliveryResult{
			Error: ptr(fmt.Sprintf("invalid request: %v", err)),
			At:    time.Now().UTC(),
		})
		return fmt.Errorf("invalid webhook URL %q: %v: %w", w.URL, err, asynq.SkipRetry)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		// Network-level failure (connect error, timeout): retryable.
		s.record(ctx, webhookID, model.DeliveryResult{
			Error: ptr(err.Error()),
			At:    time.Now().UTC(),
		})
		return fmt.Errorf("webhook %d delivery to %s failed: %w", webhookID, w.URL, err)
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	result := model.DeliveryResult{
		Status:     ptr(resp.StatusCode),
		DurationMs: ptr(elapsed),
		At:         time.Now().UTC(),
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		s.record(ctx, webhookID, result)
		log.Info().
			Int64("webhook_id", webhookID).
			Str("event_type", eventType).
			Int("status", resp.StatusCode).
			Int64("duration_ms", elapsed).
			Msg("Webhook delivered")
		return nil

	case resp.StatusCode >= 500:
		// Server-side failure: retryable, same as a network error.
		result.Error = ptr(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(snippet)))
		s.record(ctx, webhookID, result)
		return fmt.Errorf("webhook %d delivery to %s returned HTTP %d", webhookID, w.URL, resp.StatusCode)

	default:
		// 4xx and anything else client-side: terminal, no retry.
		result.Error = ptr(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(snippet)))
		s.record(ctx, webhookID, result)
		return fmt.Errorf("webhook %d delivery to %s rejected with HTTP %d: %w",
			webhookID, w.URL, resp.StatusCode, asynq.SkipRetry)
	}
}

// record persists bookkeeping for the attempt; failures only lose visibility.
func (s *DeliveryService) record(ctx context.Context, webhookID int64, result model.DeliveryResult) {
	if err := s.repo.UpdateDeliveryResult(ctx, webhookID, result); err != nil {
		log.Warn().Err(err).Int64("webhook_id", webhookID).Msg("Failed to record delivery result")
	}
}

func ptr[T any](v T) *T {
	return &v
}

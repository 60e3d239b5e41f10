package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"product-importer-backend/internal/domains/webhook/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the pgx-backed subscription store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const webhookColumns = `id, url, event_types, enabled,
       last_triggered_at, last_response_status, last_response_time_ms, last_error,
       created_at, updated_at`

func scanWebhook(row pgx.Row) (*model.Webhook, error) {
	var w model.Webhook
	var eventTypes []byte

	err := row.Scan(
		&w.ID,
		&w.URL,
		&eventTypes,
		&w.Enabled,
		&w.LastTriggeredAt,
		&w.LastResponseStatus,
		&w.LastResponseTimeMs,
		&w.LastError,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(eventTypes) > 0 {
		if err := json.Unmarshal(eventTypes, &w.EventTypes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event_types: %w", err)
		}
	}

	return &w, nil
}

func (r *postgresRepository) Create(ctx context.Context, w *model.Webhook) error {
	eventTypes, err := json.Marshal(w.EventTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal event_types: %w", err)
	}

	query := `
        INSERT INTO webhooks (url, event_types, enabled, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	err = r.pool.QueryRow(ctx, query, w.URL, eventTypes, w.Enabled, w.CreatedAt, w.UpdatedAt).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`

	w, err := scanWebhook(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook %d: %w", id, err)
	}
	return w, nil
}

func (r *postgresRepository) List(ctx context.Context, limit, offset int) ([]*model.Webhook, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webhooks`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count webhooks: %w", err)
	}

	query := `SELECT ` + webhookColumns + ` FROM webhooks ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*model.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate webhooks: %w", err)
	}

	return webhooks, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, w *model.Webhook) error {
	eventTypes, err := json.Marshal(w.EventTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal event_types: %w", err)
	}

	query := `
        UPDATE webhooks
        SET url = $1, event_types = $2, enabled = $3, updated_at = $4
        WHERE id = $5
    `

	w.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, query, w.URL, eventTypes, w.Enabled, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update webhook %d: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrWebhookNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrWebhookNotFound
	}
	return nil
}

func (r *postgresRepository) ListEnabledByEventType(ctx context.Context, eventType string) ([]*model.Webhook, error) {
	// event_types is a JSONB array of strings; @> checks membership.
	query := `SELECT ` + webhookColumns + ` FROM webhooks
        WHERE enabled = true AND event_types @> $1`

	needle, err := json.Marshal([]string{eventType})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event type: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, needle)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks for %q: %w", eventType, err)
	}
	defer rows.Close()

	var webhooks []*model.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhooks: %w", err)
	}

	return webhooks, nil
}

func (r *postgresRepository) UpdateDeliveryResult(ctx context.Context, id int64, result model.DeliveryResult) error {
	query := `
        UPDATE webhooks
        SET last_triggered_at = $1,
            last_response_status = $2,
            last_response_time_ms = $3,
            last_error = $4,
            updated_at = NOW()
        WHERE id = $5
    `

	_, err := r.pool.Exec(ctx, query, result.At, result.Status, result.DurationMs, result.Error, id)
	if err != nil {
		return fmt.Errorf("failed to update delivery result for webhook %d: %w", id, err)
	}

	return nil
}

package repository

import (
	"context"

	"product-importer-backend/internal/domains/webhook/model"
)

// Repository is the subscription store.
// GetByID returns (nil, nil) on a miss.
type Repository interface {
	Create(ctx context.Context, w *model.Webhook) error
	GetByID(ctx context.Context, id int64) (*model.Webhook, error)
	List(ctx context.Context, limit, offset int) ([]*model.Webhook, int, error)
	Update(ctx context.Context, w *model.Webhook) error
	Delete(ctx context.Context, id int64) error

	// ListEnabledByEventType returns enabled webhooks whose event-type set
	// contains eventType. Read path of the dispatcher.
	ListEnabledByEventType(ctx context.Context, eventType string) ([]*model.Webhook, error)

	// UpdateDeliveryResult overwrites the last-attempt bookkeeping fields.
	UpdateDeliveryResult(ctx context.Context, id int64, result model.DeliveryResult) error
}

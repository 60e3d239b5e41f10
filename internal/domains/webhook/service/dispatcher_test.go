package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-importer-backend/internal/domains/webhook/model"
	"product-importer-backend/internal/shared"
)

func TestDispatchEnqueuesPerSubscriber(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	enqueuer := &stubEnqueuer{}
	d := NewDispatcher(repo, newMemCache(), enqueuer, 5)

	sub1 := &model.Webhook{URL: "https://a.example/hook", EventTypes: []string{shared.EventProductCreated}, Enabled: true}
	sub2 := &model.Webhook{URL: "https://b.example/hook", EventTypes: []string{shared.EventProductCreated, shared.EventProductUpdated}, Enabled: true}
	other := &model.Webhook{URL: "https://c.example/hook", EventTypes: []string{shared.EventProductDeleted}, Enabled: true}
	disabled := &model.Webhook{URL: "https://d.example/hook", EventTypes: []string{shared.EventProductCreated}, Enabled: false}
	for _, w := range []*model.Webhook{sub1, sub2, other, disabled} {
		require.NoError(t, repo.Create(ctx, w))
	}

	payload := shared.ProductEventPayload{ID: 1, SKU: "PROD-001", Name: "Product 1"}
	d.Dispatch(ctx, shared.EventProductCreated, payload)

	tasks := enqueuer.all()
	require.Len(t, tasks, 2)

	var ids []int64
	for _, et := range tasks {
		assert.Equal(t, shared.TypeDeliverWebhook, et.task.Type())

		var p shared.DeliverWebhookPayload
		require.NoError(t, json.Unmarshal(et.task.Payload(), &p))
		assert.Equal(t, shared.EventProductCreated, p.EventType)
		ids = append(ids, p.WebhookID)

		// 5 total attempts: the first run plus 4 retries.
		var sawMaxRetry bool
		for _, opt := range et.opts {
			if opt.Type() == asynq.MaxRetryOpt {
				sawMaxRetry = true
				assert.Equal(t, 4, opt.Value().(int))
			}
		}
		assert.True(t, sawMaxRetry)
	}
	assert.ElementsMatch(t, []int64{sub1.ID, sub2.ID}, ids)
}

func TestDispatchNoSubscribersNoTasks(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	d := NewDispatcher(newFakeRepo(), newMemCache(), enqueuer, 5)

	d.Dispatch(context.Background(), shared.EventProductDeleted, shared.ProductEventPayload{ID: 1})
	assert.Empty(t, enqueuer.all())
}

func TestDispatchEnqueueFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	require.NoError(t, repo.Create(ctx, &model.Webhook{
		URL: "https://a.example/hook", EventTypes: []string{shared.EventProductCreated}, Enabled: true,
	}))

	enqueuer := &stubEnqueuer{err: errors.New("broker down")}
	d := NewDispatcher(repo, newMemCache(), enqueuer, 5)

	// Must not panic or propagate.
	d.Dispatch(ctx, shared.EventProductCreated, shared.ProductEventPayload{ID: 1})
}

func TestDispatchUsesSubscriberCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := newMemCache()
	enqueuer := &stubEnqueuer{}
	d := NewDispatcher(repo, cache, enqueuer, 5)

	w := &model.Webhook{URL: "https://a.example/hook", EventTypes: []string{shared.EventProductCreated}, Enabled: true}
	require.NoError(t, repo.Create(ctx, w))

	d.Dispatch(ctx, shared.EventProductCreated, shared.ProductEventPayload{ID: 1})
	require.Len(t, enqueuer.all(), 1)

	// Subscriber list is now cached: a store-level delete is invisible
	// until the cache entry is invalidated.
	require.NoError(t, repo.Delete(ctx, w.ID))
	d.Dispatch(ctx, shared.EventProductCreated, shared.ProductEventPayload{ID: 2})
	assert.Len(t, enqueuer.all(), 2)

	require.NoError(t, cache.DeletePattern(ctx, subscriberCacheKeyPattern))
	d.Dispatch(ctx, shared.EventProductCreated, shared.ProductEventPayload{ID: 3})
	assert.Len(t, enqueuer.all(), 2)
}

func TestWebhookServiceCRUDInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cache := newMemCache()
	svc := NewWebhookService(repo, cache)

	w, err := svc.Create(ctx, model.CreateWebhookRequest{
		URL:        "https://a.example/hook",
		EventTypes: []string{shared.EventProductCreated},
	})
	require.NoError(t, err)
	assert.True(t, w.Enabled)

	// Warm the subscriber cache, then mutate: the cache must be dropped.
	enqueuer := &stubEnqueuer{}
	d := NewDispatcher(repo, cache, enqueuer, 5)
	d.Dispatch(ctx, shared.EventProductCreated, shared.ProductEventPayload{ID: 1})
	require.Len(t, enqueuer.all(), 1)

	enabled := false
	_, err = svc.Update(ctx, w.ID, model.UpdateWebhookRequest{Enabled: &enabled})
	require.NoError(t, err)

	d.Dispatch(ctx, shared.EventProductCreated, shared.ProductEventPayload{ID: 2})
	assert.Len(t, enqueuer.all(), 1)

	require.NoError(t, svc.Delete(ctx, w.ID))
	_, err = svc.GetByID(ctx, w.ID)
	assert.ErrorIs(t, err, model.ErrWebhookNotFound)
}

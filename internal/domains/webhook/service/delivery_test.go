package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-importer-backend/internal/domains/webhook/model"
	"product-importer-backend/internal/shared"
)

func seedWebhook(t *testing.T, repo *fakeRepo, url string, enabled bool) *model.Webhook {
	t.Helper()
	w := &model.Webhook{
		URL:        url,
		EventTypes: []string{shared.EventProductCreated},
		Enabled:    enabled,
	}
	require.NoError(t, repo.Create(context.Background(), w))
	return w
}

func TestDeliverSuccess(t *testing.T) {
	var got deliveryBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := newFakeRepo()
	w := seedWebhook(t, repo, srv.URL, true)
	delivery := NewDeliveryService(repo, 2*time.Second)

	payload := json.RawMessage(`{"id":1,"sku":"PROD-001"}`)
	err := delivery.Deliver(context.Background(), w.ID, shared.EventProductCreated, payload)
	require.NoError(t, err)

	assert.Equal(t, shared.EventProductCreated, got.Event)
	assert.JSONEq(t, string(payload), string(got.Data))

	stored, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastResponseStatus)
	assert.Equal(t, http.StatusOK, *stored.LastResponseStatus)
	assert.NotNil(t, stored.LastResponseTimeMs)
	assert.Nil(t, stored.LastError)
	assert.NotNil(t, stored.LastTriggeredAt)
}

func TestDeliverServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	repo := newFakeRepo()
	w := seedWebhook(t, repo, srv.URL, true)
	delivery := NewDeliveryService(repo, 2*time.Second)

	err := delivery.Deliver(context.Background(), w.ID, shared.EventProductCreated, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	stored, _ := repo.GetByID(context.Background(), w.ID)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "HTTP 503")
}

func TestDeliverClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	repo := newFakeRepo()
	w := seedWebhook(t, repo, srv.URL, true)
	delivery := NewDeliveryService(repo, 2*time.Second)

	err := delivery.Deliver(context.Background(), w.ID, shared.EventProductCreated, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	stored, _ := repo.GetByID(context.Background(), w.ID)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "HTTP 400")
}

func TestDeliverNetworkErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	repo := newFakeRepo()
	w := seedWebhook(t, repo, srv.URL, true)
	delivery := NewDeliveryService(repo, time.Second)

	err := delivery.Deliver(context.Background(), w.ID, shared.EventProductCreated, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	stored, _ := repo.GetByID(context.Background(), w.ID)
	assert.NotNil(t, stored.LastError)
}

func TestDeliverMissingOrDisabledIsNoop(t *testing.T) {
	repo := newFakeRepo()
	delivery := NewDeliveryService(repo, time.Second)

	// Deleted since dispatch.
	err := delivery.Deliver(context.Background(), 404, shared.EventProductCreated, json.RawMessage(`{}`))
	assert.NoError(t, err)

	// Disabled since dispatch.
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hit = true }))
	defer srv.Close()

	w := seedWebhook(t, repo, srv.URL, false)
	err = delivery.Deliver(context.Background(), w.ID, shared.EventProductCreated, json.RawMessage(`{}`))
	assert.NoError(t, err)
	assert.False(t, hit)
}

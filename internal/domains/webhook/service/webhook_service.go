package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/webhook/model"
	"product-importer-backend/internal/domains/webhook/repository"
	pkgcache "product-importer-backend/pkg/cache"
)

// WebhookService exposes subscription CRUD.
type WebhookService interface {
	Create(ctx context.Context, req model.CreateWebhookRequest) (*model.Webhook, error)
	GetByID(ctx context.Context, id int64) (*model.Webhook, error)
	List(ctx context.Context, limit, offset int) ([]*model.Webhook, int, error)
	Update(ctx context.Context, id int64, req model.UpdateWebhookRequest) (*model.Webhook, error)
	Delete(ctx context.Context, id int64) error
}

type webhookService struct {
	repo  repository.Repository
	cache pkgcache.Cache
}

func NewWebhookService(repo repository.Repository, cache pkgcache.Cache) WebhookService {
	return &webhookService{
		repo:  repo,
		cache: cache,
	}
}

func (s *webhookService) Create(ctx context.Context, req model.CreateWebhookRequest) (*model.Webhook, error) {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	w := &model.Webhook{
		URL:        strings.TrimSpace(req.URL),
		EventTypes: req.EventTypes,
		Enabled:    enabled,
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}

	log.Info().Int64("webhook_id", w.ID).Str("url", w.URL).Msg("Webhook created")
	s.invalidateSubscriberCache(ctx)

	return w, nil
}

func (s *webhookService) GetByID(ctx context.Context, id int64) (*model.Webhook, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, model.ErrWebhookNotFound
	}
	return w, nil
}

func (s *webhookService) List(ctx context.Context, limit, offset int) ([]*model.Webhook, int, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *webhookService) Update(ctx context.Context, id int64, req model.UpdateWebhookRequest) (*model.Webhook, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, model.ErrWebhookNotFound
	}

	if req.URL != nil {
		w.URL = strings.TrimSpace(*req.URL)
	}
	if req.EventTypes != nil {
		w.EventTypes = req.EventTypes
	}
	if req.Enabled != nil {
		w.Enabled = *req.Enabled
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}

	log.Info().Int64("webhook_id", w.ID).Msg("Webhook updated")
	s.invalidateSubscriberCache(ctx)

	return w, nil
}

func (s *webhookService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("webhook_id", id).Msg("Webhook deleted")
	s.invalidateSubscriberCache(ctx)

	return nil
}

// invalidateSubscriberCache drops the dispatcher's cached subscriber lists.
// The cache has a short TTL anyway, so a failure here only delays visibility.
func (s *webhookService) invalidateSubscriberCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, subscriberCacheKeyPattern); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate webhook subscriber cache")
	}
}

package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"product-importer-backend/internal/domains/product/model"
	"product-importer-backend/internal/domains/product/repository"
	"product-importer-backend/internal/shared"
)

// EventDispatcher notifies webhook subscribers of catalog mutations.
// Dispatch is fire-and-forget: failures are logged by the implementation and
// never surface to the mutation that triggered them.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, payload shared.ProductEventPayload)
}

// ProductService exposes single-record catalog operations.
type ProductService interface {
	Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	Update(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter model.ListProductsFilter) ([]*model.Product, int, error)
}

type productService struct {
	repo       repository.Repository
	dispatcher EventDispatcher
}

func NewProductService(repo repository.Repository, dispatcher EventDispatcher) ProductService {
	return &productService{
		repo:       repo,
		dispatcher: dispatcher,
	}
}

func (s *productService) Create(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	skuNorm := model.NormalizeSKU(req.SKU)

	existing, err := s.repo.FindBySKUNorm(ctx, skuNorm)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.ErrSKUConflict
	}

	p := &model.Product{
		SKU:         strings.TrimSpace(req.SKU),
		SKUNorm:     skuNorm,
		Name:        strings.TrimSpace(req.Name),
		Description: normalizeDescription(req.Description),
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("Product created")
	s.dispatcher.Dispatch(ctx, shared.EventProductCreated, eventPayload(p))

	return p, nil
}

func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

func (s *productService) Update(ctx context.Context, id int64, req model.UpdateProductRequest) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = normalizeDescription(req.Description)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("Product updated")
	s.dispatcher.Dispatch(ctx, shared.EventProductUpdated, eventPayload(p))

	return p, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	// Capture the payload before the row disappears.
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return model.ErrProductNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("product_id", id).Str("sku", p.SKU).Msg("Product deleted")
	s.dispatcher.Dispatch(ctx, shared.EventProductDeleted, eventPayload(p))

	return nil
}

func (s *productService) List(ctx context.Context, filter model.ListProductsFilter) ([]*model.Product, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// normalizeDescription trims and collapses empty descriptions to absent.
func normalizeDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func eventPayload(p *model.Product) shared.ProductEventPayload {
	return shared.ProductEventPayload{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
	}
}

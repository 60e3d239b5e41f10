package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	productModel "product-importer-backend/internal/domains/product/model"
	productRepo "product-importer-backend/internal/domains/product/repository"
)

// Outcome classifies what a resolved row did to the catalog.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
)

// BatchCache maps normalized SKU → entry staged in the current uncommitted
// batch. It is job-scoped, owned by the orchestrator, and cleared after every
// durable commit so later duplicates re-resolve against the store.
type BatchCache map[string]*productModel.Product

// Resolver decides create vs. update for one validated row.
//
// Lookup order matters: the same SKU can repeat within one batch window
// before anything is flushed, so the in-memory cache is authoritative first
// and the durable store second. Last row wins either way.
type Resolver struct {
	products productRepo.Repository
}

func NewResolver(products productRepo.Repository) *Resolver {
	return &Resolver{products: products}
}

// Resolve upserts row inside tx. On OutcomeCreated the caller registers the
// returned product in the batch cache once the row's statements are safe;
// registration is not done here so a rolled-back row leaves no trace.
func (r *Resolver) Resolve(ctx context.Context, tx pgx.Tx, row ValidRow, cache BatchCache) (Outcome, *productModel.Product, error) {
	skuNorm := productModel.NormalizeSKU(row.SKU)

	// Tier 1: entry staged earlier in this batch. Latest row wins in place.
	if staged, ok := cache[skuNorm]; ok {
		staged.Name = row.Name
		staged.Description = row.Description
		if err := r.products.UpdateTx(ctx, tx, staged); err != nil {
			return OutcomeUpdated, nil, err
		}
		return OutcomeUpdated, staged, nil
	}

	// Tier 2: the durable catalog.
	existing, err := r.products.FindBySKUNormTx(ctx, tx, skuNorm)
	if err != nil {
		return OutcomeUpdated, nil, err
	}

	if existing != nil {
		existing.Name = row.Name
		existing.Description = row.Description
		if err := r.products.UpdateTx(ctx, tx, existing); err != nil {
			return OutcomeUpdated, nil, err
		}
		return OutcomeUpdated, existing, nil
	}

	p := &productModel.Product{
		SKU:         row.SKU, // original casing preserved for display
		SKUNorm:     skuNorm,
		Name:        row.Name,
		Description: row.Description,
	}
	if err := r.products.InsertTx(ctx, tx, p); err != nil {
		return OutcomeCreated, nil, err
	}

	return OutcomeCreated, p, nil
}

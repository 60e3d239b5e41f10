package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"product-importer-backend/internal/domains/product/model"
)

// Repository is the catalog store.
// Find* methods return (nil, nil) on a miss so callers can distinguish
// "not found" from a real error without sentinel comparisons.
// The Tx variants run against a caller-owned transaction; the import
// pipeline uses them so a whole batch commits atomically.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	FindBySKUNorm(ctx context.Context, skuNorm string) (*model.Product, error)
	FindBySKUNormTx(ctx context.Context, tx pgx.Tx, skuNorm string) (*model.Product, error)

	Insert(ctx context.Context, p *model.Product) error
	InsertTx(ctx context.Context, tx pgx.Tx, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	UpdateTx(ctx context.Context, tx pgx.Tx, p *model.Product) error
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter model.ListProductsFilter) ([]*model.Product, int, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"product-importer-backend/internal/domains/product/model"
)

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx,
// so pool-backed and transaction-backed calls reuse the same SQL.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the pgx-backed catalog store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const productColumns = `id, sku, sku_norm, name, description, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.SKUNorm,
		&p.Name,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepository) FindBySKUNorm(ctx context.Context, skuNorm string) (*model.Product, error) {
	return r.findBySKUNorm(ctx, r.pool, skuNorm)
}

func (r *postgresRepository) FindBySKUNormTx(ctx context.Context, tx pgx.Tx, skuNorm string) (*model.Product, error) {
	return r.findBySKUNorm(ctx, tx, skuNorm)
}

func (r *postgresRepository) findBySKUNorm(ctx context.Context, q querier, skuNorm string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku_norm = $1`

	p, err := scanProduct(q.QueryRow(ctx, query, skuNorm))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by sku_norm %q: %w", skuNorm, err)
	}
	return p, nil
}

func (r *postgresRepository) Insert(ctx context.Context, p *model.Product) error {
	return r.insert(ctx, r.pool, p)
}

func (r *postgresRepository) InsertTx(ctx context.Context, tx pgx.Tx, p *model.Product) error {
	return r.insert(ctx, tx, p)
}

func (r *postgresRepository) insert(ctx context.Context, q querier, p *model.Product) error {
	query := `
        INSERT INTO products (sku, sku_norm, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := q.QueryRow(ctx, query,
		p.SKU,
		p.SKUNorm,
		p.Name,
		p.Description,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to insert product %q: %w", p.SKU, err)
	}

	return nil
}

func (r *postgresRepository) Update(ctx context.Context, p *model.Product) error {
	return r.update(ctx, r.pool, p)
}

func (r *postgresRepository) UpdateTx(ctx context.Context, tx pgx.Tx, p *model.Product) error {
	return r.update(ctx, tx, p)
}

func (r *postgresRepository) update(ctx context.Context, q querier, p *model.Product) error {
	query := `
        UPDATE products
        SET name = $1, description = $2, updated_at = $3
        WHERE id = $4
    `

	p.UpdatedAt = time.Now().UTC()

	tag, err := q.Exec(ctx, query, p.Name, p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListProductsFilter) ([]*model.Product, int, error) {
	where := ``
	args := []any{}

	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		if where == "" {
			where = ` WHERE `
		} else {
			where += ` AND `
		}
		args = append(args, "%"+value+"%")
		where += fmt.Sprintf("%s ILIKE $%d", column, len(args))
	}

	addFilter("sku", filter.SKU)
	addFilter("name", filter.Name)
	addFilter("description", filter.Description)

	var total int
	countQuery := `SELECT COUNT(*) FROM products` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

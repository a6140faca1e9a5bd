package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, type, created_at, updated_at`

	insertProductSQL = `INSERT INTO products (name, description, price, type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + productColumns

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY created_at DESC, id DESC`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products WHERE id = $1`

	// clock_timestamp() can repeat within a microsecond; the GREATEST keeps
	// updated_at strictly increasing.
	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, type = $5,
			updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product; the database assigns ID and timestamps.
func (r *ProductRepository) Create(ctx context.Context, f product.Fields) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, insertProductSQL, f.Name, f.Description, f.Price, string(f.Type))
	if err != nil {
		return nil, storeError("create", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, storeError("create", err)
	}
	return &p, nil
}

// FindAll returns all products, newest first.
func (r *ProductRepository) FindAll(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, storeError("list", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, storeError("list", err)
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}

// FindByID returns a single product. A missing row is reported through
// found, not as an error.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*product.Product, bool, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, false, storeError("find", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storeError("find", err)
	}
	return &p, true, nil
}

// Update overwrites the mutable columns of an existing row. Updating a
// missing row fails with a StoreError wrapping pgx.ErrNoRows.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, f product.Fields) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, updateProductSQL, id, f.Name, f.Description, f.Price, string(f.Type))
	if err != nil {
		return nil, storeError("update", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, storeError("update", err)
	}
	return &p, nil
}

// Remove deletes the row. Deleting a missing row fails with a StoreError
// wrapping pgx.ErrNoRows.
func (r *ProductRepository) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return storeError("remove", err)
	}
	if tag.RowsAffected() == 0 {
		return storeError("remove", pgx.ErrNoRows)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p   product.Product
		typ string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &typ, &p.CreatedAt, &p.UpdatedAt)
	p.Type = product.Type(typ)
	return p, err
}

func storeError(op string, err error) error {
	return &product.StoreError{Op: op, Err: err}
}

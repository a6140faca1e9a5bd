// Package memory implements the product repository in process memory.
// Data does not survive a restart; it backs tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

var errNoRow = errors.New("no product with this id")

type record struct {
	product.Product
	seq uint64
}

// ProductRepository is an in-memory product.Repository. Timestamps it
// assigns are strictly increasing, with microsecond precision like
// PostgreSQL.
type ProductRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*record
	seq  uint64
	last time.Time
	now  func() time.Time
}

// NewProductRepository returns an empty repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		rows: make(map[uuid.UUID]*record),
		now:  time.Now,
	}
}

// Create stores a new product with a fresh random ID.
func (r *ProductRepository) Create(_ context.Context, f product.Fields) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	if _, dup := r.rows[id]; dup {
		return nil, &product.StoreError{Op: "create", Err: errors.Errorf("duplicate id %s", id)}
	}

	ts := r.tick()
	r.seq++
	rec := &record{
		Product: product.Product{
			ID:        id,
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		seq: r.seq,
	}
	apply(&rec.Product, f)
	r.rows[id] = rec

	return clone(rec.Product), nil
}

// FindAll returns all products ordered by creation time, newest first.
func (r *ProductRepository) FindAll(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.rows))
	for _, rec := range r.rows {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	products := make([]product.Product, len(recs))
	for i, rec := range recs {
		products[i] = *clone(rec.Product)
	}
	return products, nil
}

// FindByID returns the product with the given ID, if any.
func (r *ProductRepository) FindByID(_ context.Context, id uuid.UUID) (*product.Product, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.rows[id]
	if !ok {
		return nil, false, nil
	}
	return clone(rec.Product), true, nil
}

// Update overwrites the product's fields. Updating a missing product is
// rejected with a StoreError.
func (r *ProductRepository) Update(_ context.Context, id uuid.UUID, f product.Fields) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rows[id]
	if !ok {
		return nil, &product.StoreError{Op: "update", Err: errNoRow}
	}
	apply(&rec.Product, f)
	rec.UpdatedAt = r.tick()

	return clone(rec.Product), nil
}

// Remove deletes the product. Removing a missing product is rejected with
// a StoreError.
func (r *ProductRepository) Remove(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return &product.StoreError{Op: "remove", Err: errNoRow}
	}
	delete(r.rows, id)
	return nil
}

// tick returns the next timestamp. Must be called with mu held.
func (r *ProductRepository) tick() time.Time {
	ts := r.now().UTC().Truncate(time.Microsecond)
	if !ts.After(r.last) {
		ts = r.last.Add(time.Microsecond)
	}
	r.last = ts
	return ts
}

func apply(p *product.Product, f product.Fields) {
	p.Name = f.Name
	p.Description = nil
	if f.Description != nil {
		d := *f.Description
		p.Description = &d
	}
	p.Price = f.Price
	p.Type = f.Type
}

// clone copies p so callers cannot mutate stored state through the
// description pointer.
func clone(p product.Product) *product.Product {
	if p.Description != nil {
		d := *p.Description
		p.Description = &d
	}
	return &p
}

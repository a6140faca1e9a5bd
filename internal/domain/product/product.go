package product

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-catalog/internal/apierr"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = apierr.New(http.StatusNotFound, "Product not found")

// Type is the catalog category of a product.
type Type string

// Supported product types.
const (
	TypeHotCoffee  Type = "HOT_COFFEE"
	TypeColdCoffee Type = "COLD_COFFEE"
	TypeDessert    Type = "DESSERT"
	TypeSnack      Type = "SNACK"
	TypeOther      Type = "OTHER"
)

// Types returns every supported product type in declaration order.
func Types() []Type {
	return []Type{TypeHotCoffee, TypeColdCoffee, TypeDessert, TypeSnack, TypeOther}
}

// Valid reports whether t is one of the supported product types.
func (t Type) Valid() bool {
	switch t {
	case TypeHotCoffee, TypeColdCoffee, TypeDessert, TypeSnack, TypeOther:
		return true
	default:
		return false
	}
}

// Product is a catalog item. ID and timestamps are assigned by the store.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	Type        Type
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fields holds the caller-controlled attributes of a product. Values of
// this type are only produced by the schema package after validation.
type Fields struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Type        Type
}

// StoreError is a persistence failure: connectivity, a rejected write or an
// unexpected store response.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Repository is the persistence gateway for products.
type Repository interface {
	// Create inserts a product and returns it with the store-assigned ID
	// and timestamps.
	Create(ctx context.Context, f Fields) (*Product, error)
	// FindAll returns every product, newest first. An empty store yields an
	// empty slice.
	FindAll(ctx context.Context) ([]Product, error)
	// FindByID reports found=false when no product has the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (p *Product, found bool, err error)
	// Update overwrites the mutable fields of an existing product and
	// refreshes UpdatedAt.
	Update(ctx context.Context, id uuid.UUID, f Fields) (*Product, error)
	// Remove deletes the product with the given ID.
	Remove(ctx context.Context, id uuid.UUID) error
}

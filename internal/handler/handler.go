// Package handler adapts HTTP requests to the product service and renders
// its results and failures as JSON envelopes.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xenking/coffee-catalog/internal/apierr"
	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// ProductService is the subset of product.Service used by the handlers.
type ProductService interface {
	Create(ctx context.Context, f product.Fields) (*product.Product, error)
	List(ctx context.Context) ([]product.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*product.Product, error)
	Update(ctx context.Context, id uuid.UUID, f product.Fields) (*product.Product, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

var _ ProductService = (*product.Service)(nil)

// Handler serves the product endpoints.
type Handler struct {
	products ProductService
}

// NewHandler constructs a Handler backed by the given product service.
func NewHandler(products ProductService) *Handler {
	return &Handler{products: products}
}

// Mount registers the product routes under basePath+"/products", plus
// envelope-shaped responses for unknown routes and methods. Every route is
// composed once here.
func (h *Handler) Mount(r chi.Router, basePath string) {
	r.Route(basePath+"/products", func(r chi.Router) {
		r.Post("/", pipeline(h.createProduct, withBody(schemaCreate)))
		r.Get("/", pipeline(h.listProducts))
		r.Get("/{id}", pipeline(h.getProduct, withID))
		r.Put("/{id}", pipeline(h.updateProduct, withID, withBody(schemaUpdate)))
		r.Delete("/{id}", pipeline(h.removeProduct, withID))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, apierr.New(http.StatusNotFound, "Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, apierr.New(http.StatusMethodNotAllowed, "Method not allowed"))
	})
}

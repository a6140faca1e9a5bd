package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// createProduct handles POST /products.
func (h *Handler) createProduct(w http.ResponseWriter, req *request) error {
	p, err := h.products.Create(req.Context(), req.fields)
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, *p) })
	return nil
}

// listProducts handles GET /products.
func (h *Handler) listProducts(w http.ResponseWriter, req *request) error {
	products, err := h.products.List(req.Context())
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeProducts(e, products) })
	return nil
}

// getProduct handles GET /products/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, req *request) error {
	p, err := h.products.Get(req.Context(), req.id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, *p) })
	return nil
}

// updateProduct handles PUT /products/{id}.
func (h *Handler) updateProduct(w http.ResponseWriter, req *request) error {
	p, err := h.products.Update(req.Context(), req.id, req.fields)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, *p) })
	return nil
}

// removeProduct handles DELETE /products/{id}.
func (h *Handler) removeProduct(w http.ResponseWriter, req *request) error {
	if err := h.products.Remove(req.Context(), req.id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

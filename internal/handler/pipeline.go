package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/schema"
)

// maxBodySize caps request bodies at 100 KiB.
const maxBodySize = 100 << 10

// request carries the values produced by the steps of a pipeline.
type request struct {
	*http.Request

	id     uuid.UUID
	fields product.Fields
}

// step validates or transforms part of the request. A non-nil error stops
// the pipeline.
type step func(req *request) error

// endpoint performs the operation and writes the success response.
type endpoint func(w http.ResponseWriter, req *request) error

// pipeline runs steps in order, then the endpoint. Any error from either is
// handed unchanged to renderError, the only place that writes failures.
func pipeline(end endpoint, steps ...step) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &request{Request: r}
		for _, s := range steps {
			if err := s(req); err != nil {
				renderError(w, r, err)
				return
			}
		}
		if err := end(w, req); err != nil {
			renderError(w, r, err)
		}
	}
}

// withID validates the {id} URL parameter.
func withID(req *request) error {
	id, err := schema.ID(chi.URLParam(req.Request, "id"))
	if err != nil {
		return err
	}
	req.id = id
	return nil
}

type bodySchema func(schema.Raw) (product.Fields, error)

var (
	schemaCreate bodySchema = schema.Create
	schemaUpdate bodySchema = schema.Update
)

// withBody decodes the JSON body and validates it against s.
func withBody(s bodySchema) step {
	return func(req *request) error {
		data, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize+1))
		if err != nil {
			return errors.Wrap(err, "read body")
		}
		if len(data) > maxBodySize {
			return errBodyTooLarge
		}

		raw, err := schema.DecodeRaw(data)
		if err != nil {
			return err
		}
		f, err := s(raw)
		if err != nil {
			return err
		}
		req.fields = f
		return nil
	}
}

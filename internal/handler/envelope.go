package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/coffee-catalog/internal/domain/product"
)

// writeData writes {"success":true,"data":...}.
func writeData(w http.ResponseWriter, status int, data func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("data", data)
	})
	writeJSON(w, status, e.Bytes())
}

// writeFailure writes {"success":false,"message":...,"details":[...]}.
// details is omitted when empty.
func writeFailure(w http.ResponseWriter, f failure) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(false) })
		e.Field("message", func(e *jx.Encoder) { e.Str(f.Message) })
		if len(f.Details) == 0 {
			return
		}
		e.Field("details", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, d := range f.Details {
					e.Obj(func(e *jx.Encoder) {
						e.Field("field", func(e *jx.Encoder) { e.Str(d.Field) })
						e.Field("message", func(e *jx.Encoder) { e.Str(d.Message) })
					})
				}
			})
		})
	})
	writeJSON(w, f.Status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// The status is already sent; a failed write means the client is gone.
	_, _ = w.Write(body)
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID.String()) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) {
			if p.Description == nil {
				e.Null()
				return
			}
			e.Str(*p.Description)
		})
		e.Field("price", func(e *jx.Encoder) { e.Float64(p.Price.InexactFloat64()) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(p.Type)) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(p.CreatedAt.UTC().Format(time.RFC3339Nano)) })
		e.Field("updatedAt", func(e *jx.Encoder) { e.Str(p.UpdatedAt.UTC().Format(time.RFC3339Nano)) })
	})
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			encodeProduct(e, p)
		}
	})
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/storage/memory"
)

// --- Response types ---

type productBody struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Type        string  `json:"type"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// --- Failing service ---

type failingService struct {
	err error
}

func (f failingService) Create(context.Context, product.Fields) (*product.Product, error) {
	return nil, f.err
}

func (f failingService) List(context.Context) ([]product.Product, error) {
	return nil, f.err
}

func (f failingService) Get(context.Context, uuid.UUID) (*product.Product, error) {
	return nil, f.err
}

func (f failingService) Update(context.Context, uuid.UUID, product.Fields) (*product.Product, error) {
	return nil, f.err
}

func (f failingService) Remove(context.Context, uuid.UUID) error {
	return f.err
}

// --- Helpers ---

func newServer(t *testing.T, svc ProductService) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	NewHandler(svc).Mount(r, "")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, err := product.NewService(memory.NewProductRepository(), tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	return newServer(t, svc)
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()

	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func parseTime(t *testing.T, s string) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts
}

// --- Tests ---

func TestProductLifecycle(t *testing.T) {
	srv := newCatalogServer(t)

	// Create.
	resp := do(t, srv, http.MethodPost, "/products",
		`{"name":"Latte","description":"Milky","price":4.5,"type":"HOT_COFFEE"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	created := decode[productBody](t, resp)
	require.True(t, created.Success)
	_, err := uuid.Parse(created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "Latte", created.Data.Name)
	require.NotNil(t, created.Data.Description)
	assert.Equal(t, "Milky", *created.Data.Description)
	assert.Equal(t, 4.5, created.Data.Price)
	assert.Equal(t, "HOT_COFFEE", created.Data.Type)

	path := "/products/" + created.Data.ID

	// Get returns the same record.
	resp = do(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[productBody](t, resp)
	assert.True(t, got.Success)
	assert.Equal(t, created.Data, got.Data)

	// Update price.
	resp = do(t, srv, http.MethodPut, path,
		`{"name":"Latte","description":"Milky","price":5.25,"type":"HOT_COFFEE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[productBody](t, resp)
	assert.Equal(t, 5.25, updated.Data.Price)
	assert.Equal(t, created.Data.ID, updated.Data.ID)
	assert.Equal(t, created.Data.CreatedAt, updated.Data.CreatedAt)
	assert.True(t, parseTime(t, updated.Data.UpdatedAt).After(parseTime(t, created.Data.UpdatedAt)))

	// Get reflects the update.
	resp = do(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, updated.Data, decode[productBody](t, resp).Data)

	// Delete.
	resp = do(t, srv, http.MethodDelete, path, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Gone.
	resp = do(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	gone := decode[productBody](t, resp)
	assert.False(t, gone.Success)
	assert.Equal(t, "Product not found", gone.Message)

	// Second delete is NotFound.
	resp = do(t, srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Update after delete is NotFound.
	resp = do(t, srv, http.MethodPut, path, `{"name":"Latte","price":1,"type":"HOT_COFFEE"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListProducts(t *testing.T) {
	srv := newCatalogServer(t)

	resp := do(t, srv, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decode[[]productBody](t, resp)
	assert.True(t, empty.Success)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)

	for _, name := range []string{"A", "B", "C"} {
		resp := do(t, srv, http.MethodPost, "/products",
			`{"name":"`+name+`","price":2,"type":"SNACK"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = do(t, srv, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]productBody](t, resp)
	require.Len(t, list.Data, 3)
	assert.Equal(t, "C", list.Data[0].Name)
	assert.Equal(t, "B", list.Data[1].Name)
	assert.Equal(t, "A", list.Data[2].Name)
	assert.Nil(t, list.Data[0].Description)
}

func TestCreateProduct_Validation(t *testing.T) {
	srv := newCatalogServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty name", `{"name":"","price":5,"type":"HOT_COFFEE"}`, "name"},
		{"negative price", `{"name":"Latte","price":-1,"type":"HOT_COFFEE"}`, "price"},
		{"unknown type", `{"name":"Latte","price":5,"type":"BAGEL"}`, "type"},
		{"price underflows", `{"name":"X","price":1e-400,"type":"SNACK"}`, "price"},
		{"price overflows", `{"name":"X","price":1e400,"type":"SNACK"}`, "price"},
		{"malformed json", `{"name":`, "body"},
		{"empty body", ``, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/products", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			env := decode[productBody](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "Validation failed", env.Message)
			require.Len(t, env.Details, 1)
			assert.Equal(t, tt.field, env.Details[0].Field)
			assert.NotEmpty(t, env.Details[0].Message)
		})
	}

	// Nothing was stored.
	resp := do(t, srv, http.MethodGet, "/products", "")
	assert.Empty(t, decode[[]productBody](t, resp).Data)
}

func TestInvalidID(t *testing.T) {
	srv := newCatalogServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp := do(t, srv, method, "/products/not-a-uuid", `{"name":"A","price":1,"type":"OTHER"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, method)

		env := decode[productBody](t, resp)
		require.Len(t, env.Details, 1, method)
		assert.Equal(t, "id", env.Details[0].Field, method)
	}
}

func TestInvalidID_VersionAndVariant(t *testing.T) {
	srv := newCatalogServer(t)

	for _, id := range []string{
		"12345678-1234-1234-1234-123456789012",
		"3f2504e0-4f89-01d3-9a0c-0305e82c3301",
	} {
		resp := do(t, srv, http.MethodGet, "/products/"+id, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, id)
		assert.Equal(t, "Validation failed", decode[productBody](t, resp).Message, id)
	}

	resp := do(t, srv, http.MethodGet, "/products/00000000-0000-0000-0000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownID(t *testing.T) {
	srv := newCatalogServer(t)
	path := "/products/" + uuid.NewString()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		resp := do(t, srv, method, path, `{"name":"A","price":1,"type":"OTHER"}`)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, method)
		assert.Equal(t, "Product not found", decode[productBody](t, resp).Message, method)
	}
}

func TestInternalErrorIsMasked(t *testing.T) {
	storeErr := &product.StoreError{Op: "list", Err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}
	srv := newServer(t, failingService{err: storeErr})

	resp := do(t, srv, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	env := decode[productBody](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Message)
	assert.Empty(t, env.Details)
}

func TestValidationRunsBeforeService(t *testing.T) {
	// The service always fails; a validation error must win because the
	// service is never called.
	srv := newServer(t, failingService{err: errors.New("must not be called")})

	resp := do(t, srv, http.MethodPost, "/products", `{"name":"","price":5,"type":"HOT_COFFEE"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	srv := newCatalogServer(t)

	resp := do(t, srv, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Route not found", decode[productBody](t, resp).Message)

	resp = do(t, srv, http.MethodPatch, "/products", "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.False(t, decode[productBody](t, resp).Success)
}

func TestBodyTooLarge(t *testing.T) {
	srv := newCatalogServer(t)

	body := `{"name":"` + strings.Repeat("x", maxBodySize) + `","price":1,"type":"OTHER"}`
	resp := do(t, srv, http.MethodPost, "/products", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

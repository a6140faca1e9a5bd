package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/coffee-catalog/internal/domain/product"

// Service enforces the product lifecycle rules on top of a Repository.
// It keeps no state between calls; every read goes to the repository.
//
// Update and Remove check existence before writing. The check and the write
// are separate repository calls, so concurrent writers to the same ID race
// and the last one wins.
type Service struct {
	repo   Repository
	tracer trace.Tracer
	ops    metric.Int64Counter
}

// NewService creates a product Service backed by repo.
func NewService(repo Repository, tp trace.TracerProvider, mp metric.MeterProvider) (*Service, error) {
	ops, err := mp.Meter(instrumentationName).Int64Counter(
		"catalog.product.operations",
		metric.WithDescription("Product operations by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create operations counter")
	}

	return &Service{
		repo:   repo,
		tracer: tp.Tracer(instrumentationName),
		ops:    ops,
	}, nil
}

// Create stores a new product built from validated fields.
func (s *Service) Create(ctx context.Context, f Fields) (_ *Product, rerr error) {
	ctx, span := s.tracer.Start(ctx, "product.Create",
		trace.WithAttributes(attribute.String("product.type", string(f.Type))),
	)
	defer func() { s.finish(ctx, span, "create", rerr) }()

	p, err := s.repo.Create(ctx, f)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", p.ID.String()))
	return p, nil
}

// List returns every product, newest first.
func (s *Service) List(ctx context.Context) (_ []Product, rerr error) {
	ctx, span := s.tracer.Start(ctx, "product.List")
	defer func() { s.finish(ctx, span, "list", rerr) }()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("product.count", len(products)))
	return products, nil
}

// Get returns the product with the given ID or ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (_ *Product, rerr error) {
	ctx, span := s.start(ctx, "product.Get", id)
	defer func() { s.finish(ctx, span, "get", rerr) }()

	return s.find(ctx, id)
}

// Update replaces the fields of an existing product. It returns ErrNotFound
// without writing when the product does not exist.
func (s *Service) Update(ctx context.Context, id uuid.UUID, f Fields) (_ *Product, rerr error) {
	ctx, span := s.start(ctx, "product.Update", id)
	defer func() { s.finish(ctx, span, "update", rerr) }()

	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, f)
}

// Remove deletes an existing product. It returns ErrNotFound without
// deleting when the product does not exist.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (rerr error) {
	ctx, span := s.start(ctx, "product.Remove", id)
	defer func() { s.finish(ctx, span, "remove", rerr) }()

	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	return s.repo.Remove(ctx, id)
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) start(ctx context.Context, name string, id uuid.UUID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("product.id", id.String())))
}

// finish records the operation outcome and ends the span.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()

	result := "success"
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	default:
		result = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", result),
	))
}

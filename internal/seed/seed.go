// Package seed bulk-loads products into the catalog.
package seed

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/schema"
)

const (
	defaultConcurrency = 4
	bloomFPR           = 0.001
)

// Catalog is the part of product.Service used by the seeder.
type Catalog interface {
	Create(ctx context.Context, f product.Fields) (*product.Product, error)
	List(ctx context.Context) ([]product.Product, error)
}

// Result summarizes a seeding run.
type Result struct {
	Created int
	Skipped int
}

// Seeder imports product records through the catalog service.
type Seeder struct {
	catalog     Catalog
	lg          *zap.Logger
	concurrency int
}

// New creates a Seeder issuing at most concurrency creates at once.
func New(catalog Catalog, lg *zap.Logger, concurrency int) *Seeder {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Seeder{catalog: catalog, lg: lg, concurrency: concurrency}
}

// Open opens a products file, decompressing it when the name ends in ".gz".
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// Run reads a JSON array of products from r and creates the ones whose name
// is not already in the catalog. Every record is validated before anything is
// written; the first invalid record aborts the run.
func (s *Seeder) Run(ctx context.Context, r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, errors.Wrap(err, "read products")
	}
	raws, err := schema.DecodeRawList(data)
	if err != nil {
		return Result{}, errors.Wrap(err, "decode products")
	}

	records := make([]product.Fields, len(raws))
	for i, raw := range raws {
		f, err := schema.Create(raw)
		if err != nil {
			return Result{}, errors.Wrapf(err, "record %d", i)
		}
		records[i] = f
	}

	existing, err := s.catalog.List(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "list existing products")
	}
	s.lg.Info("Loaded catalog",
		zap.Int("existing", len(existing)),
		zap.Int("records", len(records)),
	)

	// A false positive only skips a new product; duplicates are never created.
	seen := bloom.NewWithEstimates(uint(max(len(existing)+len(records), 1)), bloomFPR)
	for _, p := range existing {
		seen.AddString(p.Name)
	}

	var created, skipped atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range records {
		if seen.TestAndAddString(f.Name) {
			skipped.Add(1)
			s.lg.Debug("Skipping duplicate", zap.Int("record", i), zap.String("name", f.Name))
			continue
		}
		g.Go(func() error {
			p, err := s.catalog.Create(ctx, f)
			if err != nil {
				return errors.Wrapf(err, "create record %d (%s)", i, f.Name)
			}
			created.Add(1)
			s.lg.Debug("Created product", zap.Stringer("id", p.ID), zap.String("name", p.Name))
			return nil
		})
	}
	err = g.Wait()

	return Result{Created: int(created.Load()), Skipped: int(skipped.Load())}, err
}

// Command seed-catalog imports products from a JSON file into the catalog
// database, skipping names that already exist.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/seed"
	"github.com/xenking/coffee-catalog/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	ProductsFile string `default:"db/seed/products.json" usage:"Products JSON file, gzip-compressed when it ends in .gz" flag:"products-file"`
	Concurrency  int    `default:"4" usage:"Concurrent inserts" flag:"concurrency"`
	Verbose      bool   `default:"false" usage:"Log every created or skipped product" flag:"verbose"`
}

func main() {
	os.Exit(start(os.Args[1:]))
}

// start runs the seeder and returns the process exit code, so deferred
// cleanup always runs before the process exits.
func start(args []string) int {
	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CATALOG",
		SkipFiles: true,
		Args:      args,
	})
	if err := loader.Load(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 2
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	level := zap.InfoLevel
	if cfg.Verbose {
		level = zap.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	lg, err := zcfg.Build()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}
	defer func() { _ = lg.Sync() }()

	if cfg.DatabaseURL == "" {
		lg.Error("Database URL is required: set --database-url or DATABASE_URL")
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc, err := product.NewService(
		postgres.NewProductRepository(pool),
		otel.GetTracerProvider(),
		otel.GetMeterProvider(),
	)
	if err != nil {
		return errors.Wrap(err, "create product service")
	}

	lg.Info("Reading products", zap.String("path", cfg.ProductsFile))
	r, err := seed.Open(cfg.ProductsFile)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	res, err := seed.New(svc, lg, cfg.Concurrency).Run(ctx, r)
	lg.Info("Seed finished",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	return err
}

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/internal/domain/product"
	"github.com/xenking/coffee-catalog/internal/handler"
	"github.com/xenking/coffee-catalog/internal/storage/memory"
	"github.com/xenking/coffee-catalog/internal/storage/postgres"
	"github.com/xenking/coffee-catalog/pkg/health"
	"github.com/xenking/coffee-catalog/pkg/httpmiddleware"
)

const serviceName = "coffee-catalog"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.String("base_path", cfg.BasePath),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	repo, closeRepo, err := openRepository(ctx, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeRepo()

	products, err := product.NewService(repo, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create product service")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           NewHTTPHandler(ctx, lg, m, cfg, healthSvc, products),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// openRepository selects the product store. For PostgreSQL it also runs the
// migrations and registers a readiness check pinging the pool.
func openRepository(ctx context.Context, cfg *Config, h *health.Health) (product.Repository, func(), error) {
	if cfg.Storage == StorageMemory {
		return memory.NewProductRepository(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	h.AddReadinessCheck("postgres", 5*time.Second, pool.Ping)

	return postgres.NewProductRepository(pool), pool.Close, nil
}

// NewHTTPHandler builds the full request pipeline: outer middlewares, the chi
// router with the health probes and product routes, and per-route logging.
func NewHTTPHandler(
	ctx context.Context,
	lg *zap.Logger,
	m httpmiddleware.Telemetry,
	cfg *Config,
	healthSvc *health.Health,
	products handler.ProductService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(products).Mount(r, cfg.BasePath)

	return httpmiddleware.Wrap(r,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.SecureHeaders(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:     cfg.CORS.Origins,
			Headers:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			Credentials: cfg.CORS.AllowCredentials,
			MaxAge:      86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.Instrument(serviceName, m),
	)
}

// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/inventory-api/internal/core/ports"
	"github.com/ammerola/inventory-api/internal/di"
	"github.com/ammerola/inventory-api/internal/handlers"
	"github.com/ammerola/inventory-api/internal/handlers/middleware"
	"github.com/ammerola/inventory-api/internal/pkg/config"
	"github.com/ammerola/inventory-api/internal/pkg/logger"
	"github.com/ammerola/inventory-api/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

const (
	formMemory       = 8 << 20
	evictionInterval = time.Minute
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	slogger.Info("starting inventory api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, slogger); err != nil {
		slogger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("server shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, slogger *logger.Logger) error {
	log := slogger.Logger

	container, err := di.BuildContainer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := container.Cleanup(); err != nil {
			log.Error("failed to close backends", slog.String("error", err.Error()))
		}
	}()

	var (
		queue     ports.JobQueue
		inspector *asynq.Inspector
	)
	if cfg.Asynq.Enabled {
		log.Info("initializing Asynq client", slog.String("redis_addr", cfg.Asynq.RedisAddr))

		client := asynq.NewClient(workers.RedisOpt(cfg.Asynq))
		defer client.Close()
		queue = workers.NewAsynqQueue(client, cfg.Asynq.RetryMax, log)

		inspector = asynq.NewInspector(workers.RedisOpt(cfg.Asynq))
		defer inspector.Close()
	}

	service := container.NewInventoryService(queue)

	routes := handlers.Routes{
		Inventory: handlers.NewInventoryHandler(service, formMemory, log),
	}

	if cfg.Server.EnableHealthCheck {
		health := handlers.NewHealthHandler(cfg.App.Version, cfg.App.Environment, log)
		for name, check := range container.HealthChecks() {
			health.AddDependency(name, handlers.PingerFunc(check))
		}
		if inspector != nil {
			health.AddDependency("queue", handlers.AsynqPinger(inspector))
		}
		routes.Health = health
	}

	if cfg.Server.EnableBulkRoutes {
		routes.Export = handlers.NewExportHandler(service, log)

		if queue != nil {
			importHandler, err := handlers.NewImportHandler(queue, filepath.Join(cfg.Storage.CacheDir, "imports"), formMemory, log)
			if err != nil {
				return err
			}
			routes.Import = importHandler
		}
	}

	var metrics *middleware.HTTPMetrics
	if cfg.Server.EnableMetrics {
		metrics, err = middleware.NewHTTPMetrics("", prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		routes.Metrics = promhttp.Handler()
	}

	// metrics must wrap the mux directly so the matched pattern is visible
	var mux http.Handler = handlers.NewRouter(routes, log)
	if metrics != nil {
		mux = metrics.Handler(mux)
	}

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(slogger),
		limiter.Handler,
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	mws = append(mws, middleware.MaxBodySize(cfg.MaxUploadBytes()))

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting HTTP server", slog.String("address", server.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		limiter.RunEviction(gctx, evictionInterval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			return server.Close()
		}
		return nil
	})

	return g.Wait()
}

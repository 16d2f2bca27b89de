// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/inventory-api/internal/di"
	"github.com/ammerola/inventory-api/internal/pkg/config"
	"github.com/ammerola/inventory-api/internal/pkg/logger"
	"github.com/ammerola/inventory-api/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, slogger.Logger); err != nil {
		slogger.Error("worker error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	container, err := di.BuildContainer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := container.Cleanup(); err != nil {
			log.Error("failed to close backends", slog.String("error", err.Error()))
		}
	}()

	redisOpt := workers.RedisOpt(cfg.Asynq)

	// Tasks spawned by the worker itself are not queued again
	service := container.NewInventoryService(nil)

	processors := workers.Processors{
		Audit:  workers.NewPhotoAuditProcessor(container.Repository, container.Photos, log),
		Import: workers.NewImportProcessor(service, log),
	}
	sweep := container.LocalPhotos != nil
	if sweep {
		processors.Cleanup = workers.NewCleanupProcessor(container.LocalPhotos, cfg.Storage.TempUploadMaxAge, log)
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    workers.ErrorHandler(log),
		RetryDelayFunc:  workers.ExponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: func(err error) {
			if err != nil {
				log.Error("worker health check failed", slog.String("error", err.Error()))
			}
		},
		Logger: workers.NewAsynqLogger(log),
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: workers.NewAsynqLogger(log),
	})
	if err := workers.RegisterSchedules(scheduler, cfg.Asynq, sweep); err != nil {
		return err
	}

	if err := srv.Start(workers.NewServeMux(processors, log)); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.Bool("temp_sweep", sweep))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		scheduler.Shutdown()
		srv.Shutdown()
		return nil
	})

	return g.Wait()
}

// Package main implements the entry point for the stockq server: the HTTP
// submission surface, the optional in-process analysis worker pool, and the
// periodic reaper that reclaims tasks orphaned by crashed workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketlens/stockq/internal/api"
	"github.com/marketlens/stockq/internal/api/middleware"
	"github.com/marketlens/stockq/internal/config"
	"github.com/marketlens/stockq/internal/domain"
	"github.com/marketlens/stockq/internal/platform/logger"
	"github.com/marketlens/stockq/internal/platform/redisconn"
	"github.com/marketlens/stockq/internal/queue"
	"github.com/marketlens/stockq/internal/queue/redisstore"
	"github.com/marketlens/stockq/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run loads configuration, wires dependencies, and serves until a shutdown
// signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := redisconn.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			appLogger.Error("failed to close redis client", "error", err)
		}
	}()

	service := queue.NewService(
		redisstore.New(client),
		queue.Config{
			UserConcurrentLimit:   cfg.Queue.UserConcurrentLimit,
			GlobalConcurrentLimit: cfg.Queue.GlobalConcurrentLimit,
			VisibilityTimeout:     time.Duration(cfg.Queue.VisibilityTimeoutSeconds) * time.Second,
			MaxRequeues:           cfg.Queue.MaxRequeues,
		},
		nil,
		appLogger,
	)

	slog.Info("queue service configured",
		"user_concurrent_limit", cfg.Queue.UserConcurrentLimit,
		"global_concurrent_limit", cfg.Queue.GlobalConcurrentLimit,
		"visibility_timeout_seconds", cfg.Queue.VisibilityTimeoutSeconds)

	// Reaper: fixed-interval scan for expired visibility leases.
	go runReaper(ctx, service, time.Duration(cfg.Queue.ReapIntervalSeconds)*time.Second, appLogger)

	// Optional in-process workers. The executor here is a placeholder for
	// the real analysis engine, which is wired in by the deployment.
	if cfg.Worker.Count > 0 {
		pool := worker.NewPool(service, analysisExecutor(appLogger), worker.PoolConfig{
			Count:        cfg.Worker.Count,
			PollInterval: time.Duration(cfg.Worker.PollIntervalMs) * time.Millisecond,
			PollJitter:   time.Duration(cfg.Worker.PollJitterMs) * time.Millisecond,
		}, appLogger)
		pool.Start()
		defer pool.Stop()
	}

	router := chi.NewRouter()
	router.Use(middleware.TraceMiddleware)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Mount("/api", api.NewQueueHandler(service).Routes())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// runReaper invokes the orphan scan on a fixed cadence until ctx ends.
func runReaper(ctx context.Context, service *queue.Service, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped, err := service.ReapExpired(ctx)
			if err != nil {
				logger.Error("reaper pass failed", "error", err)
				continue
			}
			if reaped > 0 {
				logger.Info("reaper pass finished", "tasks_reclaimed", reaped)
			}
		}
	}
}

// analysisExecutor returns the worker executor. The actual analysis engine
// is an external collaborator; this stand-in logs and succeeds so the queue
// path can run end to end without it.
func analysisExecutor(logger *slog.Logger) worker.Executor {
	return worker.ExecutorFunc(func(ctx context.Context, task *domain.Task) error {
		logger.Info("executing analysis task",
			"task_id", task.ID,
			"symbol", task.Symbol,
			"user_id", task.UserID)
		return nil
	})
}

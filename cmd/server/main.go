// Package main is the entrypoint for the RepoPersona API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/daehyunkim/repopersona/internal/api"
	"github.com/daehyunkim/repopersona/internal/api/handler"
	mw "github.com/daehyunkim/repopersona/internal/api/middleware"
	"github.com/daehyunkim/repopersona/internal/api/response"
	"github.com/daehyunkim/repopersona/internal/cache"
	"github.com/daehyunkim/repopersona/internal/classify"
	"github.com/daehyunkim/repopersona/internal/config"
	"github.com/daehyunkim/repopersona/internal/github"
	"github.com/daehyunkim/repopersona/internal/notify"
	"github.com/daehyunkim/repopersona/internal/queue"
	"github.com/daehyunkim/repopersona/internal/store"
	"github.com/daehyunkim/repopersona/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create classification provider
	provider, err := classify.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create classification provider: %w", err)
	}
	classifier := classify.NewService(provider, cfg.AI.InferenceTimeout)
	slog.Info("classification provider initialized", "provider", provider.Name())

	// 6. Create remaining collaborators
	pgStore := store.NewPostgresStore(pool)
	repoCache := cache.NewRepoCache(redisCache, cfg.Worker.CacheTTL)
	ghClient := github.NewHTTPClient(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTP.Enabled() {
		notifier = notify.NewSMTPNotifier(cfg.SMTP, cfg.Server.AppURL)
		slog.Info("smtp notifier enabled", "host", cfg.SMTP.Host)
	} else {
		slog.Warn("smtp not configured, result emails disabled")
	}

	// 7. Build the queue and recover jobs that never finished. The queue is
	// in-memory, so pending jobs from a previous process would otherwise be
	// stranded in the store.
	jobQueue := queue.New()
	pending, err := pgStore.ListPendingJobs(ctx)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	for _, job := range pending {
		jobQueue.Enqueue(queue.Entry{ID: job.ID, RepoURL: job.RepoURL, Email: job.Email})
	}
	if len(pending) > 0 {
		slog.Info("requeued pending jobs from previous run", "count", len(pending))
	}

	// 8. Start the analysis worker
	w := worker.New(jobQueue, pgStore, repoCache, ghClient, classifier, notifier,
		cfg.Server.AppURL, cfg.Worker.Interval, logger)
	go w.Run(ctx)

	// 9. Schedule the cache sweep
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Worker.SweepSchedule, func() {
		if n := repoCache.EvictExpired(context.Background()); n > 0 {
			slog.Info("cache sweep evicted expired records", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// 10. Build router with dependencies
	statusDeps := handler.StatusDeps{
		Worker:     w,
		Provider:   provider.Name(),
		GitHub:     ghClient,
		Authorized: cfg.GitHub.Token != "",
	}
	if p, ok := provider.(handler.Pinger); ok {
		statusDeps.Classifier = p
	}

	router := api.NewRouter(api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),

		HealthHandler:  healthHandler(pgStore, redisCache),
		AnalyzeHandler: handler.NewAnalyzeHandler(pgStore, jobQueue),
		JobHandler:     handler.NewJobHandler(pgStore),
		ResultHandler:  handler.NewResultHandler(pgStore),
		StatusHandler:  handler.NewStatusHandler(statusDeps),
	})

	// 11. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cityfix/cityfix/internal/adapters/http/api"
	"github.com/cityfix/cityfix/internal/adapters/http/swagger"
	"github.com/cityfix/cityfix/internal/adapters/repository"
	app "github.com/cityfix/cityfix/internal/app"
	"github.com/cityfix/cityfix/internal/config"
	"github.com/cityfix/cityfix/internal/domain/dedupe"
	"github.com/cityfix/cityfix/internal/domain/model"
	"github.com/cityfix/cityfix/internal/domain/scoring"
	"github.com/cityfix/cityfix/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout          = 10 * time.Second
	writeTimeout         = 10 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
	statsRefreshInterval = 15 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithCalculator(scoring.NewCalculator(
			scoring.WithCompletedWeight(cfg.CompletedWeight),
			scoring.WithViolationWeight(cfg.ViolationWeight),
			scoring.WithRatingWeight(cfg.RatingWeight),
		)),
		app.WithSLAHours(slaWindows(cfg.SLAHours)),
		app.WithLookahead(time.Duration(cfg.AtRiskLookaheadHours) * time.Hour),
		app.WithViolationsLimit(cfg.ViolationsLimit),
		app.WithSubmissionGuard(dedupe.NewInMemoryGuard(dedupe.WithMaxSize(cfg.DedupeSize))),
		app.WithNotificationCapacity(cfg.NotificationCapacity),
	}
	if cfg.NotificationWorkers > 0 {
		opts = append(opts, app.WithNotificationWorkers(cfg.NotificationWorkers))
	} else {
		opts = append(opts, app.WithoutNotifications())
	}

	// An empty DSN selects the built-in memory store inside the service.
	if cfg.PostgresDSN != "" {
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			os.Stderr.WriteString("failed to connect to postgres: " + err.Error() + "\n")
			return
		}
		opts = append(opts, app.WithRequestStore(store), app.WithWorkerStore(store))
		log.Info(ctx, "using postgres store")
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Keep the overdue/worker gauges fresh between sweeps.
	go startStatsRefresher(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API reference under /api-docs.
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithTriggerLimit(cfg.SweepRatePerSecond, cfg.SweepRateBurst))
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// slaWindows converts the configured per-priority hours into durations.
func slaWindows(hours map[string]int) map[model.Priority]time.Duration {
	out := make(map[model.Priority]time.Duration, len(hours))
	for priority, h := range hours {
		out[model.Priority(priority)] = time.Duration(h) * time.Hour
	}
	return out
}

// startStatsRefresher periodically recomputes service stats, which feeds
// the overdue and worker gauges.
func startStatsRefresher(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

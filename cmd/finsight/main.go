package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finsight-hq/finsight/internal/app"
	"github.com/finsight-hq/finsight/internal/dashboard"
	dashboardhttp "github.com/finsight-hq/finsight/internal/dashboard/http"
	"github.com/finsight-hq/finsight/internal/insights"
	"github.com/finsight-hq/finsight/internal/ledger"
	"github.com/finsight-hq/finsight/internal/observability"
	"github.com/finsight-hq/finsight/internal/platform/cache"
	"github.com/finsight-hq/finsight/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, snapshots will recompute on every request", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	benchmarks, err := insights.LoadBenchmarks(cfg.BenchmarksPath)
	if err != nil {
		logger.Error("load benchmarks", slog.String("path", cfg.BenchmarksPath), slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	source := dashboard.NewFileSource(cfg.ReportFixtureDir)
	snapshotCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	dashboardService := dashboard.NewService(source, snapshotCache, logger, benchmarks, cfg.ForecastMonths)
	dashboardHandler := dashboardhttp.NewHandler(logger, dashboardService)

	ledgerRepo := ledger.NewPostgresRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, logger)
	ledgerService.OnWrite(func(ctx context.Context) {
		if err := snapshotCache.Bump(ctx); err != nil {
			logger.Warn("bump snapshot cache", slog.Any("error", err))
		}
	})
	ledgerHandler := ledger.NewHandler(ledgerService, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardHandler,
		LedgerHandler:    ledgerHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

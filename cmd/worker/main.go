package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/finsight-hq/finsight/internal/app"
	"github.com/finsight-hq/finsight/internal/dashboard"
	"github.com/finsight-hq/finsight/internal/insights"
	"github.com/finsight-hq/finsight/internal/platform/cache"
	"github.com/finsight-hq/finsight/internal/platform/db"
	"github.com/finsight-hq/finsight/jobs"
)

// warmupCompanies is the default scope for the nightly warmup until company
// management lands and the list can come from storage.
var warmupCompanies = []int64{1}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	benchmarks, err := insights.LoadBenchmarks(cfg.BenchmarksPath)
	if err != nil {
		logger.Error("load benchmarks", slog.String("path", cfg.BenchmarksPath), slog.Any("error", err))
		os.Exit(1)
	}

	source := dashboard.NewFileSource(cfg.ReportFixtureDir)
	snapshotCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	dashboardService := dashboard.NewService(source, snapshotCache, logger, benchmarks, cfg.ForecastMonths)

	warmupJob := jobs.NewAnalysisWarmupJob(dashboardService, logger, nil)
	integrityJob := jobs.NewLedgerIntegrityJob(pool, logger, nil)

	warmupTask, err := jobs.NewAnalysisWarmupTask(jobs.AnalysisWarmupPayload{CompanyIDs: warmupCompanies})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	integrityTask := jobs.NewLedgerIntegrityTask()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalysisWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskLedgerIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/crestlift/salesdash/internal/app"
	"github.com/crestlift/salesdash/internal/commission"
	"github.com/crestlift/salesdash/internal/observability"
	"github.com/crestlift/salesdash/internal/platform/cache"
	"github.com/crestlift/salesdash/internal/platform/db"
	"github.com/crestlift/salesdash/internal/pricelist"
	"github.com/crestlift/salesdash/internal/qbo"
	"github.com/crestlift/salesdash/internal/reps"
	invsync "github.com/crestlift/salesdash/internal/sync"
	"github.com/crestlift/salesdash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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
		logger.Error("connect database", slog.Any("error", err))
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

	registry := reps.DefaultRegistry()
	bonusEngine := commission.NewBonusEngine(registry, cfg.BonusThreshold)

	priceRepo := pricelist.NewRepository(pool)
	rateRepo := reps.NewRateRepository(pool, cfg.DefaultCommissionRate)
	syncRepo := invsync.NewRepository(pool)
	runLock := invsync.NewRunLock(redisClient, cfg.SyncLockTTL)

	source := qbo.NewClient(cfg.QBOBaseURL, cfg.QBORealmID, cfg.QBOAccessToken, cfg.QBOHTTPTimeout)
	metrics := observability.NewMetrics()

	syncService := invsync.NewService(logger, source, priceRepo, rateRepo, registry, bonusEngine, syncRepo, runLock, metrics)
	syncJob := jobs.NewInvoiceSyncJob(syncService, logger)

	nightlyTask, err := jobs.NewInvoiceSyncTask(jobs.InvoiceSyncPayload{Status: "all"})
	if err != nil {
		logger.Error("build sync task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeInvoiceSync, Handler: syncJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SyncCronSpec, Task: nightlyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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

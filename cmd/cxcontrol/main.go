package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/cxcontrol/cxcontrol/internal/app"
	"github.com/cxcontrol/cxcontrol/internal/auth"
	"github.com/cxcontrol/cxcontrol/internal/business"
	"github.com/cxcontrol/cxcontrol/internal/clients"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/observability"
	"github.com/cxcontrol/cxcontrol/internal/platform/cache"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
	"github.com/cxcontrol/cxcontrol/internal/portal"
	"github.com/cxcontrol/cxcontrol/internal/profile"
	"github.com/cxcontrol/cxcontrol/internal/reports"
	"github.com/cxcontrol/cxcontrol/jobs"
	"github.com/cxcontrol/cxcontrol/report"
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

	keyring := auth.ParseKeyring(cfg.APIKeys)
	if keyring.Empty() {
		logger.Error("no valid API keys configured")
		os.Exit(1)
	}

	store, err := sheets.NewGoogleStore(ctx, logger)
	if err != nil {
		logger.Error("init sheets store", slog.Any("error", err))
		os.Exit(1)
	}

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

	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		logger.Error("init id generator", slog.Any("error", err))
		os.Exit(1)
	}

	validate := validator.New()
	metrics := observability.NewMetrics()

	businessService := business.NewService(business.NewRepository(store, cfg.MasterSheetID), node)
	businessHandler := business.NewHandler(logger, businessService, validate)

	clientsService := clients.NewService(clients.NewRepository(store), node)
	clientsHandler := clients.NewHandler(logger, clientsService, validate)

	profileService := profile.NewService(profile.NewRepository(store))
	profileHandler := profile.NewHandler(logger, profileService)

	ledgerService := ledger.NewService(ledger.NewRepository(store), node).WithMetrics(metrics)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, validate)

	reportClient := report.NewClient(cfg.GotenbergURL)
	if err := reportClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	assembler := reports.NewAssembler(ledgerService, clientsService, profileService)
	pdfRenderer := reports.NewPDFRenderer(reportClient, assembler)
	excelRenderer := reports.NewExcelRenderer(assembler)
	reportsHandler := reports.NewHandler(logger, assembler, pdfRenderer, excelRenderer)

	accessCache := portal.NewAccessCache(redisClient)
	portalService := portal.NewService(clientsService, ledgerService, profileService, accessCache)
	portalHandler := portal.NewHandler(logger, portalService, pdfRenderer)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Keyring:         keyring,
		BusinessService: businessService,
		BusinessHandler: businessHandler,
		ClientsHandler:  clientsHandler,
		LedgerHandler:   ledgerHandler,
		ProfileHandler:  profileHandler,
		PortalHandler:   portalHandler,
		ReportsHandler:  reportsHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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

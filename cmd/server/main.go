package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/cache"
	"github.com/mamadbah2/fishfarm/internal/config"
	"github.com/mamadbah2/fishfarm/internal/repository/mongodb"
	"github.com/mamadbah2/fishfarm/internal/repository/sheets"
	"github.com/mamadbah2/fishfarm/internal/scheduler"
	"github.com/mamadbah2/fishfarm/internal/server/handlers"
	"github.com/mamadbah2/fishfarm/internal/server/router"
	commandsvc "github.com/mamadbah2/fishfarm/internal/service/commands"
	entriessvc "github.com/mamadbah2/fishfarm/internal/service/entries"
	reportingsvc "github.com/mamadbah2/fishfarm/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/fishfarm/internal/service/whatsapp"
	"github.com/mamadbah2/fishfarm/internal/telemetry"
	"github.com/mamadbah2/fishfarm/pkg/clients/farmapi"
	whatsappclient "github.com/mamadbah2/fishfarm/pkg/clients/whatsapp"
	"github.com/mamadbah2/fishfarm/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	metrics := telemetry.New()

	farmClient := farmapi.NewClient(cfg.FarmAPI, farmapi.WithObserver(metrics.ObserveBackendCall))
	if cfg.FarmAPI.Token == "" && cfg.FarmAPI.Username != "" {
		loginCtx, cancel := context.WithTimeout(ctx, cfg.FarmAPI.Timeout)
		_, err := farmClient.Login(loginCtx, cfg.FarmAPI.Username, cfg.FarmAPI.Password)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to log in to farm backend", zap.Error(err))
		}
		baseLogger.Info("logged in to farm backend", zap.String("username", cfg.FarmAPI.Username))
	}

	refCache, err := cache.New(ctx, cfg.Redis, baseLogger.Named("cache.reference"))
	if err != nil {
		baseLogger.Warn("reference cache unavailable, continuing without it", zap.Error(err))
	}
	defer func() { _ = refCache.Close() }()

	entrySvc := entriessvc.NewService(farmClient, refCache, baseLogger.Named("svc.entries"),
		entriessvc.WithRecorder(metrics))

	var store reportingsvc.Store
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	} else {
		baseLogger.Info("mongodb not configured, report snapshots disabled")
	}

	var exporter reportingsvc.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheets.NewReportExporter(sheetsRepo)
	}

	reportingSvc := reportingsvc.NewService(farmClient, store, exporter, baseLogger.Named("svc.reporting"))

	routes := router.Handlers{
		Entries: handlers.NewEntriesHandler(entrySvc, baseLogger.Named("handlers.entries")),
		Reports: handlers.NewReportsHandler(reportingSvc, baseLogger.Named("handlers.reports")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(entrySvc, reportingSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"),
			handlers.WithWebhookRecorder(metrics))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp not configured, command channel disabled")
	}

	engine := router.New(routes, metrics, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

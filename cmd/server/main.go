package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/config"
	"github.com/mamadbah2/bakery/internal/repository"
	"github.com/mamadbah2/bakery/internal/repository/memory"
	"github.com/mamadbah2/bakery/internal/repository/mongodb"
	"github.com/mamadbah2/bakery/internal/repository/sheets"
	"github.com/mamadbah2/bakery/internal/scheduler"
	"github.com/mamadbah2/bakery/internal/server/handlers"
	"github.com/mamadbah2/bakery/internal/server/router"
	"github.com/mamadbah2/bakery/internal/service/aggregation"
	"github.com/mamadbah2/bakery/internal/service/costing"
	"github.com/mamadbah2/bakery/internal/service/forecast"
	"github.com/mamadbah2/bakery/internal/service/production"
	"github.com/mamadbah2/bakery/internal/service/reporting"
	"github.com/mamadbah2/bakery/pkg/clients/weather"
	whatsappclient "github.com/mamadbah2/bakery/pkg/clients/whatsapp"
	"github.com/mamadbah2/bakery/pkg/logger"
)

type store interface {
	repository.RecordStore
	repository.Catalog
	repository.CostStore
	repository.ReportStore
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var db store
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		baseLogger.Warn("using in-memory store, data is lost on restart")
		db = memory.NewStore()
	default:
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		db = mongoRepo
	}

	var sheetRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetRepo = repo
	} else {
		baseLogger.Info("google sheets not configured, production export disabled")
	}

	var weatherProvider forecast.WeatherProvider
	if cfg.Weather.Enabled() {
		weatherProvider = weather.NewClient(cfg.Weather, baseLogger.Named("client.weather"))
		baseLogger.Info("weather lookups enabled", zap.String("base_url", cfg.Weather.BaseURL))
	} else {
		baseLogger.Warn("weather base url missing, dates are treated as dry unless overridden")
	}

	aggregationSvc := aggregation.NewService(db, db, cfg.Production.WastePercentage, baseLogger.Named("svc.aggregation"))
	forecastSvc := forecast.NewService(db, weatherProvider, forecast.EstimatorOptions{
		WindowDays:   cfg.Forecast.WindowDays,
		OutlierSigma: cfg.Forecast.OutlierSigma,
	}, baseLogger.Named("svc.forecast"))
	productionSvc := production.NewService(db, aggregationSvc, baseLogger.Named("svc.production"))
	costingSvc := costing.NewService(db, db, baseLogger.Named("svc.costing"))

	editor := production.NewEditor(productionSvc, cfg.Production.AutosaveDelay, logger.Named(baseLogger, "svc.production.editor"))
	selections := production.NewSelectionRegistry(productionSvc, baseLogger.Named("svc.production.selection"))

	engine := router.New(router.Handlers{
		Production: handlers.NewProductionHandler(productionSvc, editor, selections, aggregationSvc, baseLogger.Named("handlers.production")),
		Forecast:   handlers.NewForecastHandler(forecastSvc, db, baseLogger.Named("handlers.forecast")),
		Costs:      handlers.NewCostHandler(costingSvc, baseLogger.Named("handlers.costs")),
	}, baseLogger.Named("router"))

	reportingSvc := reporting.NewService(aggregationSvc, db, sheetRepo, baseLogger.Named("svc.reporting"))

	var messenger whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		messenger = whatsappclient.NewClient(cfg.WhatsApp)
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, messenger, baseLogger.Named("scheduler"))
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
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
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

	if err := editor.FlushAll(); err != nil {
		baseLogger.Error("failed to flush staged quantities", zap.Error(err))
	}
}

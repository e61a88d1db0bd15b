package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/auth"
	"github.com/esareynor/ffws-jatim-sub001/internal/cache"
	"github.com/esareynor/ffws-jatim-sub001/internal/client/telemetry"
	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/credentials"
	cronrunner "github.com/esareynor/ffws-jatim-sub001/internal/cron"
	"github.com/esareynor/ffws-jatim-sub001/internal/db"
	"github.com/esareynor/ffws-jatim-sub001/internal/geostore"
	"github.com/esareynor/ffws-jatim-sub001/internal/handler"
	"github.com/esareynor/ffws-jatim-sub001/internal/layer"
	"github.com/esareynor/ffws-jatim-sub001/internal/logger"
	"github.com/esareynor/ffws-jatim-sub001/internal/metrics"
	"github.com/esareynor/ffws-jatim-sub001/internal/notify"
	"github.com/esareynor/ffws-jatim-sub001/internal/provision"
	gormrepository "github.com/esareynor/ffws-jatim-sub001/internal/repository/gorm"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"

	_ "github.com/esareynor/ffws-jatim-sub001/docs"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	cfgPath := os.Getenv("FFWS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FFWS_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	loc, err := time.LoadLocation(cfg.DB.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.DB.Timezone), zap.Error(err))
		loc = time.UTC
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	vault := credentials.NewVaultFromEnv(cfg.Credentials.KeyEnv, cfg.Credentials.PrevKeyEnv)
	if !vault.Enabled() {
		logger.Warn("credentials key not set; sources with auth cannot be saved or fetched",
			zap.String("env", cfg.Credentials.KeyEnv))
	}

	geoCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	var cachePinger handler.Pinger
	if p, ok := geoCache.(handler.Pinger); ok {
		cachePinger = p
	}

	publisher, err := notify.New(cfg.MQTT, logger.Named("notify"))
	if err != nil {
		logger.Warn("mqtt connect failed, alerts disabled", zap.Error(err))
		publisher = notify.Nop{}
	}
	defer publisher.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
	}

	clock := clockwork.NewRealClock()
	layerSvc := &service.LayerService{
		Repo: store,
		Assembler: &layer.Assembler{
			Files:    geostore.New(cfg.GeoStore.Root),
			Cache:    geoCache,
			CacheTTL: cfg.Cache.TTL,
			Logger:   logger.Named("layer"),
		},
	}
	dischargeSvc := &service.DischargeService{
		Repo:     store,
		Layers:   layerSvc,
		Metrics:  m,
		Clock:    clock,
		Location: loc,
		Logger:   logger.Named("discharge"),
	}
	ingestSvc := &service.IngestService{
		Repo:                store,
		Fetcher:             telemetry.New(cfg.Ingest, vault, logger.Named("telemetry")),
		Resolver:            &provision.Resolver{Repo: store, Logger: logger.Named("provision")},
		Discharge:           dischargeSvc,
		Settings:            settingsSvc,
		Notifier:            publisher,
		Metrics:             m,
		Clock:               clock,
		Config:              cfg.Ingest,
		AutoDischarge:       cfg.Discharge.AutoCalculate,
		WaterLevelParameter: cfg.Discharge.WaterLevelParameter,
		Location:            loc,
		Logger:              logger.Named("ingest"),
	}
	sourceSvc := &service.SourceService{Repo: store, Vault: vault, Logger: logger.Named("sources")}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORS())
	engine.Use(handler.RequestLogger(logger.Named("http")))
	if cfg.Auth.Enabled {
		engine.Use(auth.RequireBearer(auth.JWT{Secret: []byte(cfg.Auth.JWTSecret)}))
	}
	engine.Use(auth.WriteAudit(logger.Named("audit")))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Cache: cachePinger}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	sourceHandler := &handler.SourceHandler{Sources: sourceSvc, Ingest: ingestSvc}
	sourceHandler.Register(engine)
	mappingHandler := &handler.MappingHandler{Sources: sourceSvc}
	mappingHandler.Register(engine)
	curveHandler := &handler.CurveHandler{Discharge: dischargeSvc, Location: loc}
	curveHandler.Register(engine)
	dischargeHandler := &handler.DischargeHandler{Discharge: dischargeSvc, Layers: layerSvc, Location: loc}
	dischargeHandler.Register(engine)
	predictionHandler := &handler.PredictionHandler{Discharge: dischargeSvc, Location: loc}
	predictionHandler.Register(engine)
	layerHandler := &handler.LayerHandler{Layers: layerSvc}
	layerHandler.Register(engine)
	settingsHandler := &handler.SettingsHandler{Settings: settingsSvc}
	settingsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseCtx, baseCancel := context.WithCancel(ctx)
	defer baseCancel()

	cronRunner := cronrunner.New(logger.Named("cron"), baseCtx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add("fetch_due", cfg.Cron.FetchDue, func(ctx context.Context) {
			if !settingsSvc.IsEnabled(ctx, service.FeatureIngest, true) {
				return
			}
			if _, err := ingestSvc.FetchDue(ctx, service.FetchOptions{}); err != nil {
				logger.Warn("fetch due failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register fetch_due failed", zap.Error(err))
		}

		_, err = cronRunner.Add("recalculate_pending", cfg.Cron.RecalculatePending, func(ctx context.Context) {
			if !settingsSvc.IsEnabled(ctx, service.FeatureDischarge, true) ||
				!settingsSvc.IsEnabled(ctx, service.FeatureRecalculatePending, true) {
				return
			}
			res, err := dischargeSvc.ProcessPending(ctx, cfg.Discharge.WaterLevelParameter, cfg.Discharge.PendingBatchSize)
			if err != nil {
				logger.Warn("recalculate pending failed", zap.Error(err))
				return
			}
			if res.Total > 0 {
				logger.Info("pending discharges processed",
					zap.Int("total", res.Total),
					zap.Int("success", res.Success),
					zap.Int("skipped", res.Skipped),
					zap.Int("failed", res.Failed),
				)
			}
		})
		if err != nil {
			logger.Warn("cron register recalculate_pending failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	baseCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

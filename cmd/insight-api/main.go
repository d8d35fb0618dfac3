package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-insight-api/api/swagger"
	"github.com/noah-isme/student-insight-api/internal/handler"
	"github.com/noah-isme/student-insight-api/internal/middleware"
	"github.com/noah-isme/student-insight-api/internal/normalize"
	"github.com/noah-isme/student-insight-api/internal/repository"
	"github.com/noah-isme/student-insight-api/internal/service"
	"github.com/noah-isme/student-insight-api/pkg/cache"
	"github.com/noah-isme/student-insight-api/pkg/config"
	"github.com/noah-isme/student-insight-api/pkg/csvsource"
	"github.com/noah-isme/student-insight-api/pkg/export"
	"github.com/noah-isme/student-insight-api/pkg/genai"
	"github.com/noah-isme/student-insight-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-insight-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-insight-api/pkg/middleware/requestid"
)

// @title Student Insight API
// @version 1.0.0
// @description Per-student learning dashboards built from published CSV feeds
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo *repository.CacheRepository
	if cfg.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(client, repository.DefaultNamespace, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	var cacheRepository service.CacheRepository
	if cacheRepo != nil {
		cacheRepository = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheRepository, metrics, cfg.Sources.SnapshotTTL, logr, cacheRepo != nil)

	loc := cfg.Sources.Location()
	loader := csvsource.NewLoader(cfg.Sources.FetchTimeout, logr, csvsource.WithObserver(metrics))
	feeds := repository.NewFeedRepository(loader, normalize.New(loc), repository.FeedURLs{
		Practice:         cfg.Sources.Practice,
		PracticeSessions: cfg.Sources.PracticeSessions,
		Quiz:             cfg.Sources.Quiz,
		Video:            cfg.Sources.Video,
		Math:             cfg.Sources.Math,
		Identity:         cfg.Sources.Identity,
	})

	datasets := service.NewDatasetService(feeds, cacheSvc, cfg.Sources.SnapshotTTL, logr)
	identity := service.NewIdentityService(datasets, validate, logr, service.IdentityConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	insights := service.NewInsightService(datasets, loc, logr, service.InsightServiceConfig{
		MovingAverageWindow: cfg.Analytics.MovingAverageWindow,
		HistogramBins:       cfg.Analytics.HistogramBins,
		TopVideos:           cfg.Analytics.TopVideos,
		TrendWeeks:          cfg.Analytics.TrendWeeks,
		MissionPageSize:     cfg.Analytics.MissionPageSize,
	})
	gemini := genai.New(genai.Config{
		APIKey:          cfg.Analysis.APIKey,
		Model:           cfg.Analysis.Model,
		Endpoint:        cfg.Analysis.Endpoint,
		Timeout:         cfg.Analysis.Timeout,
		MaxOutputTokens: cfg.Analysis.MaxOutputTokens,
		Temperature:     cfg.Analysis.Temperature,
	}, logr)
	analysis := service.NewAnalysisService(insights, gemini, metrics, validate, logr, service.AnalysisServiceConfig{
		Enabled: cfg.Analysis.Enabled,
		Timeout: cfg.Analysis.Timeout,
	})
	reports := service.NewReportService(insights, export.NewCSVExporter(true), export.NewPDFExporter(cfg.Reports.FontPath), logr, service.ReportConfig{
		Enabled: cfg.Reports.Enabled,
		Title:   cfg.Reports.Title,
	})

	if cfg.Warmup.Enabled {
		warmup := service.NewWarmupService(datasets, logr, service.WarmupConfig{
			Workers:    cfg.Warmup.Workers,
			Retries:    cfg.Warmup.Retries,
			RetryDelay: cfg.Warmup.RetryDelay,
			Interval:   cfg.Warmup.Interval,
		})
		warmup.Start(ctx)
		defer warmup.Stop()
	}

	var readiness handler.Pinger
	if cacheRepo != nil {
		readiness = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metrics, readiness)
	authHandler := handler.NewAuthHandler(identity)
	analyticsHandler := handler.NewAnalyticsHandler(insights)
	analysisHandler := handler.NewAnalysisHandler(analysis, logr)
	reportHandler := handler.NewReportHandler(reports)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Any("/api/gemini", analysisHandler.Gemini)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/system/metrics", metricsHandler.System)

	student := api.Group("")
	student.Use(middleware.JWT(identity))
	student.GET("/students/me", authHandler.Me)
	student.GET("/practice", analyticsHandler.Practice)
	student.GET("/quiz", analyticsHandler.Quiz)
	student.GET("/video", analyticsHandler.Video)
	student.GET("/math", analyticsHandler.Math)
	student.GET("/overview", analyticsHandler.Overview)
	student.POST("/analysis/:chart", analysisHandler.Explain)
	student.GET("/reports/summary", reportHandler.Summary)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cache", cacheRepo != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

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
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/noah-isme/consistify-api/api/swagger"
	"github.com/noah-isme/consistify-api/internal/handler"
	"github.com/noah-isme/consistify-api/internal/middleware"
	"github.com/noah-isme/consistify-api/internal/repository"
	"github.com/noah-isme/consistify-api/internal/service"
	"github.com/noah-isme/consistify-api/pkg/cache"
	"github.com/noah-isme/consistify-api/pkg/config"
	"github.com/noah-isme/consistify-api/pkg/database"
	"github.com/noah-isme/consistify-api/pkg/export"
	"github.com/noah-isme/consistify-api/pkg/jobs"
	"github.com/noah-isme/consistify-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/consistify-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/consistify-api/pkg/middleware/requestid"
)

// @title Consistify API
// @version 1.0.0
// @description Study activity tracking, analytics and feedback for students, educators and admins
// @BasePath /api
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

	stores, probes, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to open record store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStores()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Analytics.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// Reports are still served from the record store without Redis.
			logr.Warn("analytics cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			probes["cache"] = redisRepo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()

	analyticsSvc := service.NewAnalyticsService(stores.Users, stores.Activities, stores.Feedback, cacheSvc, metricsSvc, logr, service.AnalyticsConfig{
		DefaultWeeklyGoalMinutes: cfg.Analytics.DefaultWeeklyGoalMinutes,
		EducatorWeeklyTarget:     cfg.Analytics.EducatorWeeklyTarget,
		RosterConcurrency:        cfg.Analytics.RosterConcurrency,
		StoreTimeout:             cfg.Analytics.StoreTimeout,
		CacheTTL:                 cfg.Analytics.CacheTTL,
	})

	queue := jobs.NewQueue("analytics", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	invalidator := service.NewReportInvalidator(queue, analyticsSvc, logr)
	queue.Register(service.JobInvalidateReports, invalidator.Handle)
	queue.Start(ctx)
	defer queue.Stop()

	authSvc := service.NewAuthService(stores.Users, validate, invalidator, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	activitySvc := service.NewActivityService(stores.Activities, validate, invalidator, logr)
	feedbackSvc := service.NewFeedbackService(stores.Feedback, stores.Users, validate, invalidator, logr)
	userSvc := service.NewUserService(stores.Users, stores.Feedback, validate, invalidator, logr)
	exportSvc := service.NewExportService(analyticsSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	metricsHandler := handler.NewMetricsHandler(metricsSvc, probes)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc, exportSvc),
		Activity:  handler.NewActivityHandler(activitySvc),
		Feedback:  handler.NewFeedbackHandler(feedbackSvc),
		User:      handler.NewUserHandler(userSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Error("server shutdown", zap.Error(err))
		}
	}()

	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver, "cache", cacheSvc.Enabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Info("server stopped")
}

// openStores connects the configured record store and returns its readiness probe.
func openStores(ctx context.Context, cfg *config.Config) (repository.Stores, map[string]handler.Pinger, func(), error) {
	probes := make(map[string]handler.Pinger)

	if cfg.Store.Driver == config.StoreDriverMongo {
		client, db, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return repository.Stores{}, nil, nil, err
		}
		probes["store"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return repository.NewMongoStores(db), probes, closeFn, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return repository.Stores{}, nil, nil, err
	}
	probes["store"] = db.PingContext
	closeFn := func() { _ = db.Close() }
	return repository.NewPostgresStores(db), probes, closeFn, nil
}

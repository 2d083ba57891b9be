package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/senai-mf/aquisicoes-api/api/swagger"
	"github.com/senai-mf/aquisicoes-api/internal/handler"
	"github.com/senai-mf/aquisicoes-api/internal/middleware"
	"github.com/senai-mf/aquisicoes-api/internal/repository"
	"github.com/senai-mf/aquisicoes-api/internal/service"
	"github.com/senai-mf/aquisicoes-api/pkg/cache"
	"github.com/senai-mf/aquisicoes-api/pkg/config"
	"github.com/senai-mf/aquisicoes-api/pkg/database"
	"github.com/senai-mf/aquisicoes-api/pkg/logger"
	corsmiddleware "github.com/senai-mf/aquisicoes-api/pkg/middleware/cors"
	reqidmiddleware "github.com/senai-mf/aquisicoes-api/pkg/middleware/requestid"
	"github.com/senai-mf/aquisicoes-api/pkg/storage"
)

// @title Aquisições API
// @version 1.0.0
// @description Acquisition request tracking with status ledger and bulk import
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	requestSvc := service.NewRequestService(requestRepo, userRepo, attachmentRepo, files, validate, logr).
		WithMetrics(metricsSvc)
	importSvc := service.NewImportService(service.NewImportNormalizer(cfg.Imports.MaxRows), requestRepo, userRepo, logr).
		WithMetrics(metricsSvc)
	dashboardSvc := service.NewDashboardService(requestRepo, redisClient, cfg.Dashboard.CacheTTL, logr)
	reportSvc := service.NewReportService(requestSvc, userRepo, logr)
	attachmentSvc := service.NewAttachmentService(attachmentRepo, requestRepo, files, signer, cfg.Uploads, logr)

	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, dashboardSvc)
	importHandler := handler.NewImportHandler(importSvc, reportSvc, dashboardSvc, service.RowsFromCells)
	reportHandler := handler.NewReportHandler(reportSvc, dashboardSvc)
	userHandler := handler.NewUserHandler(userSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/attachments/download", attachmentHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/first-password", authHandler.FirstPassword)
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/catalog", requestHandler.Catalog)

		authed.GET("/requests", requestHandler.List)
		authed.POST("/requests", requestHandler.Create)
		authed.GET("/requests/export", reportHandler.Export)
		authed.POST("/requests/import", importHandler.Run)
		authed.GET("/requests/import/template", importHandler.Template)
		authed.GET("/requests/:id", requestHandler.Get)
		authed.PUT("/requests/:id", requestHandler.Update)
		authed.PUT("/requests/:id/responsible", requestHandler.Reassign)
		authed.GET("/requests/:id/history", requestHandler.History)
		authed.GET("/requests/:id/attachments", attachmentHandler.List)
		authed.POST("/requests/:id/attachments", attachmentHandler.Upload)

		authed.DELETE("/attachments/:id", attachmentHandler.Delete)
		authed.GET("/attachments/:id/sign", attachmentHandler.Sign)

		authed.GET("/dashboard/summary", reportHandler.Summary)
		authed.GET("/users/active", userHandler.ListActive)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.AdminOnly())
	{
		admin.DELETE("/requests/:id", requestHandler.Delete)
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.GET("/users/:id", userHandler.Get)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Deactivate)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

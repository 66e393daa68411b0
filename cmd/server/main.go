// Package main runs the tenant directory HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orgvault/backend/config"
	"github.com/orgvault/backend/internal/auth"
	"github.com/orgvault/backend/internal/directory"
	"github.com/orgvault/backend/internal/lifecycle"
	"github.com/orgvault/backend/internal/middleware"
	"github.com/orgvault/backend/internal/tenant"
	"github.com/orgvault/backend/pkg/database"
	"github.com/orgvault/backend/pkg/queue"
	"github.com/orgvault/backend/pkg/redis"
	"github.com/orgvault/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	client, err := database.NewMongoClient(ctx, cfg.Mongo.URI, logger)
	if err != nil {
		logger.Fatal("mongo", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	dirRepo := directory.NewRepository(client, cfg.Mongo.MasterDB)
	if err := dirRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}
	tenantStore := tenant.NewStore(client)

	// Redis backs the orphan-cleanup queue; the server runs without it,
	// leaving rollback orphans to manual cleanup.
	var cleanupQueue *queue.Queue
	if rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger); err != nil {
		logger.Warn("cleanup queue disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		cleanupQueue = queue.NewQueue(rdb.Client, logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireSeconds)
	authHandler := auth.NewHandler(dirRepo, jwtService, logger)

	var cleanup lifecycle.CleanupQueue
	if cleanupQueue != nil {
		cleanup = cleanupQueue
	}
	lifecycleSvc := lifecycle.NewService(dirRepo, tenantStore, cleanup, logger)
	orgHandler := lifecycle.NewHandler(lifecycleSvc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Admin auth (public)
	admin := router.Group("/admin")
	{
		admin.POST("/login", authHandler.Login)
	}

	// Organization lifecycle
	org := router.Group("/org")
	{
		org.POST("/create", orgHandler.Create)
		org.GET("/get", orgHandler.Get)

		protected := org.Group("")
		protected.Use(middleware.JWT(jwtService))
		{
			protected.DELETE("/delete", orgHandler.Delete)
			protected.PUT("/update", orgHandler.Rename)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

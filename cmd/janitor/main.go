// Package main runs the orphan-namespace janitor worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orgvault/backend/config"
	"github.com/orgvault/backend/internal/directory"
	"github.com/orgvault/backend/internal/janitor"
	"github.com/orgvault/backend/internal/tenant"
	"github.com/orgvault/backend/pkg/database"
	"github.com/orgvault/backend/pkg/queue"
	"github.com/orgvault/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	dirRepo := directory.NewRepository(client, cfg.Mongo.MasterDB)
	tenantStore := tenant.NewStore(client)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	worker := janitor.New(jobQueue, dirRepo, tenantStore, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(workerCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("janitor exited")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
